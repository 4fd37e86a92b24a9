// Package llm wraps the OpenAI chat-completion API behind a small interface
// so the diagnosis pipeline can run against a stub in tests.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"

	"github.com/tenderly-care/diagnosis-api/internal/config"
	apperrors "github.com/tenderly-care/diagnosis-api/pkg/errors"
	"github.com/tenderly-care/diagnosis-api/pkg/metrics"
)

// OpenAIClient is a shared, stateless handle holding credentials and default
// sampling parameters. Safe for concurrent use.
type OpenAIClient struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

func NewOpenAIClient(cfg config.OpenAIConfig, logger zerolog.Logger, m *metrics.Metrics) *OpenAIClient {
	return &OpenAIClient{
		client:      openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger,
		metrics:     m,
	}
}

// GenerateJSON sends the system and user prompts and returns the model's
// JSON-formatted text. Provider failures, timeouts, and empty completions
// all surface as upstream service errors.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	c.observe(start, err)
	if err != nil {
		return "", apperrors.NewUpstream("AI service call failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.NewUpstream("no response from AI service", nil)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", apperrors.NewUpstream("empty response from AI service", nil)
	}
	return content, nil
}

// HealthCheck verifies API connectivity with a minimal completion.
func (c *OpenAIClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(c.model),
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage("ping")},
		MaxTokens: openai.Int(5),
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("openai health check failed")
		return fmt.Errorf("openai health check: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("openai health check: no choices returned")
	}
	return nil
}

func (c *OpenAIClient) observe(start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.LLMCallsTotal.WithLabelValues(outcome).Inc()
	c.metrics.LLMLatency.Observe(time.Since(start).Seconds())
}
