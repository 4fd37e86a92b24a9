package diagnosis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderly-care/diagnosis-api/internal/model"
	apperrors "github.com/tenderly-care/diagnosis-api/pkg/errors"
)

// stubLLM returns canned content and records the prompts it was given.
type stubLLM struct {
	content      string
	err          error
	systemPrompt string
	userPrompt   string
}

func (s *stubLLM) GenerateJSON(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.systemPrompt = systemPrompt
	s.userPrompt = userPrompt
	return s.content, s.err
}

type stubArchive struct {
	saved []*model.StructuredDiagnosisResponse
	err   error
}

func (s *stubArchive) Save(_ context.Context, resp *model.StructuredDiagnosisResponse) error {
	s.saved = append(s.saved, resp)
	return s.err
}

type stubNotifier struct {
	notified []*model.StructuredDiagnosisResponse
}

func (s *stubNotifier) NotifyUrgent(_ context.Context, resp *model.StructuredDiagnosisResponse) error {
	s.notified = append(s.notified, resp)
	return nil
}

const testDisclaimer = "test disclaimer"

func newTestService(llm LLMClient, archive Archive, notifier Notifier) *Service {
	svc := NewService(llm, archive, notifier, testDisclaimer, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 7, 21, 6, 3, 52, 0, time.UTC) }
	return svc
}

func simpleRequest() *model.DiagnosisRequest {
	return &model.DiagnosisRequest{
		Symptoms:      []string{"itching", "discharge"},
		PatientAge:    28,
		SeverityLevel: model.SeverityModerate,
		Duration:      "3 days",
	}
}

func structuredRequest() *model.StructuredDiagnosisRequest {
	return &model.StructuredDiagnosisRequest{
		PatientProfile: model.PatientProfile{
			Age:       25,
			RequestID: "req-12345",
			Timestamp: "2025-07-21T06:03:52Z",
		},
		PrimaryComplaint: model.PrimaryComplaint{
			MainSymptom: model.SymptomVaginalDischarge,
			Duration:    "5 days",
			Severity:    model.SeverityModerate,
			Onset:       model.OnsetGradual,
			Progression: model.ProgressionStable,
		},
		PatientConcerns: model.PatientConcerns{
			MainWorry:    "possible infection",
			ImpactOnLife: "sleep disruption",
		},
	}
}

func TestGenerate(t *testing.T) {
	t.Run("maps provider JSON onto the response", func(t *testing.T) {
		llm := &stubLLM{content: `{
			"diagnosis": "Bacterial vaginosis",
			"confidence_score": 0.85,
			"suggested_investigations": [{"name": "Vaginal pH test", "reason": "confirm diagnosis"}],
			"recommended_medications": [{"name": "Metronidazole", "dosage": "500mg", "frequency": "twice daily", "duration": "7 days"}],
			"lifestyle_advice": ["avoid douching"],
			"follow_up_recommendations": "review in one week"
		}`}
		svc := newTestService(llm, nil, nil)

		resp, err := svc.Generate(context.Background(), simpleRequest())
		require.NoError(t, err)

		assert.Equal(t, "Bacterial vaginosis", resp.Diagnosis)
		assert.Equal(t, 0.85, resp.ConfidenceScore)
		require.Len(t, resp.RecommendedMedications, 1)
		assert.Equal(t, "Metronidazole", resp.RecommendedMedications[0].Name)
		assert.Equal(t, []string{"avoid douching"}, resp.LifestyleAdvice)
		assert.Equal(t, testDisclaimer, resp.Disclaimer)
		assert.Equal(t, time.Date(2025, 7, 21, 6, 3, 52, 0, time.UTC), resp.Timestamp)
	})

	t.Run("falls back to Unknown when diagnosis is missing", func(t *testing.T) {
		llm := &stubLLM{content: `{"confidence_score": 0.9}`}
		svc := newTestService(llm, nil, nil)

		resp, err := svc.Generate(context.Background(), simpleRequest())
		require.NoError(t, err)
		assert.Equal(t, "Unknown", resp.Diagnosis)
		assert.Zero(t, resp.ConfidenceScore)
	})

	t.Run("clamps confidence to the unit interval", func(t *testing.T) {
		llm := &stubLLM{content: `{"diagnosis": "Candidiasis", "confidence_score": 1.7}`}
		svc := newTestService(llm, nil, nil)

		resp, err := svc.Generate(context.Background(), simpleRequest())
		require.NoError(t, err)
		assert.Equal(t, 1.0, resp.ConfidenceScore)
	})

	t.Run("nil slices become empty slices", func(t *testing.T) {
		llm := &stubLLM{content: `{"diagnosis": "Candidiasis", "confidence_score": 0.8}`}
		svc := newTestService(llm, nil, nil)

		resp, err := svc.Generate(context.Background(), simpleRequest())
		require.NoError(t, err)
		assert.NotNil(t, resp.SuggestedInvestigations)
		assert.NotNil(t, resp.RecommendedMedications)
		assert.NotNil(t, resp.LifestyleAdvice)
	})

	t.Run("malformed provider JSON is an upstream error", func(t *testing.T) {
		llm := &stubLLM{content: `I am not JSON`}
		svc := newTestService(llm, nil, nil)

		_, err := svc.Generate(context.Background(), simpleRequest())
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindUpstream))
	})

	t.Run("provider errors pass through", func(t *testing.T) {
		llm := &stubLLM{err: apperrors.NewUpstream("AI service unavailable", errors.New("timeout"))}
		svc := newTestService(llm, nil, nil)

		_, err := svc.Generate(context.Background(), simpleRequest())
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindUpstream))
	})
}

func TestGenerateStructured(t *testing.T) {
	structuredContent := `{
		"possible_diagnoses": [
			{"name": "Bacterial vaginosis", "confidence_score": 0.8, "reasoning": "thin discharge with odor"},
			{"name": "Candidiasis", "confidence_score": 0.4}
		],
		"clinical_reasoning": "discharge characteristics point to BV",
		"safety_assessment": {
			"allergy_considerations": {"allergic_medications": ["penicillin"]}
		},
		"risk_assessment": {"urgency_level": "moderate", "red_flags": []},
		"treatment_recommendations": {"primary_treatment": "oral metronidazole"},
		"confidence_score": 0.8
	}`

	t.Run("maps the structured payload and echoes request identity", func(t *testing.T) {
		llm := &stubLLM{content: structuredContent}
		archive := &stubArchive{}
		svc := newTestService(llm, archive, nil)

		resp, err := svc.GenerateStructured(context.Background(), structuredRequest())
		require.NoError(t, err)

		assert.Equal(t, "req-12345", resp.RequestID)
		assert.Equal(t, 25, resp.PatientAge)
		assert.Equal(t, model.SymptomVaginalDischarge, resp.PrimarySymptom)
		require.Len(t, resp.PossibleDiagnoses, 2)
		assert.Equal(t, "Bacterial vaginosis", resp.PossibleDiagnoses[0].Name)
		assert.Equal(t, model.UrgencyModerate, resp.RiskAssessment.UrgencyLevel)
		assert.Equal(t, "oral metronidazole", resp.TreatmentRecommendations.PrimaryTreatment)
		assert.Equal(t, testDisclaimer, resp.Disclaimer)
	})

	t.Run("archives the response", func(t *testing.T) {
		llm := &stubLLM{content: structuredContent}
		archive := &stubArchive{}
		svc := newTestService(llm, archive, nil)

		resp, err := svc.GenerateStructured(context.Background(), structuredRequest())
		require.NoError(t, err)
		require.Len(t, archive.saved, 1)
		assert.Equal(t, resp.RequestID, archive.saved[0].RequestID)
	})

	t.Run("archive failure does not fail the request", func(t *testing.T) {
		llm := &stubLLM{content: structuredContent}
		archive := &stubArchive{err: errors.New("db down")}
		svc := newTestService(llm, archive, nil)

		_, err := svc.GenerateStructured(context.Background(), structuredRequest())
		assert.NoError(t, err)
	})

	t.Run("empty diagnosis list falls back to Unknown", func(t *testing.T) {
		llm := &stubLLM{content: `{"possible_diagnoses": [], "confidence_score": 0.9}`}
		svc := newTestService(llm, nil, nil)

		resp, err := svc.GenerateStructured(context.Background(), structuredRequest())
		require.NoError(t, err)
		require.Len(t, resp.PossibleDiagnoses, 1)
		assert.Equal(t, "Unknown", resp.PossibleDiagnoses[0].Name)
		assert.Zero(t, resp.ConfidenceScore)
	})

	t.Run("diagnosis list is capped at three most likely", func(t *testing.T) {
		llm := &stubLLM{content: `{
			"possible_diagnoses": [
				{"name": "Bacterial vaginosis", "confidence_score": 0.9},
				{"name": "Candidiasis", "confidence_score": 0.7},
				{"name": "Trichomoniasis", "confidence_score": 0.5},
				{"name": "Chlamydia", "confidence_score": 0.3},
				{"name": "Gonorrhea", "confidence_score": 0.1}
			],
			"confidence_score": 0.9
		}`}
		svc := newTestService(llm, nil, nil)

		resp, err := svc.GenerateStructured(context.Background(), structuredRequest())
		require.NoError(t, err)
		require.Len(t, resp.PossibleDiagnoses, 3)
		assert.Equal(t, "Bacterial vaginosis", resp.PossibleDiagnoses[0].Name)
		assert.Equal(t, "Candidiasis", resp.PossibleDiagnoses[1].Name)
		assert.Equal(t, "Trichomoniasis", resp.PossibleDiagnoses[2].Name)
	})

	t.Run("missing urgency defaults to low", func(t *testing.T) {
		llm := &stubLLM{content: `{"possible_diagnoses": [{"name": "Candidiasis", "confidence_score": 0.6}]}`}
		svc := newTestService(llm, nil, nil)

		resp, err := svc.GenerateStructured(context.Background(), structuredRequest())
		require.NoError(t, err)
		assert.Equal(t, model.UrgencyLow, resp.RiskAssessment.UrgencyLevel)
	})

	t.Run("per-diagnosis confidence is clamped", func(t *testing.T) {
		llm := &stubLLM{content: `{"possible_diagnoses": [{"name": "PID", "confidence_score": 2.5}]}`}
		svc := newTestService(llm, nil, nil)

		resp, err := svc.GenerateStructured(context.Background(), structuredRequest())
		require.NoError(t, err)
		assert.Equal(t, 1.0, resp.PossibleDiagnoses[0].ConfidenceScore)
	})

	t.Run("urgent cases trigger escalation", func(t *testing.T) {
		llm := &stubLLM{content: `{
			"possible_diagnoses": [{"name": "Ectopic pregnancy", "confidence_score": 0.7}],
			"risk_assessment": {"urgency_level": "urgent", "red_flags": ["severe pain"]}
		}`}
		notifier := &stubNotifier{}
		svc := newTestService(llm, nil, notifier)

		_, err := svc.GenerateStructured(context.Background(), structuredRequest())
		require.NoError(t, err)
		require.Len(t, notifier.notified, 1)
	})

	t.Run("non-urgent cases do not escalate", func(t *testing.T) {
		llm := &stubLLM{content: structuredContent}
		notifier := &stubNotifier{}
		svc := newTestService(llm, nil, notifier)

		_, err := svc.GenerateStructured(context.Background(), structuredRequest())
		require.NoError(t, err)
		assert.Empty(t, notifier.notified)
	})

	t.Run("malformed provider JSON is an upstream error", func(t *testing.T) {
		llm := &stubLLM{content: `{"possible_diagnoses": [`}
		svc := newTestService(llm, nil, nil)

		_, err := svc.GenerateStructured(context.Background(), structuredRequest())
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindUpstream))
	})
}
