package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// RequestTimeout bounds one request end to end and must exceed the
	// model provider timeout.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	HealthProbeTTL time.Duration `mapstructure:"health_probe_ttl"`
}

type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	Algorithm   string        `mapstructure:"algorithm"`
	Expiry      time.Duration `mapstructure:"expiry"`
}

type APIKeyConfig struct {
	Key             string   `mapstructure:"key"`
	HeaderName      string   `mapstructure:"header_name"`
	AllowedServices []string `mapstructure:"allowed_services"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	// Global token-bucket guard in front of the per-identifier limiter.
	GlobalRPS   float64 `mapstructure:"global_rps"`
	GlobalBurst int     `mapstructure:"global_burst"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DatabaseConfig struct {
	// URL is optional; the diagnosis archive falls back to in-memory
	// storage when unset.
	URL string `mapstructure:"url"`
}

type EmailConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	From          string `mapstructure:"from"`
	EscalationTo  string `mapstructure:"escalation_to"`
}

type Config struct {
	AppName     string          `mapstructure:"app_name"`
	AppVersion  string          `mapstructure:"app_version"`
	Debug       bool            `mapstructure:"debug"`
	LogLevel    string          `mapstructure:"log_level"`
	Disclaimer  string          `mapstructure:"disclaimer"`
	CORSOrigins []string        `mapstructure:"cors_origins"`
	Server      ServerConfig    `mapstructure:"server"`
	OpenAI      OpenAIConfig    `mapstructure:"openai"`
	JWT         JWTConfig       `mapstructure:"jwt"`
	APIKey      APIKeyConfig    `mapstructure:"api_key"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Email       EmailConfig     `mapstructure:"email"`
}

const defaultDisclaimer = "This diagnosis is AI-generated and should not replace professional " +
	"medical consultation. Always consult with a qualified healthcare provider for medical advice."

func setDefaults() {
	viper.SetDefault("app_name", "diagnosis-api")
	viper.SetDefault("app_version", "1.0.0")
	viper.SetDefault("debug", false)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("disclaimer", defaultDisclaimer)
	viper.SetDefault("cors_origins", []string{"http://localhost:3000"})

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)
	viper.SetDefault("server.request_timeout", 60*time.Second)
	viper.SetDefault("server.health_probe_ttl", 30*time.Second)

	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("openai.max_tokens", 1500)
	viper.SetDefault("openai.temperature", 0.1)
	viper.SetDefault("openai.timeout", 45*time.Second)

	viper.SetDefault("jwt.algorithm", "HS256")
	viper.SetDefault("jwt.expiry", 24*time.Hour)

	viper.SetDefault("api_key.header_name", "X-API-Key")
	viper.SetDefault("api_key.allowed_services", []string{})

	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", time.Hour)
	viper.SetDefault("rate_limit.global_rps", 100.0)
	viper.SetDefault("rate_limit.global_burst", 200)

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.port", 587)
}

// Load reads configuration from an optional config file and the environment.
// Environment variables win, with dots mapped to underscores
// (e.g. OPENAI_API_KEY -> openai.api_key).
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional; env-only deployments are the norm.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai.api_key (OPENAI_API_KEY) is required")
	}
	if cfg.JWT.Secret == "" && cfg.APIKey.Key == "" {
		return nil, fmt.Errorf("at least one of jwt.secret or api_key.key must be configured")
	}

	return &cfg, nil
}
