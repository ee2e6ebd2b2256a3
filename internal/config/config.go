package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jwebster45206/story-proxy/internal/services"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"

	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	Environment  string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel     slog.Level

	// Proxy
	LLMProvider     string        `env:"LLM_PROVIDER" envDefault:"gemini"`
	ModelName       string        `env:"MODEL_NAME"` // defaults per provider
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	CORSOrigin      string        `env:"CORS_ORIGIN" envDefault:"*"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS" envDefault:"2"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	FilterCanon     bool          `env:"FILTER_CANON_NAMES" envDefault:"true"`
	TrustProxy      bool          `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Console client
	APIBaseURL  string `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	SaveBackend string `env:"SAVE_BACKEND" envDefault:"sqlite"`
	SavePath    string `env:"SAVE_PATH"`
	RedisURL    string `env:"REDIS_URL" envDefault:"localhost:6379"`
	SaveKey     string `env:"SAVE_KEY" envDefault:"verpotter_save_v1"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.SaveBackend = strings.ToLower(strings.TrimSpace(cfg.SaveBackend))
	if cfg.SavePath == "" {
		cfg.SavePath = defaultSavePath()
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ModelName == "" {
		cfg.ModelName = defaultModel(cfg.LLMProvider)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMProvider {
	case ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}
	switch c.SaveBackend {
	case BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unsupported SAVE_BACKEND %q", c.SaveBackend)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	return nil
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}
	return c.GeminiAPIKey
}

// APIKeyName returns the env var that holds the provider credential.
func (c *Config) APIKeyName() string {
	if c.LLMProvider == ProviderAnthropic {
		return "ANTHROPIC_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func defaultModel(provider string) string {
	if provider == ProviderAnthropic {
		return services.DefaultAnthropicModel
	}
	return services.DefaultGeminiModel
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultSavePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "story-proxy", "save.db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "story-proxy", "save.db")
	}
	return "save.db"
}
