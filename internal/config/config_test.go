package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/story-proxy/internal/services"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/data")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, services.DefaultGeminiModel, cfg.ModelName)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.Equal(t, 2.0, cfg.RateLimitRPS)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.FilterCanon)
	assert.False(t, cfg.TrustProxy)
	assert.Equal(t, BackendSQLite, cfg.SaveBackend)
	assert.Equal(t, filepath.Join("/tmp/data", "story-proxy", "save.db"), cfg.SavePath)
	assert.Equal(t, "verpotter_save_v1", cfg.SaveKey)
	assert.Equal(t, "GEMINI_API_KEY", cfg.APIKeyName())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("SAVE_BACKEND", "redis")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("SAVE_PATH", "/srv/save.db")
	t.Setenv("TRUST_PROXY_HEADERS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.APIKeyName())
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, BackendRedis, cfg.SaveBackend)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/srv/save.db", cfg.SavePath)
	assert.True(t, cfg.TrustProxy)
}

func TestLoad_ModelDefaultsPerProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, services.DefaultAnthropicModel, cfg.ModelName)

	t.Setenv("MODEL_NAME", "claude-custom")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "claude-custom", cfg.ModelName)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown provider", "LLM_PROVIDER", "ollama"},
		{"unknown backend", "SAVE_BACKEND", "localstorage"},
		{"negative rate", "RATE_LIMIT_RPS", "-1"},
		{"bad duration", "REQUEST_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("nonsense"))
}
