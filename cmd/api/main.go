package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jwebster45206/story-proxy/internal/config"
	"github.com/jwebster45206/story-proxy/internal/handlers"
	"github.com/jwebster45206/story-proxy/internal/logger"
	"github.com/jwebster45206/story-proxy/internal/middleware"
	"github.com/jwebster45206/story-proxy/internal/services"
	"github.com/jwebster45206/story-proxy/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Story Proxy API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	llmService := newLLMService(initCtx, cfg, log)

	// A shared Redis save store is optional; it is only health-checked here.
	var store storage.Storage
	if cfg.SaveBackend == config.BackendRedis {
		redisStore, err := storage.NewRedisStorage(cfg.RedisURL, 0, log)
		if err != nil {
			log.Error("Invalid redis configuration", "error", err)
			os.Exit(1)
		}
		if err := redisStore.WaitForConnection(initCtx); err != nil {
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		}
		log.Info("Storage connection established successfully")
		store = redisStore
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, llmService, log)
	mux.Handle("/health", healthHandler)

	storyHandler := handlers.NewStoryHandler(llmService, handlers.StoryOptions{
		CORSOrigin:     cfg.CORSOrigin,
		APIKeyName:     cfg.APIKeyName(),
		Timeout:        cfg.RequestTimeout,
		FilterCanon:    cfg.FilterCanon,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,

		TrustProxyHeaders: cfg.TrustProxy,
	}, log)
	mux.Handle("/api/story", storyHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if store != nil {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if closer, ok := llmService.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Error("Error closing LLM client", "error", err)
		}
	}

	log.Info("Server exited")
}

// newLLMService returns nil when the provider credential is missing. The
// server still starts and answers every story request with a configuration
// error.
func newLLMService(ctx context.Context, cfg *config.Config, log *slog.Logger) services.LLMService {
	if cfg.APIKey() == "" {
		log.Warn("LLM credential missing; story requests will fail", "env", cfg.APIKeyName())
		return nil
	}

	var llmService services.LLMService
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log)
		log.Info("Using Anthropic LLM provider")
	default:
		gemini, err := services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.ModelName, log)
		if err != nil {
			log.Error("Failed to create Gemini client", "error", err)
			os.Exit(1)
		}
		llmService = gemini
		log.Info("Using Gemini LLM provider")
	}

	if err := llmService.InitModel(ctx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}
	return llmService
}
