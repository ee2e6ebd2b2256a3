package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jwebster45206/story-proxy/internal/services"
	"github.com/jwebster45206/story-proxy/internal/storage"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))

	tests := []struct {
		name            string
		setupStorage    func() storage.Storage
		setupLLM        func() services.LLMService
		expectedStatus  int
		expectedHealth  string
		expectedStorage string
		expectedLLM     string
	}{
		{
			name: "all healthy",
			setupStorage: func() storage.Storage {
				mockStorage := storage.NewMockStorage()
				mockStorage.SetPingSuccess()
				return mockStorage
			},
			setupLLM: func() services.LLMService {
				return services.NewMockLLMAPI()
			},
			expectedStatus:  http.StatusOK,
			expectedHealth:  "healthy",
			expectedStorage: "healthy",
			expectedLLM:     "configured",
		},
		{
			name: "unhealthy storage",
			setupStorage: func() storage.Storage {
				mockStorage := storage.NewMockStorage()
				mockStorage.SetPingError(errors.New("connection failed"))
				return mockStorage
			},
			setupLLM: func() services.LLMService {
				return services.NewMockLLMAPI()
			},
			expectedStatus:  http.StatusServiceUnavailable,
			expectedHealth:  "degraded",
			expectedStorage: "unhealthy",
			expectedLLM:     "configured",
		},
		{
			name:         "no storage configured",
			setupStorage: func() storage.Storage { return nil },
			setupLLM: func() services.LLMService {
				return services.NewMockLLMAPI()
			},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedLLM:    "configured",
		},
		{
			name:           "llm unconfigured",
			setupStorage:   func() storage.Storage { return nil },
			setupLLM:       func() services.LLMService { return nil },
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedLLM:    "unconfigured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.setupStorage(), tt.setupLLM(), logger)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if response.Status != tt.expectedHealth {
				t.Errorf("Expected health status %s, got %s", tt.expectedHealth, response.Status)
			}

			if got := response.Components["storage"]; got != tt.expectedStorage {
				t.Errorf("Expected storage status %q, got %q", tt.expectedStorage, got)
			}

			if got := response.Components["llm"]; got != tt.expectedLLM {
				t.Errorf("Expected llm status %q, got %q", tt.expectedLLM, got)
			}

			if response.Service != "story-proxy" {
				t.Errorf("Expected service story-proxy, got %s", response.Service)
			}
		})
	}
}
