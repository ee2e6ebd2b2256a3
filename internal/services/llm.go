package services

import (
	"context"
	"errors"

	"github.com/jwebster45206/story-proxy/pkg/chat"
)

// ErrNotConfigured is returned when a provider has no credential.
var ErrNotConfigured = errors.New("llm provider is not configured")

// LLMService defines the interface for interacting with the LLM API
type LLMService interface {
	// InitModel prepares the provider for modelName on startup
	InitModel(ctx context.Context, modelName string) error

	// Chat sends one prompt and returns the raw reply text
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
}
