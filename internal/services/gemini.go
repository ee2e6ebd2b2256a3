package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jwebster45206/story-proxy/pkg/chat"
)

const DefaultGeminiModel = "gemini-1.5-pro"

// GeminiService implements LLMService for Google Gemini
type GeminiService struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	logger    *slog.Logger
}

// NewGeminiService creates a Gemini client. An empty apiKey yields
// ErrNotConfigured.
func NewGeminiService(ctx context.Context, apiKey string, modelName string, logger *slog.Logger) (*GeminiService, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiService{
		client:    client,
		model:     client.GenerativeModel(modelName),
		modelName: modelName,
		logger:    logger,
	}, nil
}

func (g *GeminiService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" && modelName != g.modelName {
		g.model = g.client.GenerativeModel(modelName)
		g.modelName = modelName
	}
	return nil
}

// Chat sends the messages as a single text prompt. Gemini takes the system
// prompt inline, so every message is flattened in order.
func (g *GeminiService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(chat.Flatten(messages)))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	text := responseText(resp)
	g.logger.Debug("Gemini response received", "model", g.modelName, "chars", len(text))

	return &chat.ChatResponse{Message: text}, nil
}

// Close releases the underlying client
func (g *GeminiService) Close() error {
	return g.client.Close()
}

// responseText joins the text parts of the first candidate. A reply with
// no candidates yields "".
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
