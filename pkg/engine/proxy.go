package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/story-proxy/pkg/chat"
	"github.com/jwebster45206/story-proxy/pkg/extract"
	"github.com/jwebster45206/story-proxy/pkg/prompts"
	"github.com/jwebster45206/story-proxy/pkg/state"
)

// StoryPath is the proxy endpoint turns are posted to.
const StoryPath = "/api/story"

// ProxyError is a non-success response from the story endpoint that is not
// a reply-shape failure.
type ProxyError struct {
	StatusCode int
	Message    string
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("story proxy returned %d: %s", e.StatusCode, e.Message)
}

// errorBody is the JSON error shape of the story endpoint.
type errorBody struct {
	Error string          `json:"error"`
	Raw   *string         `json:"raw,omitempty"`
	Got   json.RawMessage `json:"got,omitempty"`
}

// HTTPProxy calls a remote story endpoint.
type HTTPProxy struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPProxy creates a client for the story endpoint at baseURL. A zero
// timeout leaves requests bounded only by their context.
func NewHTTPProxy(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPProxy {
	return &HTTPProxy{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Story posts req and returns the reply body. Reply-shape failures reported
// by the endpoint come back as *state.UnusableReplyError or
// *state.MalformedReplyError; other failures as *ProxyError.
func (p *HTTPProxy) Story(ctx context.Context, req *prompts.Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal story request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+StoryPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		p.logger.Debug("Story reply received", "request_id", requestID, "bytes", len(respBody))
		return string(respBody), nil
	}

	p.logger.Debug("Story request rejected", "request_id", requestID, "status", resp.StatusCode)
	return "", decodeError(resp.StatusCode, respBody)
}

func decodeError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = "API Error"
		}
		return &ProxyError{StatusCode: status, Message: msg}
	}

	if status == http.StatusBadGateway {
		switch {
		case eb.Raw != nil:
			return &state.UnusableReplyError{Raw: *eb.Raw, Err: extract.ErrUnusable}
		case len(eb.Got) > 0:
			if _, err := state.ParseReply(eb.Got); err != nil {
				var malformed *state.MalformedReplyError
				if errors.As(err, &malformed) {
					return malformed
				}
			}
			return &state.MalformedReplyError{Reason: eb.Error, Got: eb.Got}
		}
	}

	return &ProxyError{StatusCode: status, Message: eb.Error}
}

// Chatter is the part of an LLM client the in-process proxy needs.
type Chatter interface {
	Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)
}

// LLMProxy builds the prompt locally and calls an LLM client directly,
// without going through the HTTP endpoint.
type LLMProxy struct {
	llm Chatter
}

func NewLLMProxy(llm Chatter) *LLMProxy {
	return &LLMProxy{llm: llm}
}

func (p *LLMProxy) Story(ctx context.Context, req *prompts.Request) (string, error) {
	in, err := req.Input()
	if err != nil {
		return "", err
	}
	messages, err := prompts.Build(in)
	if err != nil {
		return "", err
	}
	resp, err := p.llm.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
