package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jwebster45206/story-proxy/internal/logger"
	"github.com/jwebster45206/story-proxy/internal/middleware"
	"github.com/jwebster45206/story-proxy/internal/services"
	"github.com/jwebster45206/story-proxy/pkg/extract"
	"github.com/jwebster45206/story-proxy/pkg/prompts"
	"github.com/jwebster45206/story-proxy/pkg/state"
	"github.com/jwebster45206/story-proxy/pkg/textfilter"
)

const (
	maxRequestBytes = 1 << 20
	corsMaxAge      = 86400

	msgMethodNotAllowed = "Method Not Allowed"
	msgMissingFields    = "Missing required fields: state, user_input"
	msgInvalidJSON      = "AI returned invalid JSON"
	msgMissingKeys      = "AI JSON missing required keys"
	msgSchemaMismatch   = "AI JSON does not match the reply schema"
	msgTooManyRequests  = "Too Many Requests"
)

// StoryOptions configures the story endpoint.
type StoryOptions struct {
	CORSOrigin     string
	APIKeyName     string // reported when no LLM is configured
	Timeout        time.Duration
	FilterCanon    bool
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustProxyHeaders keys rate limits on X-Forwarded-For
	TrustProxyHeaders bool
}

// StoryHandler serves POST /api/story: it wraps the player's turn in the
// system prompt, calls the model and returns the validated reply object.
type StoryHandler struct {
	llmService services.LLMService
	opts       StoryOptions
	filter     *textfilter.CanonFilter
	limiter    *ipLimiter
	logger     *slog.Logger
}

// NewStoryHandler creates the story handler. A nil llmService means the
// provider credential is missing; every request then fails with 500.
func NewStoryHandler(llmService services.LLMService, opts StoryOptions, logger *slog.Logger) *StoryHandler {
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.APIKeyName == "" {
		opts.APIKeyName = "GEMINI_API_KEY"
	}
	h := &StoryHandler{
		llmService: llmService,
		opts:       opts,
		limiter:    newIPLimiter(opts.RateLimitRPS, opts.RateLimitBurst, opts.TrustProxyHeaders),
		logger:     logger,
	}
	if opts.FilterCanon {
		h.filter = textfilter.NewCanonFilter()
	}
	return h
}

func (h *StoryHandler) setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", h.opts.CORSOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
}

func (h *StoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := middleware.FromContext(r.Context(), h.logger)
	h.setCORS(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		log.Warn("Method not allowed for story endpoint", "method", r.Method)
		writeError(w, log, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	if !h.limiter.Allow(r) {
		log.Warn("Rate limit exceeded", "client", clientIP(r, h.opts.TrustProxyHeaders))
		writeError(w, log, http.StatusTooManyRequests, msgTooManyRequests)
		return
	}

	if h.llmService == nil {
		log.Error("LLM provider is not configured", "missing", h.opts.APIKeyName)
		writeError(w, log, http.StatusInternalServerError, "Missing "+h.opts.APIKeyName+" env var")
		return
	}

	in, ok := decodeStoryInput(r, w)
	if !ok {
		log.Warn("Invalid story request")
		writeError(w, log, http.StatusBadRequest, msgMissingFields)
		return
	}

	messages, err := prompts.Build(in)
	if err != nil {
		log.Error("Failed to build prompt", "error", err)
		writeError(w, log, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := r.Context()
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := h.llmService.Chat(ctx, messages)
	if err != nil {
		logger.WithError(log, err).Error("Error generating story response", "duration", time.Since(start))
		writeError(w, log, http.StatusInternalServerError, err.Error())
		return
	}
	log.Debug("Model replied", "duration", time.Since(start), "chars", len(resp.Message))

	obj, err := extract.Object(resp.Message)
	if err != nil {
		raw := extract.Excerpt(resp.Message, state.RawExcerptLimit)
		log.Warn("Model reply had no usable JSON", "error", err)
		writeJSON(w, log, http.StatusBadGateway, ErrorResponse{Error: msgInvalidJSON, Raw: &raw})
		return
	}

	result, err := state.ParseReply(obj)
	if err != nil {
		msg := msgSchemaMismatch
		var malformed *state.MalformedReplyError
		if errors.As(err, &malformed) && len(malformed.Missing) > 0 {
			msg = msgMissingKeys
		}
		log.Warn("Model reply failed validation", "error", err)
		writeJSON(w, log, http.StatusBadGateway, ErrorResponse{Error: msg, Got: obj})
		return
	}

	if h.filter == nil {
		writeJSON(w, log, http.StatusOK, obj)
		return
	}
	h.filter.FilterReply(result)
	writeJSON(w, log, http.StatusOK, result)
}

// decodeStoryInput reads the request body. state must be truthy and
// user_input a string; a falsy memory is sent to the model as null.
func decodeStoryInput(r *http.Request, w http.ResponseWriter) (prompts.Input, bool) {
	var body struct {
		State     json.RawMessage `json:"state"`
		Memory    json.RawMessage `json:"memory"`
		UserInput json.RawMessage `json:"user_input"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&body); err != nil {
		return prompts.Input{}, false
	}
	if !state.Truthy(body.State) {
		return prompts.Input{}, false
	}

	var userInput string
	if len(body.UserInput) == 0 || body.UserInput[0] != '"' {
		return prompts.Input{}, false
	}
	if err := json.Unmarshal(body.UserInput, &userInput); err != nil {
		return prompts.Input{}, false
	}

	in := prompts.Input{State: body.State, UserInput: userInput}
	if state.Truthy(body.Memory) {
		in.Memory = body.Memory
	}
	return in, true
}
