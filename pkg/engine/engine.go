// Package engine runs the turn pipeline: build the request, call the
// proxy, validate the reply, and commit the new game state.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/jwebster45206/story-proxy/internal/storage"
	"github.com/jwebster45206/story-proxy/pkg/prompts"
	"github.com/jwebster45206/story-proxy/pkg/state"
)

// DefaultSaveKey is the key the full snapshot is stored under.
const DefaultSaveKey = "verpotter_save_v1"

// ErrTurnInFlight is returned when a turn, load or reset is requested while
// another turn is still waiting on the proxy.
var ErrTurnInFlight = errors.New("a turn is already in progress")

// Proxy sends one turn request to the model and returns the raw reply text.
type Proxy interface {
	Story(ctx context.Context, req *prompts.Request) (string, error)
}

// Engine owns one player session. Each turn works on a copy of the
// current state which replaces it only when the whole turn succeeds.
type Engine struct {
	proxy   Proxy
	store   storage.Storage
	logger  *slog.Logger
	saveKey string

	current  atomic.Pointer[state.GameState]
	inFlight atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithSaveKey overrides DefaultSaveKey.
func WithSaveKey(key string) Option {
	return func(e *Engine) {
		if key != "" {
			e.saveKey = key
		}
	}
}

// WithState starts the engine from gs instead of a fresh game.
func WithState(gs *state.GameState) Option {
	return func(e *Engine) {
		if gs != nil {
			e.current.Store(gs.Clone())
		}
	}
}

// New creates an engine. store may be nil, in which case nothing is
// persisted.
func New(proxy Proxy, store storage.Storage, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		proxy:   proxy,
		store:   store,
		logger:  logger,
		saveKey: DefaultSaveKey,
	}
	e.current.Store(state.NewGameState())
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns a copy of the current game state.
func (e *Engine) State() *state.GameState {
	return e.current.Load().Clone()
}

// LastResult returns a copy of the most recent reply, or nil before the
// first turn.
func (e *Engine) LastResult() *state.TurnResult {
	return e.current.Load().LastAI.Clone()
}

// Busy reports whether a turn is outstanding.
func (e *Engine) Busy() bool {
	return e.inFlight.Load()
}

// ExecuteTurn runs one turn with the player's input. On any error the game
// state is left exactly as it was.
func (e *Engine) ExecuteTurn(ctx context.Context, input string) (*state.TurnResult, error) {
	if !e.acquire() {
		return nil, ErrTurnInFlight
	}
	defer e.release()

	return e.runTurn(ctx, e.current.Load(), input)
}

// StartNewGame resets to a fresh game and runs the opening turn. The reset
// only takes effect if the opening turn succeeds.
func (e *Engine) StartNewGame(ctx context.Context) (*state.TurnResult, error) {
	if !e.acquire() {
		return nil, ErrTurnInFlight
	}
	defer e.release()

	return e.runTurn(ctx, state.NewGameState(), state.StartMarker)
}

func (e *Engine) runTurn(ctx context.Context, base *state.GameState, input string) (*state.TurnResult, error) {
	log := e.logger.With("turn", base.Turn, "chapter", base.Chapter)

	raw, err := e.proxy.Story(ctx, prompts.NewRequest(base, input))
	if err != nil {
		log.Warn("Story request failed", "error", err)
		return nil, err
	}

	result, err := state.DecodeReply(raw)
	if err != nil {
		var unusable *state.UnusableReplyError
		var malformed *state.MalformedReplyError
		switch {
		case errors.As(err, &unusable):
			log.Warn("Unusable reply", "error", err, "raw", unusable.Raw)
		case errors.As(err, &malformed):
			log.Warn("Malformed reply", "error", err, "missing", malformed.Missing)
		}
		return nil, err
	}

	next := base.Clone()
	if unlocked := next.Advance(input, result); unlocked {
		log.Info("Ending unlocked", "ending_id", result.End.EndingID, "at_turn", next.Turn)
	}
	e.current.Store(next)

	e.persist(ctx, next)

	log.Debug("Turn applied", "next_turn", next.Turn, "stats", next.Stats, "flags", len(next.Flags))
	return result.Clone(), nil
}

func (e *Engine) acquire() bool {
	return e.inFlight.CompareAndSwap(false, true)
}

func (e *Engine) release() {
	e.inFlight.Store(false)
}
