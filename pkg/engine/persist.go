package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwebster45206/story-proxy/pkg/state"
)

// ErrNoStore is returned by save operations on an engine without storage.
var ErrNoStore = errors.New("no save store configured")

// persist writes gs after a committed turn. Failures are logged only; the
// turn stands either way.
func (e *Engine) persist(ctx context.Context, gs *state.GameState) {
	if e.store == nil {
		return
	}
	if err := e.write(ctx, gs); err != nil {
		e.logger.Warn("Failed to persist game state", "key", e.saveKey, "error", err)
	}
}

func (e *Engine) write(ctx context.Context, gs *state.GameState) error {
	data, err := gs.Snapshot()
	if err != nil {
		return err
	}
	return e.store.Set(ctx, e.saveKey, data)
}

// Save writes the current state to the store.
func (e *Engine) Save(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}
	if err := e.write(ctx, e.current.Load()); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

// Continue loads the saved snapshot and merges it over the current state.
// It reports false when there is no save. A save that cannot be decoded
// leaves the current state untouched.
func (e *Engine) Continue(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, ErrNoStore
	}
	if !e.acquire() {
		return false, ErrTurnInFlight
	}
	defer e.release()

	data, err := e.store.Get(ctx, e.saveKey)
	if err != nil {
		return false, fmt.Errorf("failed to load game: %w", err)
	}
	if data == nil {
		return false, nil
	}

	next := e.current.Load().Clone()
	if err := next.MergeSnapshot(data); err != nil {
		return false, err
	}
	e.current.Store(next)

	e.logger.Info("Game loaded", "key", e.saveKey, "turn", next.Turn, "chapter", next.Chapter)
	return true, nil
}

// Peek decodes the saved snapshot without loading it. It returns nil when
// there is no save.
func (e *Engine) Peek(ctx context.Context) (*state.GameState, error) {
	if e.store == nil {
		return nil, nil
	}
	data, err := e.store.Get(ctx, e.saveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read save: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	gs := state.NewGameState()
	if err := gs.MergeSnapshot(data); err != nil {
		return nil, err
	}
	return gs, nil
}

// HasSave reports whether a snapshot exists.
func (e *Engine) HasSave(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, nil
	}
	data, err := e.store.Get(ctx, e.saveKey)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// ClearSave deletes the snapshot. The in-memory state is kept.
func (e *Engine) ClearSave(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}
	if err := e.store.Delete(ctx, e.saveKey); err != nil {
		return fmt.Errorf("failed to clear save: %w", err)
	}
	return nil
}
