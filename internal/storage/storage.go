package storage

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned when a save key is blank.
var ErrEmptyKey = errors.New("save key is required")

// Storage is a key/value store for game snapshots.
// Get returns nil, nil when the key does not exist.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Snapshot operations
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}
