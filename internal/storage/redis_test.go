package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := NewRedisStorage("redis://"+mr.Addr(), ttl, logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis storage: %v", err)
	}

	return store, mr
}

func TestRedisStorage_RoundTrip(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	payload := []byte(`{"turn":3,"chapter":"BOOK1_CH01"}`)
	if err := store.Set(ctx, "verpotter_save_v1", payload); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if !mr.Exists(KeyPrefix + "verpotter_save_v1") {
		t.Errorf("Expected key %q in redis", KeyPrefix+"verpotter_save_v1")
	}

	got, err := store.Get(ctx, "verpotter_save_v1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Expected %s, got %s", payload, got)
	}

	if err := store.Delete(ctx, "verpotter_save_v1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err = store.Get(ctx, "verpotter_save_v1")
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil after delete, got %s", got)
	}
}

func TestRedisStorage_MissingKey(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	defer mr.Close()
	defer store.Close()

	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Expected no error for missing key, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing key, got %s", got)
	}
}

func TestRedisStorage_TTL(t *testing.T) {
	store, mr := setupTestRedis(t, time.Minute)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("{}")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if ttl := mr.TTL(KeyPrefix + "k"); ttl != time.Minute {
		t.Errorf("Expected ttl 1m, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected expired key to be nil, got %s", got)
	}
}

func TestRedisStorage_EmptyKey(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()
	if _, err := store.Get(ctx, " "); err != ErrEmptyKey {
		t.Errorf("Expected ErrEmptyKey from Get, got %v", err)
	}
	if err := store.Set(ctx, "", []byte("{}")); err != ErrEmptyKey {
		t.Errorf("Expected ErrEmptyKey from Set, got %v", err)
	}
}

func TestRedisStorage_PingFailsWhenServerDown(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	defer store.Close()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err == nil {
		t.Error("Expected ping to fail after server shutdown")
	}
}
