package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jwebster45206/story-proxy/internal/config"
	"github.com/jwebster45206/story-proxy/internal/storage"
)

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// testConnection checks that the proxy is reachable. A degraded proxy
// still answers; its status is returned so the caller can warn.
func testConnection(client *http.Client, baseURL string) (string, error) {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return health.Status, nil
}

// openStore opens the save backend named by SAVE_BACKEND.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, error) {
	switch cfg.SaveBackend {
	case config.BackendRedis:
		rs, err := storage.NewRedisStorage(cfg.RedisURL, 0, log)
		if err != nil {
			return nil, err
		}
		if err := rs.WaitForConnection(ctx); err != nil {
			_ = rs.Close()
			return nil, err
		}
		return rs, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SavePath), 0o755); err != nil {
			return nil, fmt.Errorf("create save dir: %w", err)
		}
		return storage.OpenSQLite(cfg.SavePath, log)
	}
}

// openLogFile returns the console log, next to the save file.
func openLogFile(cfg *config.Config) (*os.File, error) {
	dir := filepath.Dir(cfg.SavePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "console.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
