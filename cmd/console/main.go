package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/jwebster45206/story-proxy/internal/config"
	"github.com/jwebster45206/story-proxy/internal/logger"
	"github.com/jwebster45206/story-proxy/internal/settings"
	"github.com/jwebster45206/story-proxy/pkg/engine"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logFile, err := openLogFile(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close()
	}()
	log := logger.SetupTo(logFile, cfg)

	client := &http.Client{Timeout: 5 * time.Second}
	status, err := testConnection(client, cfg.APIBaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to API at %s: %v\nPlease ensure the API is running.\n", cfg.APIBaseURL, err)
		os.Exit(1)
	}
	if status != "healthy" {
		fmt.Fprintf(os.Stderr, "Warning: API reports status %q; turns may fail.\n", status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	store, err := openStore(ctx, cfg, log)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open save store: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	settingsPath := settings.DefaultPath()
	prefs, err := settings.Load(settingsPath)
	if err != nil {
		log.Warn("Using default settings", "error", err)
	}

	eng := engine.New(
		engine.NewHTTPProxy(cfg.APIBaseURL, cfg.RequestTimeout, log),
		store,
		log,
		engine.WithSaveKey(cfg.SaveKey),
	)

	log.Info("Console starting", "api", cfg.APIBaseURL, "save_backend", cfg.SaveBackend, "save_key", cfg.SaveKey)

	ui := NewConsoleUI(eng, prefs, settingsPath, cfg.RequestTimeout, log)
	p := tea.NewProgram(ui,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
