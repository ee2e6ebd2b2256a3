// Package settings persists console preferences as YAML.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	TextSmall  = "sm"
	TextMedium = "md"
	TextLarge  = "lg"
)

// Settings are the player's display preferences.
type Settings struct {
	TextSize   string `yaml:"text_size"`
	Typewriter bool   `yaml:"typewriter"`
	BGM        bool   `yaml:"bgm"`
}

// Default returns md text with effects off.
func Default() Settings {
	return Settings{TextSize: TextMedium}
}

// DefaultPath is $XDG_CONFIG_HOME/story-proxy/settings.yaml, falling back
// to the OS user config dir.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return "settings.yaml"
		}
	}
	return filepath.Join(dir, "story-proxy", "settings.yaml")
}

// Load reads settings from path. A missing or unreadable file yields the
// defaults; only I/O errors other than not-exist are returned.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read settings: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), nil
	}
	s.normalize()
	return s, nil
}

// Save writes settings to path, creating the directory if needed.
func Save(path string, s Settings) error {
	s.normalize()
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// NextTextSize cycles sm -> md -> lg -> sm.
func (s Settings) NextTextSize() string {
	switch s.TextSize {
	case TextSmall:
		return TextMedium
	case TextMedium:
		return TextLarge
	default:
		return TextSmall
	}
}

// WrapWidth is the narration column width for the text size, capped by
// the terminal width.
func (s Settings) WrapWidth(termWidth int) int {
	var w int
	switch s.TextSize {
	case TextSmall:
		w = 96
	case TextLarge:
		w = 56
	default:
		w = 72
	}
	if termWidth > 4 && termWidth-4 < w {
		w = termWidth - 4
	}
	return w
}

func (s *Settings) normalize() {
	switch s.TextSize {
	case TextSmall, TextMedium, TextLarge:
	default:
		s.TextSize = TextMedium
	}
}
