// Package extract recovers a single JSON object from free-form model output.
//
// Models are asked to answer with bare JSON but routinely wrap it in a
// markdown fence or add a sentence before or after it. Object strips an
// optional fence and then slices from the first '{' to the last '}'. The
// slice is positional, not brace-counted, so a reply carrying two separate
// objects or stray braces in the surrounding prose will not extract cleanly.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnusable is wrapped by every extraction failure.
var ErrUnusable = errors.New("no usable reply")

var (
	ErrEmpty       = fmt.Errorf("%w: empty reply", ErrUnusable)
	ErrNoObject    = fmt.Errorf("%w: no JSON object found", ErrUnusable)
	ErrInvalidJSON = fmt.Errorf("%w: invalid JSON", ErrUnusable)
)

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("(?i)```$")
)

// Object returns the outermost JSON object found in raw.
// The returned error is one of ErrEmpty, ErrNoObject or ErrInvalidJSON.
func Object(raw string) (json.RawMessage, error) {
	if raw == "" {
		return nil, ErrEmpty
	}

	t := strings.TrimSpace(raw)
	t = leadingFence.ReplaceAllString(t, "")
	t = trailingFence.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)

	first := strings.Index(t, "{")
	last := strings.LastIndex(t, "}")
	if first == -1 || last == -1 || last <= first {
		return nil, ErrNoObject
	}

	slice := t[first : last+1]
	if !json.Valid([]byte(slice)) {
		return nil, ErrInvalidJSON
	}
	return json.RawMessage(slice), nil
}

// Into extracts the object from raw and decodes it into v.
func Into(raw string, v any) error {
	obj, err := Object(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(obj, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// Excerpt returns at most n characters of s, counted in runes.
func Excerpt(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
