// Package art maps cast members to character portrait assets.
package art

import (
	"io/fs"
	"path"
	"strings"
)

// FallbackExpression is used when a reply names no expression or the
// requested portrait is missing.
const FallbackExpression = "neutral"

const root = "assets/characters"

// Path returns the asset key for a character id and expression:
// assets/characters/<id>/ch_<id>_<expression>.png
func Path(id, expression string) string {
	id = strings.TrimSpace(id)
	expression = strings.TrimSpace(expression)
	if expression == "" {
		expression = FallbackExpression
	}
	return path.Join(root, id, "ch_"+id+"_"+expression+".png")
}

// Fallback returns the neutral portrait key for a character.
func Fallback(id string) string {
	return Path(id, FallbackExpression)
}

// Resolve returns the portrait key for id/expression if it exists in fsys,
// otherwise the neutral fallback. An empty id resolves to "".
func Resolve(fsys fs.FS, id, expression string) string {
	if strings.TrimSpace(id) == "" {
		return ""
	}
	p := Path(id, expression)
	if fsys == nil {
		return p
	}
	if _, err := fs.Stat(fsys, p); err == nil {
		return p
	}
	return Fallback(id)
}
