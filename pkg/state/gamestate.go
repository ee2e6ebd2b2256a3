package state

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

const (
	DefaultChapter = "BOOK1_CH01"
	BaselineStat   = 5

	// StartMarker is sent as player input to open a new story. It is never
	// recorded in memory.
	StartMarker = "__START__"
)

// Stats is the player's stat triple. Totals are unbounded; only per-turn
// deltas are clamped.
type Stats struct {
	Sanity  int `json:"sanity"`
	Stamina int `json:"stamina"`
	Luck    int `json:"luck"`
}

// Ending is an unlocked terminal outcome.
type Ending struct {
	Unlocked bool   `json:"unlocked"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	AtTurn   int    `json:"atTurn"`
}

// GameState is the complete state of one play session. Its JSON encoding
// is the save blob.
type GameState struct {
	Turn    int               `json:"turn"`
	Chapter string            `json:"chapter"`
	Stats   Stats             `json:"stats"`
	Flags   []string          `json:"flags"`
	Memory  Memory            `json:"memory"`
	Endings map[string]Ending `json:"endings"`
	LastAI  *TurnResult       `json:"lastAI"`
}

// NewGameState returns the state of a game that has not started yet.
func NewGameState() *GameState {
	return &GameState{
		Turn:    0,
		Chapter: DefaultChapter,
		Stats:   Stats{Sanity: BaselineStat, Stamina: BaselineStat, Luck: BaselineStat},
		Flags:   make([]string, 0),
		Memory:  Memory{Recent: make([]MemoryEntry, 0)},
		Endings: make(map[string]Ending),
	}
}

// Clone returns a deep copy of gs.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := &GameState{
		Turn:    gs.Turn,
		Chapter: gs.Chapter,
		Stats:   gs.Stats,
		Flags:   slices.Clone(gs.Flags),
		Memory: Memory{
			Summary: gs.Memory.Summary,
			Recent:  slices.Clone(gs.Memory.Recent),
		},
		Endings: maps.Clone(gs.Endings),
		LastAI:  gs.LastAI.Clone(),
	}
	c.normalize()
	return c
}

// HasFlag reports whether flag is set.
func (gs *GameState) HasFlag(flag string) bool {
	return slices.Contains(gs.Flags, flag)
}

// EndingIDs returns the ids of all unlocked endings in sorted order.
func (gs *GameState) EndingIDs() []string {
	ids := slices.Sorted(maps.Keys(gs.Endings))
	if ids == nil {
		ids = make([]string, 0)
	}
	return ids
}

// Ended reports whether the most recent reply closed the story.
func (gs *GameState) Ended() bool {
	return gs.LastAI != nil && gs.LastAI.End != nil && gs.LastAI.End.EndingID != ""
}

// Snapshot encodes the full state as a save blob.
func (gs *GameState) Snapshot() ([]byte, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	return data, nil
}

// MergeSnapshot overlays a save blob onto gs. Each top-level key present
// in data replaces the corresponding field wholesale; absent keys leave the
// current value alone and unknown keys are ignored. If any known key fails
// to decode, gs is left untouched.
func (gs *GameState) MergeSnapshot(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to unmarshal save: %w", err)
	}

	next := gs.Clone()
	for key, raw := range fields {
		var err error
		switch key {
		case "turn":
			var v int
			err = json.Unmarshal(raw, &v)
			next.Turn = v
		case "chapter":
			var v string
			err = json.Unmarshal(raw, &v)
			next.Chapter = v
		case "stats":
			var v Stats
			err = json.Unmarshal(raw, &v)
			next.Stats = v
		case "flags":
			var v []string
			err = json.Unmarshal(raw, &v)
			next.Flags = v
		case "memory":
			var v Memory
			err = json.Unmarshal(raw, &v)
			next.Memory = v
		case "endings":
			var v map[string]Ending
			err = json.Unmarshal(raw, &v)
			next.Endings = v
		case "lastAI":
			var v *TurnResult
			err = json.Unmarshal(raw, &v)
			next.LastAI = v
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to restore %q from save: %w", key, err)
		}
	}

	next.normalize()
	*gs = *next
	return nil
}

// normalize replaces nil collections so the save blob always carries
// arrays and objects rather than nulls.
func (gs *GameState) normalize() {
	if gs.Flags == nil {
		gs.Flags = make([]string, 0)
	}
	if gs.Memory.Recent == nil {
		gs.Memory.Recent = make([]MemoryEntry, 0)
	}
	if gs.Endings == nil {
		gs.Endings = make(map[string]Ending)
	}
}
