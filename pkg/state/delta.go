package state

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
)

// MaxStatDelta bounds how far a single turn may move any one stat.
const MaxStatDelta = 3

type deltaPayload struct {
	Stats       json.RawMessage `json:"stats"`
	FlagsAdd    json.RawMessage `json:"flags_add"`
	FlagsRemove json.RawMessage `json:"flags_remove"`
}

type statsDelta struct {
	Sanity  Number `json:"sanity"`
	Stamina Number `json:"stamina"`
	Luck    Number `json:"luck"`
}

// ApplyDelta merges a reply's delta into stats and flags and returns the
// results. The inputs are not modified.
//
// Each stat delta is coerced to a number (anything unreadable counts as 0),
// clamped to [-MaxStatDelta, MaxStatDelta] and truncated before it is
// added. Flags in flags_add are appended when missing, then every flag named
// in flags_remove is dropped, so a flag in both lists ends the turn unset.
// A delta that is not a JSON object changes nothing.
func ApplyDelta(stats Stats, flags []string, raw json.RawMessage) (Stats, []string) {
	flags = slices.Clone(flags)
	if flags == nil {
		flags = make([]string, 0)
	}
	if !isObject(raw) {
		return stats, flags
	}

	var d deltaPayload
	if err := json.Unmarshal(raw, &d); err != nil {
		return stats, flags
	}

	if isObject(d.Stats) {
		var sd statsDelta
		if err := json.Unmarshal(d.Stats, &sd); err == nil {
			stats.Sanity += clampDelta(sd.Sanity)
			stats.Stamina += clampDelta(sd.Stamina)
			stats.Luck += clampDelta(sd.Luck)
		}
	}

	for _, f := range stringList(d.FlagsAdd) {
		if !slices.Contains(flags, f) {
			flags = append(flags, f)
		}
	}

	remove := stringList(d.FlagsRemove)
	if len(remove) > 0 {
		flags = slices.DeleteFunc(flags, func(f string) bool {
			return slices.Contains(remove, f)
		})
	}

	return stats, flags
}

func clampDelta(n Number) int {
	if !n.Valid {
		return 0
	}
	v := math.Max(-MaxStatDelta, math.Min(MaxStatDelta, n.Value))
	return int(math.Trunc(v))
}

// stringList returns the string elements of a JSON array. Non-arrays yield
// nil and non-string elements are skipped.
func stringList(raw json.RawMessage) []string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
