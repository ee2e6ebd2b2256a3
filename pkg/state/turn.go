package state

import "math"

// NextTurn returns the turn number to move to after reply r. The model's
// reported turn wins when it reads as a positive number; otherwise the
// local counter advances by one.
func (gs *GameState) NextTurn(r *TurnResult) int {
	if r != nil && r.Turn.Valid {
		if v := math.Trunc(r.Turn.Value); v >= 1 && v <= math.MaxInt32 {
			return int(v)
		}
	}
	return gs.Turn + 1
}

// Advance applies a validated reply to gs: turn and chapter, memory,
// delta, and ending, in that order. It reports whether an ending was
// unlocked.
func (gs *GameState) Advance(input string, r *TurnResult) bool {
	gs.LastAI = r.Clone()
	gs.Turn = gs.NextTurn(r)
	if r.Chapter != "" {
		gs.Chapter = r.Chapter
	}

	gs.Memory.Record(input, r.Narration, r.Status.Summary)
	gs.Stats, gs.Flags = ApplyDelta(gs.Stats, gs.Flags, r.Delta)
	return gs.RecordEnding(r.End)
}
