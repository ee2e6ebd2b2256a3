package state

// RecordEnding unlocks the ending carried by end, stamping it with the
// current turn. Re-unlocking an id overwrites its metadata. It reports
// whether anything was recorded; a nil end or one without an id is ignored.
//
// Ending ids are not checked against the catalog here. The system prompt
// restricts the model to known ids.
func (gs *GameState) RecordEnding(end *End) bool {
	if end == nil || end.EndingID == "" {
		return false
	}

	title := end.Title
	if title == "" {
		title = end.EndingID
	}

	if gs.Endings == nil {
		gs.Endings = make(map[string]Ending)
	}
	gs.Endings[end.EndingID] = Ending{
		Unlocked: true,
		Title:    title,
		Summary:  end.Summary,
		AtTurn:   gs.Turn,
	}
	return true
}
