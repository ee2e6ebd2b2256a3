package state

import "strings"

const (
	RecentLimit      = 6
	SummaryLimit     = 400
	SummarySeparator = " / "

	RoleUser = "user"
	RoleAI   = "ai"
)

// MemoryEntry is one line of the recent exchange log.
type MemoryEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Memory is the rolling context sent with every request: a lossy running
// summary and the last few exchanges.
type Memory struct {
	Summary string        `json:"summary"`
	Recent  []MemoryEntry `json:"recent"`
}

// Push appends an entry, evicting the oldest once RecentLimit is exceeded.
func (m *Memory) Push(role, text string) {
	m.Recent = append(m.Recent, MemoryEntry{Role: role, Text: text})
	if over := len(m.Recent) - RecentLimit; over > 0 {
		m.Recent = append(m.Recent[:0:0], m.Recent[over:]...)
	}
}

// AppendSummary joins line onto the running summary and keeps only the
// last SummaryLimit characters. Blank lines are ignored.
func (m *Memory) AppendSummary(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	merged := line
	if m.Summary != "" {
		merged = m.Summary + SummarySeparator + line
	}

	runes := []rune(merged)
	if len(runes) > SummaryLimit {
		merged = string(runes[len(runes)-SummaryLimit:])
	}
	m.Summary = merged
}

// Record logs one turn: the player's input (unless it is empty or the start
// marker), the narration, and the turn's status summary.
func (m *Memory) Record(input, narration, summary string) {
	if input != "" && input != StartMarker {
		m.Push(RoleUser, input)
	}
	m.Push(RoleAI, narration)
	m.AppendSummary(summary)
}
