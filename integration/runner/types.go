package runner

import (
	"encoding/json"
	"time"

	"github.com/jwebster45206/story-proxy/pkg/state"
)

// Special inputs that trigger non-turn actions
const (
	StartGamePrompt  = "START_GAME"
	ReloadSavePrompt = "RELOAD_SAVE"
)

// TestSuite defines a complete integration test run
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name         string           `json:"name"`
	ScriptedOnly bool             `json:"scripted_only,omitempty"` // needs scripted replies; skipped against a live model
	SeedState    *state.GameState `json:"seed_state,omitempty"`
	Steps        []TestStep       `json:"steps,omitempty"`
	Cases        []string         `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single turn and its expected outcomes.
// Use input "START_GAME" for the opening turn and "RELOAD_SAVE" to load the
// saved game into a fresh engine.
type TestStep struct {
	Name         string          `json:"name,omitempty"`
	Input        string          `json:"input"`
	Reply        json.RawMessage `json:"reply,omitempty"`
	Expectations Expectations    `json:"expect"`
}

// ScriptedReply returns the model text this step should receive. A JSON
// string is used verbatim; any other JSON value is sent as its encoding.
func (s TestStep) ScriptedReply() (string, bool) {
	if len(s.Reply) == 0 {
		return "", false
	}
	var text string
	if err := json.Unmarshal(s.Reply, &text); err == nil {
		return text, true
	}
	return string(s.Reply), true
}

// Expectations defines what to check after a step executes
type Expectations struct {
	// GameState properties - aligned with pkg/state/gamestate.go
	Turn            *int         `json:"turn,omitempty"`
	Chapter         *string      `json:"chapter,omitempty"`
	Stats           *state.Stats `json:"stats,omitempty"`
	FlagsContain    []string     `json:"flags_contain,omitempty"`
	FlagsAbsent     []string     `json:"flags_absent,omitempty"`
	IsEnded         *bool        `json:"is_ended,omitempty"`
	EndingsUnlocked []string     `json:"endings_unlocked,omitempty"`
	MemoryRecent    *int         `json:"memory_recent,omitempty"`

	// Error is one of "unusable", "malformed" or "proxy".
	// When set the step must fail that way and leave the state unchanged.
	Error string `json:"error,omitempty"`

	// Response Analysis
	NarrationContains    []string `json:"narration_contains,omitempty"`
	NarrationNotContains []string `json:"narration_not_contains,omitempty"`
	NarrationRegex       string   `json:"narration_regex,omitempty"`
	NarrationMinLength   *int     `json:"narration_min_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName      string
	StepName      string
	Success       bool
	Error         error
	Duration      time.Duration
	NarrationText string
	IsReload      bool
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	SaveKey  string // save slot used for this run
}
