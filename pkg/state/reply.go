package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jwebster45206/story-proxy/pkg/extract"
)

const (
	// QuestionMaxChars is the fixed answer length every question allows.
	QuestionMaxChars = 140

	// RawExcerptLimit bounds the raw reply text attached to diagnostics.
	RawExcerptLimit = 800
)

// RequiredReplyKeys must be present and non-empty in every reply.
var RequiredReplyKeys = []string{"narration", "cast", "status", "delta"}

// Character is a cast member shown in a turn.
type Character struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

type Cast struct {
	Active *Character  `json:"active"`
	Others []Character `json:"others"`
}

type Status struct {
	Place   string `json:"place"`
	Time    string `json:"time"`
	Summary string `json:"summary"`
}

type Question struct {
	Text      string `json:"text"`
	InputHint string `json:"input_hint"`
	MaxChars  Number `json:"max_chars"`
}

// End closes the story with one of the catalogued endings.
type End struct {
	EndingID string `json:"endingId"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
}

// TurnResult is a validated model reply. Delta is kept raw because it is
// applied leniently by ApplyDelta.
type TurnResult struct {
	Turn      Number          `json:"turn"`
	Chapter   string          `json:"chapter"`
	Narration string          `json:"narration"`
	Cast      Cast            `json:"cast"`
	Status    Status          `json:"status"`
	Question  *Question       `json:"question"`
	Delta     json.RawMessage `json:"delta"`
	End       *End            `json:"end"`
}

// Clone returns a deep copy of r.
func (r *TurnResult) Clone() *TurnResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Cast.Others = slices.Clone(r.Cast.Others)
	c.Delta = slices.Clone(r.Delta)
	if r.Cast.Active != nil {
		active := *r.Cast.Active
		c.Cast.Active = &active
	}
	if r.Question != nil {
		q := *r.Question
		c.Question = &q
	}
	if r.End != nil {
		e := *r.End
		c.End = &e
	}
	return &c
}

// UnusableReplyError reports a reply no JSON object could be recovered from.
type UnusableReplyError struct {
	Raw string // leading RawExcerptLimit characters of the reply
	Err error
}

func (e *UnusableReplyError) Error() string {
	return fmt.Sprintf("AI returned invalid JSON: %v", e.Err)
}

func (e *UnusableReplyError) Unwrap() error { return e.Err }

// MalformedReplyError reports a JSON reply that does not match the reply
// schema. Got holds the parsed object.
type MalformedReplyError struct {
	Missing []string
	Reason  string
	Got     json.RawMessage
}

func (e *MalformedReplyError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("AI JSON missing required keys: %v", e.Missing)
	}
	return fmt.Sprintf("AI JSON does not match the reply schema: %s", e.Reason)
}

// DecodeReply extracts and validates a raw model reply. Failures are
// either *UnusableReplyError or *MalformedReplyError.
func DecodeReply(raw string) (*TurnResult, error) {
	obj, err := extract.Object(raw)
	if err != nil {
		return nil, &UnusableReplyError{Raw: extract.Excerpt(raw, RawExcerptLimit), Err: err}
	}
	return ParseReply(obj)
}

// ParseReply validates an extracted JSON object against the reply schema.
func ParseReply(obj json.RawMessage) (*TurnResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return nil, &MalformedReplyError{Reason: err.Error(), Got: obj}
	}

	var missing []string
	for _, key := range RequiredReplyKeys {
		if !Truthy(fields[key]) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedReplyError{Missing: missing, Got: obj}
	}

	var r TurnResult
	if err := json.Unmarshal(obj, &r); err != nil {
		return nil, &MalformedReplyError{Reason: err.Error(), Got: obj}
	}
	return &r, nil
}

// Truthy reports whether raw holds a value other than null, false, 0 or "".
func Truthy(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	switch trimmed[0] {
	case 'n', 'f':
		return false
	case '"':
		return string(trimmed) != `""`
	case '{', '[', 't':
		return true
	default:
		n := parseNumber(trimmed)
		return n.Valid && n.Value != 0
	}
}
