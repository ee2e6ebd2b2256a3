package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/story-proxy/pkg/chat"
	"github.com/jwebster45206/story-proxy/pkg/state"
)

const (
	QuestionMaxChars = state.QuestionMaxChars
	MaxStatDelta     = state.MaxStatDelta

	inputHeader = "INPUT(JSON):\n"
)

// RequestState is the slice of GameState the model sees. Endings carries
// only the ids already unlocked.
type RequestState struct {
	Turn    int         `json:"turn"`
	Chapter string      `json:"chapter"`
	Stats   state.Stats `json:"stats"`
	Flags   []string    `json:"flags"`
	Endings []string    `json:"endings"`
}

// Request is the body a client posts to the story endpoint.
type Request struct {
	State     RequestState  `json:"state"`
	Memory    *state.Memory `json:"memory"`
	UserInput string        `json:"user_input"`
}

// NewRequest builds the request for one turn from the current state.
func NewRequest(gs *state.GameState, userInput string) *Request {
	flags := gs.Flags
	if flags == nil {
		flags = []string{}
	}
	memory := gs.Memory
	if memory.Recent == nil {
		memory.Recent = []state.MemoryEntry{}
	}
	return &Request{
		State: RequestState{
			Turn:    gs.Turn,
			Chapter: gs.Chapter,
			Stats:   gs.Stats,
			Flags:   flags,
			Endings: gs.EndingIDs(),
		},
		Memory:    &memory,
		UserInput: userInput,
	}
}

// Input is the per-turn payload embedded under the system prompt. State and
// Memory are passed through as the client sent them; a nil Memory is
// encoded as null.
type Input struct {
	State     json.RawMessage `json:"state"`
	Memory    json.RawMessage `json:"memory"`
	UserInput string          `json:"user_input"`
}

// Input converts a typed request into the pass-through form.
func (r *Request) Input() (Input, error) {
	st, err := json.Marshal(r.State)
	if err != nil {
		return Input{}, fmt.Errorf("failed to marshal request state: %w", err)
	}
	var mem json.RawMessage
	if r.Memory != nil {
		if mem, err = json.Marshal(r.Memory); err != nil {
			return Input{}, fmt.Errorf("failed to marshal request memory: %w", err)
		}
	}
	return Input{State: st, Memory: mem, UserInput: r.UserInput}, nil
}

// Build returns the messages for one turn: the system prompt followed by
// the input as compact JSON.
func Build(in Input) ([]chat.ChatMessage, error) {
	if len(bytes.TrimSpace(in.Memory)) == 0 {
		in.Memory = nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(in); err != nil {
		return nil, fmt.Errorf("failed to encode turn input: %w", err)
	}

	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: SystemPrompt()},
		{Role: chat.ChatRoleUser, Content: inputHeader + string(bytes.TrimRight(buf.Bytes(), "\n"))},
	}, nil
}
