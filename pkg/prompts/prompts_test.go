package prompts

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jwebster45206/story-proxy/pkg/chat"
	"github.com/jwebster45206/story-proxy/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPrompt(t *testing.T) {
	p := SystemPrompt()

	for _, id := range EndingIDs {
		assert.Contains(t, p, id)
	}
	assert.Contains(t, p, "exactly 140")
	assert.Contains(t, p, "between -3 and +3")
	assert.Contains(t, p, "exactly ONE question")
	assert.Contains(t, p, `"flags_remove": string[]`)
	assert.NotContains(t, p, "%!")
}

func TestNewRequest(t *testing.T) {
	gs := state.NewGameState()
	gs.Turn = 3
	gs.Flags = []string{"met_mira"}
	gs.Memory.Push(state.RoleAI, "hello")
	gs.RecordEnding(&state.End{EndingID: "E_NORMAL_02", Title: "t", Summary: "s"})

	req := NewRequest(gs, "open the door")
	data, err := json.Marshal(req)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"state": {
			"turn": 3,
			"chapter": "BOOK1_CH01",
			"stats": {"sanity": 5, "stamina": 5, "luck": 5},
			"flags": ["met_mira"],
			"endings": ["E_NORMAL_02"]
		},
		"memory": {"summary": "", "recent": [{"role": "ai", "text": "hello"}]},
		"user_input": "open the door"
	}`, string(data))
}

func TestNewRequest_DoesNotAliasMemory(t *testing.T) {
	gs := state.NewGameState()
	req := NewRequest(gs, "x")
	req.Memory.Summary = "changed"
	assert.Equal(t, "", gs.Memory.Summary)
}

func TestBuild(t *testing.T) {
	msgs, err := Build(Input{
		State:     json.RawMessage(`{ "turn" : 1 }`),
		UserInput: "<go> & look",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, chat.ChatRoleSystem, msgs[0].Role)
	assert.Equal(t, SystemPrompt(), msgs[0].Content)

	assert.Equal(t, chat.ChatRoleUser, msgs[1].Role)
	assert.Equal(t, `INPUT(JSON):
{"state":{"turn":1},"memory":null,"user_input":"<go> & look"}`, msgs[1].Content)
}

func TestBuild_FromRequest(t *testing.T) {
	in, err := NewRequest(state.NewGameState(), state.StartMarker).Input()
	require.NoError(t, err)

	msgs, err := Build(in)
	require.NoError(t, err)

	body := strings.TrimPrefix(msgs[1].Content, "INPUT(JSON):\n")
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, state.StartMarker, decoded["user_input"])
	assert.NotNil(t, decoded["memory"])
}
