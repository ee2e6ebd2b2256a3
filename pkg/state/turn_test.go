package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameState_NextTurn(t *testing.T) {
	gs := NewGameState()
	gs.Turn = 4

	tests := []struct {
		name string
		turn Number
		want int
	}{
		{"reported", Num(9), 9},
		{"reported fraction", Num(6.8), 6},
		{"absent", Number{}, 5},
		{"zero falls back", Num(0), 5},
		{"negative falls back", Num(-2), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gs.NextTurn(&TurnResult{Turn: tt.turn}))
		})
	}
	assert.Equal(t, 5, gs.NextTurn(nil))
}

func TestGameState_Advance(t *testing.T) {
	gs := NewGameState()
	r, err := DecodeReply(validReply)
	require.NoError(t, err)

	ended := gs.Advance("follow the bell", r)

	assert.False(t, ended)
	assert.Equal(t, 4, gs.Turn)
	assert.Equal(t, "BOOK1_CH02", gs.Chapter)
	assert.Equal(t, Stats{Sanity: 4, Stamina: 5, Luck: 7}, gs.Stats)
	assert.Equal(t, []string{"heard_bell"}, gs.Flags)
	assert.Equal(t, []MemoryEntry{
		{Role: RoleUser, Text: "follow the bell"},
		{Role: RoleAI, Text: r.Narration},
	}, gs.Memory.Recent)
	assert.Equal(t, "종소리를 따라갔다", gs.Memory.Summary)
	assert.Equal(t, r, gs.LastAI)
	assert.NotSame(t, r, gs.LastAI)
}

func TestGameState_AdvanceKeepsChapterWhenBlank(t *testing.T) {
	gs := NewGameState()
	gs.Advance(StartMarker, &TurnResult{Narration: "n", Delta: []byte(`{}`)})

	assert.Equal(t, DefaultChapter, gs.Chapter)
	assert.Equal(t, 1, gs.Turn)
}

func TestGameState_AdvanceRecordsEndingAtNewTurn(t *testing.T) {
	gs := NewGameState()
	gs.Turn = 10

	ended := gs.Advance("accept fate", &TurnResult{
		Turn:      Num(11),
		Narration: "The lights go out.",
		Delta:     []byte(`{}`),
		End:       &End{EndingID: "E_BAD_01", Title: "Darkness"},
	})

	assert.True(t, ended)
	assert.True(t, gs.Ended())
	assert.Equal(t, Ending{Unlocked: true, Title: "Darkness", AtTurn: 11}, gs.Endings["E_BAD_01"])
}
