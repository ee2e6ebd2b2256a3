package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodReply = `{"turn":2,"chapter":"BOOK1_CH01","narration":"Tobin points at the stairs.","cast":{"active":{"id":"tobin","name":"Tobin","expression":"worried"},"others":[{"id":"mireille","name":"Mireille","expression":"neutral"}]},"status":{"place":"Stairwell","time":"dusk","summary":"Found the stairs"},"question":{"text":"Climb?","input_hint":"yes/no","max_chars":140},"delta":{},"end":null}`

func TestValidateReply(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr []string
	}{
		{name: "valid", raw: goodReply},
		{name: "fenced", raw: "```json\n" + goodReply + "\n```"},
		{
			name:    "not json",
			raw:     "no story today",
			wantErr: []string{"invalid JSON"},
		},
		{
			name:    "missing keys",
			raw:     `{"narration":"x"}`,
			wantErr: []string{"missing required keys"},
		},
		{
			name:    "bad ids and canon",
			raw:     `{"chapter":"chapter one","narration":"Harry waves.","cast":{"active":{"id":"Tobin-1","name":"Ron","expression":"Very Sad"},"others":[]},"status":{"place":"x"},"question":{"text":"?","max_chars":200},"delta":{},"end":{"endingId":"E_MADE_UP","title":"?"}}`,
			wantErr: []string{"chapter 'chapter one'", "cast.active id 'Tobin-1'", "expression 'Very Sad'", "canon character name", "max_chars is 200", "E_MADE_UP", "narration mentions"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidator().ValidateReply(tt.raw)
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestValidateSave(t *testing.T) {
	v := NewValidator()

	err := v.ValidateSave([]byte(`{"turn":3,"chapter":"BOOK1_CH02","flags":["met_tobin"],"endings":{"E_BAD_01":{"unlocked":true,"title":"Lost","atTurn":3}},"lastAI":` + goodReply + `}`))
	assert.NoError(t, err)

	err = v.ValidateSave([]byte(`{"turn":"three"}`))
	assert.Error(t, err)

	err = v.ValidateSave([]byte(`{"turn":1,"flags":["Bad Flag"],"endings":{"E_BAD_01":{"unlocked":false,"atTurn":5}},"memory":{"summary":"","recent":[{"role":"narrator","text":"x"}]}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flag 'Bad Flag'")
	assert.Contains(t, err.Error(), "not unlocked")
	assert.Contains(t, err.Error(), "after the current turn")
	assert.Contains(t, err.Error(), "unknown role 'narrator'")
}
