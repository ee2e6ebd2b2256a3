package extract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "bare object", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "surrounding prose", raw: `prefix {"a":1} suffix`, want: `{"a":1}`},
		{name: "json fence", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "upper case fence tag", raw: "```JSON\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "untagged fence", raw: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "fence with outer whitespace", raw: "  \n```json {\"a\":1}```  \n", want: `{"a":1}`},
		{name: "nested braces", raw: `Here: {"a":{"b":{"c":[1,2]}}} done`, want: `{"a":{"b":{"c":[1,2]}}}`},
		{name: "empty", raw: "", wantErr: ErrEmpty},
		{name: "whitespace only", raw: "   ", wantErr: ErrNoObject},
		{name: "no brace", raw: "I cannot answer that.", wantErr: ErrNoObject},
		{name: "only opening brace", raw: "{ oops", wantErr: ErrNoObject},
		{name: "closing before opening", raw: "} then {", wantErr: ErrNoObject},
		{name: "broken json", raw: `{"a":}`, wantErr: ErrInvalidJSON},
		{name: "two objects", raw: `{"a":1} and {"b":2}`, wantErr: ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Object(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				assert.True(t, errors.Is(err, ErrUnusable))
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestObject_FencedEqualsUnwrapped(t *testing.T) {
	payloads := []string{
		`{"turn":3,"narration":"안개가 걷힌다.","delta":{"stats":{"luck":1}}}`,
		`{"list":[{"x":1},{"y":"}"}],"s":"{"}`,
		`{}`,
	}

	for _, p := range payloads {
		var direct any
		require.NoError(t, json.Unmarshal([]byte(p), &direct))

		for _, wrapped := range []string{
			"```json\n" + p + "\n```",
			"```\n" + p + "\n```",
			"```Json" + p + "```",
		} {
			var extracted any
			require.NoError(t, Into(wrapped, &extracted), wrapped)
			assert.Equal(t, direct, extracted)
		}
	}
}

func TestInto(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	require.NoError(t, Into(`noise {"a":7} noise`, &v))
	assert.Equal(t, 7, v.A)

	var wrongShape struct {
		A int `json:"a"`
	}
	err := Into(`{"a":"seven"}`, &wrongShape)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "abc", Excerpt("abc", 10))
	assert.Equal(t, "ab", Excerpt("abc", 2))
	assert.Equal(t, "", Excerpt("abc", 0))

	korean := strings.Repeat("가", 5)
	assert.Equal(t, "가가가", Excerpt(korean, 3))
}
