package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/story-proxy/pkg/chat"
	"github.com/jwebster45206/story-proxy/pkg/extract"
	"github.com/jwebster45206/story-proxy/pkg/prompts"
	"github.com/jwebster45206/story-proxy/pkg/state"
)

func TestHTTPProxy_Story(t *testing.T) {
	var got map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, StoryPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"narration":"ok"}`))
	}))
	defer server.Close()

	p := NewHTTPProxy(server.URL+"/", time.Second, testLogger())
	raw, err := p.Story(context.Background(), prompts.NewRequest(state.NewGameState(), "hello"))
	require.NoError(t, err)
	assert.Equal(t, `{"narration":"ok"}`, raw)

	assert.JSONEq(t, `"hello"`, string(got["user_input"]))
	assert.JSONEq(t, `{"turn":0,"chapter":"BOOK1_CH01","stats":{"sanity":5,"stamina":5,"luck":5},"flags":[],"endings":[]}`, string(got["state"]))
	assert.JSONEq(t, `{"summary":"","recent":[]}`, string(got["memory"]))
}

func TestHTTPProxy_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		checkFn func(t *testing.T, err error)
	}{
		{
			name:   "invalid json reply",
			status: http.StatusBadGateway,
			body:   `{"error":"AI returned invalid JSON","raw":"I cannot comply"}`,
			checkFn: func(t *testing.T, err error) {
				var unusable *state.UnusableReplyError
				require.ErrorAs(t, err, &unusable)
				assert.Equal(t, "I cannot comply", unusable.Raw)
				assert.ErrorIs(t, err, extract.ErrUnusable)
			},
		},
		{
			name:   "missing keys",
			status: http.StatusBadGateway,
			body:   `{"error":"AI JSON missing required keys","got":{"narration":"x","cast":{}}}`,
			checkFn: func(t *testing.T, err error) {
				var malformed *state.MalformedReplyError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, []string{"status", "delta"}, malformed.Missing)
				assert.JSONEq(t, `{"narration":"x","cast":{}}`, string(malformed.Got))
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":"Missing GEMINI_API_KEY env var"}`,
			checkFn: func(t *testing.T, err error) {
				var pe *ProxyError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
				assert.Equal(t, "Missing GEMINI_API_KEY env var", pe.Message)
			},
		},
		{
			name:   "plain text error",
			status: http.StatusServiceUnavailable,
			body:   "upstream down\n",
			checkFn: func(t *testing.T, err error) {
				var pe *ProxyError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "upstream down", pe.Message)
			},
		},
		{
			name:   "empty error body",
			status: http.StatusTooManyRequests,
			body:   "",
			checkFn: func(t *testing.T, err error) {
				var pe *ProxyError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "API Error", pe.Message)
				assert.True(t, strings.Contains(pe.Error(), "429"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewHTTPProxy(server.URL, time.Second, testLogger())
			_, err := p.Story(context.Background(), prompts.NewRequest(state.NewGameState(), "x"))
			require.Error(t, err)
			tt.checkFn(t, err)
		})
	}
}

type fakeChatter struct {
	messages []chat.ChatMessage
	reply    string
	err      error
}

func (f *fakeChatter) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &chat.ChatResponse{Message: f.reply}, nil
}

func TestLLMProxy_Story(t *testing.T) {
	llm := &fakeChatter{reply: "raw reply"}
	p := NewLLMProxy(llm)

	raw, err := p.Story(context.Background(), prompts.NewRequest(state.NewGameState(), "문을 연다"))
	require.NoError(t, err)
	assert.Equal(t, "raw reply", raw)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, chat.ChatRoleSystem, llm.messages[0].Role)
	assert.Equal(t, prompts.SystemPrompt(), llm.messages[0].Content)
	assert.True(t, strings.HasPrefix(llm.messages[1].Content, "INPUT(JSON):\n{"))
	assert.Contains(t, llm.messages[1].Content, `"user_input":"문을 연다"`)
}

func TestLLMProxy_ErrorPassesThrough(t *testing.T) {
	want := assert.AnError
	p := NewLLMProxy(&fakeChatter{err: want})
	_, err := p.Story(context.Background(), prompts.NewRequest(state.NewGameState(), "x"))
	assert.Same(t, want, err)
}
