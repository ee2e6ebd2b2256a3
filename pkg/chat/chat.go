package chat

import "strings"

const (
	ChatRoleUser   = "user"      // Player input and per-turn context
	ChatRoleAgent  = "assistant" // Model output
	ChatRoleSystem = "system"    // Fixed instructions
)

// ChatMessage is a single message sent to an LLM provider.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse carries the raw text an LLM produced.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
}

// SplitSystem separates system messages, joined into one prompt, from the
// rest of the conversation.
func SplitSystem(messages []ChatMessage) (string, []ChatMessage) {
	var systemParts []string
	var rest []ChatMessage

	for _, msg := range messages {
		if msg.Role == ChatRoleSystem {
			systemParts = append(systemParts, msg.Content)
		} else {
			rest = append(rest, msg)
		}
	}

	return strings.Join(systemParts, "\n\n"), rest
}

// Flatten joins every message into a single prompt, in order, separated by
// blank lines. Providers that take one text prompt use this.
func Flatten(messages []ChatMessage) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n\n")
}
