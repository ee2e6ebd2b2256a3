package chat

import "testing"

func TestSplitSystem(t *testing.T) {
	messages := []ChatMessage{
		{Role: ChatRoleSystem, Content: "rules"},
		{Role: ChatRoleUser, Content: "input"},
		{Role: ChatRoleSystem, Content: "more rules"},
	}

	system, rest := SplitSystem(messages)

	if system != "rules\n\nmore rules" {
		t.Errorf("unexpected system prompt %q", system)
	}
	if len(rest) != 1 || rest[0].Content != "input" {
		t.Errorf("unexpected remaining messages %+v", rest)
	}
}

func TestFlatten(t *testing.T) {
	got := Flatten([]ChatMessage{
		{Role: ChatRoleSystem, Content: "SYSTEM"},
		{Role: ChatRoleUser, Content: "INPUT(JSON):\n{}"},
	})
	if got != "SYSTEM\n\nINPUT(JSON):\n{}" {
		t.Errorf("unexpected prompt %q", got)
	}
	if Flatten(nil) != "" {
		t.Error("expected empty prompt for no messages")
	}
}
