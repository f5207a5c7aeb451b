package message

import (
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(RoleUser, "Hello, world!")

	if msg.Role != RoleUser {
		t.Errorf("Expected role %s, got %s", RoleUser, msg.Role)
	}

	if msg.Content != "Hello, world!" {
		t.Errorf("Expected content 'Hello, world!', got '%s'", msg.Content)
	}

	if msg.ID == "" {
		t.Error("Expected non-empty ID")
	}

	if msg.CreatedAt.IsZero() {
		t.Error("Expected non-zero created time")
	}
}

func TestMessageIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewMessage(RoleUser, "x").ID
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestNewToolCallMessage(t *testing.T) {
	toolCalls := []ToolCall{
		{ID: "call1", Name: "image_generator", Args: map[string]any{"prompt": "a cat"}},
	}

	msg := NewToolCallMessage("", toolCalls)

	if msg.Role != RoleAssistant {
		t.Errorf("Expected role %s, got %s", RoleAssistant, msg.Role)
	}

	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].Name != "image_generator" {
		t.Errorf("unexpected tool calls: %+v", msg.ToolCalls)
	}
}

func TestNewToolResponseMessage(t *testing.T) {
	msg := NewToolResponseMessage("call1", "web_search", "result")

	if msg.Role != RoleTool {
		t.Errorf("Expected role %s, got %s", RoleTool, msg.Role)
	}

	if msg.Content != "result" || msg.ToolID != "call1" || msg.ToolName != "web_search" {
		t.Errorf("unexpected tool response: %+v", msg)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := NewToolCallMessage("", []ToolCall{{ID: "c", Name: "n", Args: map[string]any{"k": "v"}}})
	cloned := Clone(orig)

	cloned.ToolCalls[0].Args["k"] = "changed"
	if orig.ToolCalls[0].Args["k"] != "v" {
		t.Error("Clone shares tool call args with the original")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
