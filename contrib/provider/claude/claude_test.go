package claude

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sweetpotato0/hfagents/agent"
	"github.com/sweetpotato0/hfagents/message"
	"github.com/sweetpotato0/hfagents/tool"
)

const toolUseResponse = `{
  "id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
  "stop_reason": "tool_use", "stop_sequence": null,
  "usage": {"input_tokens": 1, "output_tokens": 1},
  "content": [
    {"type": "text", "text": "Let me draw that."},
    {"type": "tool_use", "id": "toolu_1", "name": "image_generator", "input": {"prompt": "a red bicycle"}}
  ]
}`

func TestGenerateToolUse(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, toolUseResponse)
	}))
	defer srv.Close()

	p := New(&Config{APIKey: "key", BaseURL: srv.URL, Model: "claude-test"})
	imageTool := &tool.Tool{
		Name:        "image_generator",
		Description: "makes images",
		Parameters:  []tool.Parameter{{Name: "prompt", Type: "string", Required: true}},
	}

	resp, err := p.Generate(context.Background(), &agent.GenerateRequest{
		Messages: []*message.Message{
			message.NewMessage(message.RoleSystem, "sys"),
			message.NewMessage(message.RoleUser, "draw a bicycle"),
		},
		Tools: []map[string]any{imageTool.ToJSONSchema()},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	system, _ := body["system"].([]any)
	if len(system) != 1 {
		t.Errorf("expected system prompt block, got %v", body["system"])
	}
	tools, _ := body["tools"].([]any)
	if len(tools) != 1 || tools[0].(map[string]any)["name"] != "image_generator" {
		t.Errorf("unexpected tools %v", body["tools"])
	}

	if resp.Message.Content != "Let me draw that." {
		t.Errorf("unexpected text %q", resp.Message.Content)
	}
	calls := resp.Message.ToolCalls
	if len(calls) != 1 || calls[0].ID != "toolu_1" || calls[0].Args["prompt"] != "a red bicycle" {
		t.Errorf("unexpected tool calls %+v", calls)
	}
}

func TestEncodeMessagesMergesToolResults(t *testing.T) {
	system, msgs, err := encodeMessages([]*message.Message{
		message.NewMessage(message.RoleSystem, "a"),
		message.NewMessage(message.RoleSystem, "b"),
		message.NewMessage(message.RoleUser, "go"),
		message.NewToolCallMessage("", []message.ToolCall{
			{ID: "t1", Name: "web_search", Args: map[string]any{"query": "x"}},
			{ID: "t2", Name: "visit_webpage", Args: map[string]any{"url": "y"}},
		}),
		message.NewToolResponseMessage("t1", "web_search", "r1"),
		message.NewToolResponseMessage("t2", "visit_webpage", "Error fetching the webpage: boom"),
		message.NewMessage(message.RoleAssistant, "done"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if system != "a\nb" {
		t.Errorf("unexpected system %q", system)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected user, assistant, merged tool results, assistant; got %d", len(msgs))
	}
	if got := len(msgs[2].Content); got != 2 {
		t.Errorf("expected both tool results in one turn, got %d blocks", got)
	}
	if msgs[2].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("unexpected roles %s %s", msgs[1].Role, msgs[2].Role)
	}
}
