package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sweetpotato0/hfagents/tool"
)

func newTestRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(r.Register(&tool.Tool{
		Name:        "echo",
		Description: "Echo the text",
		Parameters:  []tool.Parameter{{Name: "text", Type: "string", Required: true}},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "echo: " + args["text"].(string), nil
		},
	}))
	must(r.Register(&tool.Tool{
		Name:        "fail",
		Description: "Always fails",
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("kaput")
		},
	}))
	return r
}

func connect(t *testing.T, s *Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	if _, err := s.Connect(ctx, serverTransport); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestServerListsAndCallsTools(t *testing.T) {
	s := NewServer("hfagent", "test", newTestRegistry(t), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	session := connect(t, s)
	ctx := context.Background()

	list, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(list.Tools) != 2 || list.Tools[0].Name != "echo" {
		t.Fatalf("unexpected tools %+v", list.Tools)
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "echo", Arguments: map[string]any{"text": "hi"}})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError || len(res.Content) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if text, ok := res.Content[0].(*sdkmcp.TextContent); !ok || text.Text != "echo: hi" {
		t.Errorf("unexpected content %#v", res.Content[0])
	}
}

func TestServerReportsToolErrors(t *testing.T) {
	s := NewServer("hfagent", "test", newTestRegistry(t), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	session := connect(t, s)

	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: "fail", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result")
	}
	if text, ok := res.Content[0].(*sdkmcp.TextContent); !ok || text.Text != "kaput" {
		t.Errorf("unexpected content %#v", res.Content[0])
	}
}
