package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/sweetpotato0/hfagents/message"
	"github.com/sweetpotato0/hfagents/middleware"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestRequestLogger(t *testing.T) {
	l, buf := newBufferLogger()
	mw := NewRequestLogger(l)

	ctx := middleware.NewContext(context.Background())
	ctx.Input = "test input"
	if err := mw.Execute(ctx, func(c *middleware.Context) error { return nil }); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `input="test input"`) {
		t.Errorf("input not logged: %s", buf.String())
	}
}

func TestResponseLogger(t *testing.T) {
	t.Run("logs response output", func(t *testing.T) {
		l, buf := newBufferLogger()
		mw := NewResponseLogger(l)

		ctx := middleware.NewContext(context.Background())
		err := mw.Execute(ctx, func(c *middleware.Context) error {
			c.Response = message.NewMessage(message.RoleAssistant, "done")
			c.Iterations = 2
			return nil
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "output=done") || !strings.Contains(out, "iterations=2") {
			t.Errorf("unexpected log: %s", out)
		}
	})

	t.Run("logs and propagates errors", func(t *testing.T) {
		l, buf := newBufferLogger()
		mw := NewResponseLogger(l)

		want := errors.New("boom")
		err := mw.Execute(middleware.NewContext(context.Background()), func(c *middleware.Context) error { return want })
		if !errors.Is(err, want) {
			t.Errorf("expected error to propagate, got %v", err)
		}
		if !strings.Contains(buf.String(), "level=ERROR") {
			t.Errorf("expected error log: %s", buf.String())
		}
	})
}

func TestClip(t *testing.T) {
	long := strings.Repeat("x", maxLoggedChars+10)
	if got := clip(long); len(got) != maxLoggedChars+3 {
		t.Errorf("unexpected clipped length %d", len(got))
	}
	if clip("short") != "short" {
		t.Error("short strings must be unchanged")
	}
}
