package middleware

import (
	"context"
	"errors"
	"testing"
)

type recordingMiddleware struct {
	name  string
	err   error
	order *[]string
}

func (m *recordingMiddleware) Name() string { return m.name }

func (m *recordingMiddleware) Execute(ctx *Context, next Handler) error {
	*m.order = append(*m.order, m.name)
	if m.err != nil {
		return m.err
	}
	return next(ctx)
}

func TestMiddlewareChain(t *testing.T) {
	t.Run("empty chain executes final handler", func(t *testing.T) {
		chain := NewChain()
		executed := false

		err := chain.Execute(NewContext(context.Background()), func(ctx *Context) error {
			executed = true
			return nil
		})

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !executed {
			t.Error("final handler was not executed")
		}
	})

	t.Run("middleware chain executes in order", func(t *testing.T) {
		order := []string{}
		chain := NewChain(
			&recordingMiddleware{name: "m1", order: &order},
			nil,
			&recordingMiddleware{name: "m2", order: &order},
		)
		if chain.Len() != 2 {
			t.Fatalf("nil middleware should be skipped, len = %d", chain.Len())
		}

		_ = chain.Execute(NewContext(context.Background()), func(c *Context) error {
			order = append(order, "final")
			return nil
		})

		expected := []string{"m1", "m2", "final"}
		if len(order) != len(expected) {
			t.Fatalf("expected %d steps, got %v", len(expected), order)
		}
		for i, e := range expected {
			if order[i] != e {
				t.Errorf("expected step %d to be %s, got %s", i, e, order[i])
			}
		}
	})

	t.Run("error stops chain execution", func(t *testing.T) {
		order := []string{}
		chain := NewChain(
			&recordingMiddleware{name: "m1", err: errors.New("test error"), order: &order},
			&recordingMiddleware{name: "m2", order: &order},
		)

		finalCalled := false
		err := chain.Execute(NewContext(context.Background()), func(c *Context) error {
			finalCalled = true
			return nil
		})

		if err == nil {
			t.Error("expected error from middleware")
		}
		if finalCalled {
			t.Error("final handler should not be called after middleware error")
		}
		if len(order) != 1 {
			t.Errorf("m2 should not run, order = %v", order)
		}
	})
}

func TestContextDefaults(t *testing.T) {
	var c Context
	if c.Context() == nil {
		t.Error("zero Context should fall back to background context")
	}
	if NewContext(context.Background()).Metadata == nil {
		t.Error("metadata should be initialised")
	}
}

func TestListIsCopy(t *testing.T) {
	order := []string{}
	chain := NewChain(&recordingMiddleware{name: "m1", order: &order})
	list := chain.List()
	list[0] = nil
	if chain.List()[0] == nil {
		t.Error("List must return a copy")
	}
}
