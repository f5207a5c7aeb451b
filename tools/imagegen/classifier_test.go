package imagegen

import (
	"errors"
	"fmt"
	"testing"

	errs "github.com/sweetpotato0/hfagents/errors"
	"github.com/sweetpotato0/hfagents/inference"
)

func TestClassifierUnsupported(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not found", errors.New("Model xyz not found"), true},
		{"upper case", errors.New("MODEL IS NOT SUPPORTED"), true},
		{"hub wording", errors.New("Model abc does not seem to be supported by HF Inference API"), true},
		{"rate limit", errors.New("rate limit reached"), false},
		{"timeout", errors.New("context deadline exceeded"), false},
		{"sentinel", fmt.Errorf("wrapped: %w", errs.ErrUnsupportedModel), true},
		{"api 404", &inference.APIError{Model: "x", StatusCode: 404, Message: "gone"}, true},
		{"api 500", &inference.APIError{Model: "x", StatusCode: 500, Message: "overloaded"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Unsupported(tt.err); got != tt.want {
				t.Errorf("Unsupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifierCustomPhrases(t *testing.T) {
	c := Classifier{Phrases: []string{"", "no such model"}}
	if !c.Unsupported(errors.New("No Such Model: foo")) {
		t.Error("expected custom phrase to match")
	}
	if c.Unsupported(errors.New("not found")) {
		t.Error("default phrases must not apply to a custom classifier")
	}
	if c.Unsupported(errors.New("anything")) {
		t.Error("empty phrase must not match everything")
	}
}
