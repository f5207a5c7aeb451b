package imagegen

import (
	"strings"

	errs "github.com/sweetpotato0/hfagents/errors"
)

// DefaultUnsupportedPhrases are the fragments of upstream error text that mean
// the backend cannot serve the requested model. Matching is case-insensitive.
var DefaultUnsupportedPhrases = []string{
	"not supported",
	"not found",
	"does not seem to be supported",
}

// Classifier decides whether a failed request should be retried against the
// fallback model.
//
// Structured errors win: anything wrapping errors.ErrUnsupportedModel (the
// inference client maps HTTP 404 to it) is unsupported. Otherwise the error
// text is matched against Phrases.
type Classifier struct {
	Phrases []string
}

// DefaultClassifier matches DefaultUnsupportedPhrases.
func DefaultClassifier() Classifier {
	return Classifier{Phrases: append([]string(nil), DefaultUnsupportedPhrases...)}
}

// Unsupported reports whether err means the model is unsupported or unknown.
func (c Classifier) Unsupported(err error) bool {
	if err == nil {
		return false
	}
	if errs.Is(err, errs.ErrUnsupportedModel) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range c.Phrases {
		if phrase != "" && strings.Contains(msg, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
