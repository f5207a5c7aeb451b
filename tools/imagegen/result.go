package imagegen

import "fmt"

// Request is a single image generation call. Model, when set, overrides the
// tool's remembered model.
type Request struct {
	Prompt string
	Model  string
}

// Result is the outcome of a generation. Exactly one of SavedPath and Err is set.
type Result struct {
	Prompt    string
	SavedPath string
	ModelUsed string
	Fallback  bool

	// Reason is the user-visible failure text.
	Reason string
	// Err wraps one of the sentinel errors of package errors for callers
	// that want to branch on the failure kind.
	Err error
}

// OK reports whether an image was saved.
func (r Result) OK() bool {
	return r.Err == nil
}

// String renders the result the way the agent sees it.
func (r Result) String() string {
	if !r.OK() {
		return r.Reason
	}
	if r.Fallback {
		return fmt.Sprintf("Successfully saved image to %s with prompt: '%s' using fallback model: %s", r.SavedPath, r.Prompt, r.ModelUsed)
	}
	return fmt.Sprintf("Successfully saved image to %s with prompt: '%s' using model: %s", r.SavedPath, r.Prompt, r.ModelUsed)
}

func failure(err error, format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...), Err: err}
}
