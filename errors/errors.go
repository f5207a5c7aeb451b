package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingCredential indicates that no Hugging Face access token is configured
	ErrMissingCredential = errors.New("missing Hugging Face access token")

	// ErrUnsupportedModel indicates the inference backend cannot serve the requested model
	ErrUnsupportedModel = errors.New("model not supported")

	// ErrUpstream indicates any other failure reported by an upstream service
	ErrUpstream = errors.New("upstream failure")

	// ErrNoImageReturned indicates the inference backend answered with an empty payload
	ErrNoImageReturned = errors.New("no image was generated")
)

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
