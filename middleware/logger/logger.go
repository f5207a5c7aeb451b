package logger

import (
	"log/slog"
	"time"

	"github.com/sweetpotato0/hfagents/middleware"
	"github.com/sweetpotato0/hfagents/pkg/logging"
)

const maxLoggedChars = 500

// RequestLogger logs incoming agent inputs
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger creates a request logging middleware. A nil logger uses
// the process logger.
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.WithComponent("agent")
	}
	return &RequestLogger{logger: logger}
}

// Name returns the middleware name
func (m *RequestLogger) Name() string {
	return "RequestLogger"
}

// Execute logs the request
func (m *RequestLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	m.logger.InfoContext(ctx.Context(), "agent request", "input", clip(ctx.Input))
	return next(ctx)
}

// ResponseLogger logs the final answer or error with the run duration
type ResponseLogger struct {
	logger *slog.Logger
}

// NewResponseLogger creates a response logging middleware. A nil logger uses
// the process logger.
func NewResponseLogger(logger *slog.Logger) *ResponseLogger {
	if logger == nil {
		logger = logging.WithComponent("agent")
	}
	return &ResponseLogger{logger: logger}
}

// Name returns the middleware name
func (m *ResponseLogger) Name() string {
	return "ResponseLogger"
}

// Execute logs the response
func (m *ResponseLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	start := time.Now()
	err := next(ctx)
	attrs := []any{"duration", time.Since(start), "iterations", ctx.Iterations}
	switch {
	case err != nil:
		m.logger.ErrorContext(ctx.Context(), "agent run failed", append(attrs, "error", err)...)
	case ctx.Response != nil:
		m.logger.InfoContext(ctx.Context(), "agent response", append(attrs, "output", clip(ctx.Response.Content))...)
	}
	return err
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxLoggedChars {
		return s
	}
	return string(r[:maxLoggedChars]) + "..."
}
