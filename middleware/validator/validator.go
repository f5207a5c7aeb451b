package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	errs "github.com/sweetpotato0/hfagents/errors"
	"github.com/sweetpotato0/hfagents/message"
	"github.com/sweetpotato0/hfagents/middleware"
)

// ValidatorFunc validates input
type ValidatorFunc func(string) error

// FilterFunc transforms or filters responses
type FilterFunc func(*message.Message) error

// NonEmpty rejects blank input.
func NonEmpty(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("%w: input cannot be empty", errs.ErrInvalidInput)
	}
	return nil
}

// MaxLength rejects input longer than n characters.
func MaxLength(n int) ValidatorFunc {
	return func(input string) error {
		if utf8.RuneCountInString(input) > n {
			return fmt.Errorf("%w: input exceeds %d characters", errs.ErrInvalidInput, n)
		}
		return nil
	}
}

// All runs validators in order and returns the first failure.
func All(validators ...ValidatorFunc) ValidatorFunc {
	return func(input string) error {
		for _, v := range validators {
			if err := v(input); err != nil {
				return err
			}
		}
		return nil
	}
}

// InputValidator validates input before the agent runs
type InputValidator struct {
	validator ValidatorFunc
}

// NewInputValidator creates an input validation middleware
func NewInputValidator(validator ValidatorFunc) *InputValidator {
	return &InputValidator{validator: validator}
}

// Name returns the middleware name
func (m *InputValidator) Name() string {
	return "InputValidator"
}

// Execute validates the input
func (m *InputValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if m.validator != nil {
		if err := m.validator(ctx.Input); err != nil {
			ctx.Error = err
			return err
		}
	}
	return next(ctx)
}

// ResponseFilter filters or transforms the response
type ResponseFilter struct {
	filter FilterFunc
}

// NewResponseFilter creates a response filtering middleware
func NewResponseFilter(filter FilterFunc) *ResponseFilter {
	return &ResponseFilter{filter: filter}
}

// Name returns the middleware name
func (m *ResponseFilter) Name() string {
	return "ResponseFilter"
}

// Execute filters the response
func (m *ResponseFilter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if err := next(ctx); err != nil {
		return err
	}
	if ctx.Response != nil && m.filter != nil {
		return m.filter(ctx.Response)
	}
	return nil
}

// TrimResponse strips surrounding whitespace from the final answer.
func TrimResponse(msg *message.Message) error {
	msg.Content = strings.TrimSpace(msg.Content)
	return nil
}
