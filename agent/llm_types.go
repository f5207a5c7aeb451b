package agent

import (
	"context"

	"github.com/sweetpotato0/hfagents/message"
)

// LLMClient defines the interface for LLM providers
type LLMClient interface {
	// Generate produces the next assistant message for the conversation
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// SetTemperature updates the temperature setting for generation
	SetTemperature(temp float64)

	// SetMaxTokens updates the maximum tokens limit for generation
	SetMaxTokens(max int64)

	// SetModel updates the model to use for generation
	SetModel(model string)
}

// GenerateRequest bundles inputs for an LLM invocation.
type GenerateRequest struct {
	Messages []*message.Message
	// Tools are function definitions in the format of tool.Tool.ToJSONSchema.
	Tools []map[string]any
}

// GenerateResponse captures the LLM reply.
type GenerateResponse struct {
	Message *message.Message
}
