package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/sweetpotato0/hfagents/agent"
	"github.com/sweetpotato0/hfagents/message"
	"github.com/sweetpotato0/hfagents/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds Claude provider configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int64
	Temperature float64
}

// DefaultConfig returns default Claude configuration
func DefaultConfig(apiKey, baseURL string) *Config {
	return &Config{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// Provider implements agent.LLMClient for Claude
type Provider struct {
	config *Config
	client anthropic.Client
}

// New creates a new Claude provider using official SDK
func New(config *Config, opts ...option.RequestOption) *Provider {
	if config == nil {
		config = DefaultConfig("", "")
	}
	if config.Model == "" {
		config.Model = "claude-sonnet-4-5-20250929"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}

	options := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, option.WithBaseURL(config.BaseURL))
	}
	options = append(options, opts...)

	return &Provider{
		config: config,
		client: anthropic.NewClient(options...),
	}
}

// Generate implements agent.LLMClient
func (p *Provider) Generate(ctx context.Context, req *agent.GenerateRequest) (resp *agent.GenerateResponse, err error) {
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}

	ctx, span := telemetry.Tracer().Start(ctx, "llm.generate")
	span.SetAttributes(attribute.String("llm.provider", "anthropic"), attribute.String("llm.model", p.config.Model))
	defer func() { telemetry.End(span, err) }()

	system, conversation, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.config.Model),
		Messages:  conversation,
		MaxTokens: p.config.MaxTokens,
		Tools:     encodeTools(req.Tools),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if p.config.Temperature > 0 {
		params.Temperature = param.NewOpt(p.config.Temperature)
	}

	apiMessage, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	var text []string
	var toolCalls []message.ToolCall
	for _, content := range apiMessage.Content {
		switch content.Type {
		case "text":
			text = append(text, content.Text)
		case "tool_use":
			args := map[string]any{}
			if len(content.Input) > 0 {
				if err := json.Unmarshal(content.Input, &args); err != nil {
					return nil, fmt.Errorf("failed to parse tool input: %w", err)
				}
			}
			toolCalls = append(toolCalls, message.ToolCall{ID: content.ID, Name: content.Name, Args: args})
		}
	}

	responseMsg := message.NewMessage(message.RoleAssistant, strings.Join(text, "\n"))
	responseMsg.ToolCalls = toolCalls
	return &agent.GenerateResponse{Message: responseMsg}, nil
}

// SetTemperature updates the temperature setting
func (p *Provider) SetTemperature(temp float64) {
	p.config.Temperature = temp
}

// SetMaxTokens updates the max tokens setting
func (p *Provider) SetMaxTokens(max int64) {
	p.config.MaxTokens = max
}

// SetModel updates the model
func (p *Provider) SetModel(model string) {
	p.config.Model = model
}

// encodeMessages splits out the system prompt and converts the rest.
// Consecutive tool responses are merged into one user turn as the Messages
// API requires.
func encodeMessages(messages []*message.Message) (string, []anthropic.MessageParam, error) {
	var system []string
	out := make([]anthropic.MessageParam, 0, len(messages))
	pendingResults := []anthropic.ContentBlockParamUnion{}

	flush := func() {
		if len(pendingResults) > 0 {
			out = append(out, anthropic.NewUserMessage(pendingResults...))
			pendingResults = []anthropic.ContentBlockParamUnion{}
		}
	}

	for _, msg := range messages {
		if msg.Role != message.RoleTool {
			flush()
		}
		switch msg.Role {
		case message.RoleSystem:
			system = append(system, msg.Content)
		case message.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case message.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				args := tc.Args
				if args == nil {
					args = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, args, tc.Name))
			}
			if len(blocks) == 0 {
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case message.RoleTool:
			isError := strings.HasPrefix(msg.Content, "Error")
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(msg.ToolID, msg.Content, isError))
		default:
			return "", nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}
	flush()
	return strings.Join(system, "\n"), out, nil
}

// encodeTools converts tool.Tool.ToJSONSchema definitions.
func encodeTools(tools []map[string]any) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		fn, _ := t["function"].(map[string]any)
		if fn == nil {
			continue
		}
		name, _ := fn["name"].(string)
		toolParam := anthropic.ToolParam{Name: name}
		if desc, _ := fn["description"].(string); desc != "" {
			toolParam.Description = param.NewOpt(desc)
		}
		if params, ok := fn["parameters"].(map[string]any); ok {
			toolParam.InputSchema.Properties = params["properties"]
			if required, ok := params["required"].([]string); ok {
				toolParam.InputSchema.Required = required
			}
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}
