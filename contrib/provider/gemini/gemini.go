package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/sweetpotato0/hfagents/agent"
	"github.com/sweetpotato0/hfagents/message"
	"github.com/sweetpotato0/hfagents/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/option"
)

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

// Provider implements agent.LLMClient for Google Gemini
type Provider struct {
	config *Config
	opts   []option.ClientOption

	mu     sync.Mutex
	client *genai.Client
}

// New creates a new Gemini provider. The SDK client is created on first use.
func New(config *Config, opts ...option.ClientOption) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}
	return &Provider{config: config, opts: opts}
}

func (p *Provider) genaiClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(p.config.APIKey)}, p.opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	p.client = client
	return client, nil
}

// Close releases the SDK client.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}

// Generate implements agent.LLMClient
func (p *Provider) Generate(ctx context.Context, req *agent.GenerateRequest) (resp *agent.GenerateResponse, err error) {
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}

	ctx, span := telemetry.Tracer().Start(ctx, "llm.generate")
	span.SetAttributes(attribute.String("llm.provider", "gemini"), attribute.String("llm.model", p.config.Model))
	defer func() { telemetry.End(span, err) }()

	client, err := p.genaiClient(ctx)
	if err != nil {
		return nil, err
	}

	system, contents := encodeMessages(req.Messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("no conversation to send")
	}

	model := client.GenerativeModel(p.config.Model)
	model.SetTemperature(p.config.Temperature)
	if p.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(p.config.MaxTokens))
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if decls := encodeTools(req.Tools); len(decls) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]
	result, err := chat.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in response")
	}

	return &agent.GenerateResponse{Message: decodeContent(result.Candidates[0].Content)}, nil
}

// SetTemperature updates the temperature setting
func (p *Provider) SetTemperature(temp float64) {
	p.config.Temperature = float32(temp)
}

// SetMaxTokens updates the max tokens setting
func (p *Provider) SetMaxTokens(max int64) {
	p.config.MaxTokens = int(max)
}

// SetModel updates the model
func (p *Provider) SetModel(model string) {
	p.config.Model = model
}

// encodeMessages converts the conversation into Gemini turns. Consecutive
// turns of the same role are merged.
func encodeMessages(messages []*message.Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content

	appendParts := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			system = append(system, msg.Content)
		case message.RoleUser:
			appendParts("user", genai.Text(msg.Content))
		case message.RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: tc.Args})
			}
			appendParts("model", parts...)
		case message.RoleTool:
			appendParts("user", genai.FunctionResponse{
				Name:     msg.ToolName,
				Response: map[string]any{"result": msg.Content},
			})
		}
	}
	return strings.Join(system, "\n"), contents
}

func decodeContent(content *genai.Content) *message.Message {
	var text []string
	var calls []message.ToolCall
	for _, part := range content.Parts {
		switch v := part.(type) {
		case genai.Text:
			text = append(text, string(v))
		case genai.FunctionCall:
			args := v.Args
			if args == nil {
				args = map[string]any{}
			}
			calls = append(calls, message.ToolCall{ID: "call_" + uuid.NewString(), Name: v.Name, Args: args})
		}
	}
	msg := message.NewMessage(message.RoleAssistant, strings.Join(text, ""))
	msg.ToolCalls = calls
	return msg
}

// encodeTools converts tool.Tool.ToJSONSchema definitions.
func encodeTools(tools []map[string]any) []*genai.FunctionDeclaration {
	var decls []*genai.FunctionDeclaration
	for _, t := range tools {
		fn, _ := t["function"].(map[string]any)
		if fn == nil {
			continue
		}
		name, _ := fn["name"].(string)
		desc, _ := fn["description"].(string)
		decl := &genai.FunctionDeclaration{Name: name, Description: desc}
		if params, ok := fn["parameters"].(map[string]any); ok {
			decl.Parameters = schemaFromMap(params)
		}
		decls = append(decls, decl)
	}
	return decls
}

// schemaFromMap converts a JSON schema object into a genai.Schema. A type
// union with "null" becomes a nullable schema.
func schemaFromMap(m map[string]any) *genai.Schema {
	s := &genai.Schema{}
	switch t := m["type"].(type) {
	case string:
		s.Type = schemaType(t)
	case []string:
		for _, name := range t {
			if name == "null" {
				s.Nullable = true
			} else {
				s.Type = schemaType(name)
			}
		}
	case []any:
		for _, raw := range t {
			name, _ := raw.(string)
			if name == "null" {
				s.Nullable = true
			} else {
				s.Type = schemaType(name)
			}
		}
	}
	s.Description, _ = m["description"].(string)

	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				s.Properties[name] = schemaFromMap(sub)
			}
		}
	}
	switch req := m["required"].(type) {
	case []string:
		s.Required = req
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		s.Items = schemaFromMap(items)
	}
	switch enum := m["enum"].(type) {
	case []string:
		s.Enum = enum
	case []any:
		for _, e := range enum {
			if v, ok := e.(string); ok {
				s.Enum = append(s.Enum, v)
			}
		}
	}
	return s
}

func schemaType(name string) genai.Type {
	switch name {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}
