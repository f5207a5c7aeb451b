package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sweetpotato0/hfagents/message"
	"github.com/sweetpotato0/hfagents/middleware"
	"github.com/sweetpotato0/hfagents/pkg/logging"
	"github.com/sweetpotato0/hfagents/pkg/telemetry"
	"github.com/sweetpotato0/hfagents/prompt"
	"github.com/sweetpotato0/hfagents/tool"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultSystemPrompt is used when WithSystemPrompt is not given.
const DefaultSystemPrompt = "You are an expert assistant who can solve any task using tool calls. " +
	"Call a tool whenever it helps, read its result, and when you have the answer reply with it directly without calling a tool."

// Agent represents an AI agent that answers by calling tools in a loop
type Agent struct {
	mu             sync.Mutex
	name           string
	systemPrompt   string
	maxIterations  int
	temperature    float64
	temperatureSet bool
	llm            LLMClient
	tools          *tool.Registry
	history        *history
	historySize    int
	middlewares    *middleware.MiddlewareChain
	logger         *slog.Logger
}

// Option is a function that configures an Agent
type Option func(*Agent)

// WithName sets the agent name
func WithName(name string) Option {
	return func(a *Agent) {
		a.name = name
	}
}

// WithSystemPrompt sets the system prompt
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithMaxIterations sets the maximum number of LLM round trips per run
func WithMaxIterations(max int) Option {
	return func(a *Agent) {
		if max > 0 {
			a.maxIterations = max
		}
	}
}

// WithTemperature sets the temperature for LLM generation
func WithTemperature(temp float64) Option {
	return func(a *Agent) {
		a.temperature = temp
		a.temperatureSet = true
	}
}

// WithProvider sets the LLM provider
func WithProvider(provider LLMClient) Option {
	return func(a *Agent) {
		a.llm = provider
	}
}

// WithTools registers tools. Duplicate names are ignored after the first.
func WithTools(tools ...*tool.Tool) Option {
	return func(a *Agent) {
		for _, t := range tools {
			if err := a.tools.Register(t); err != nil {
				a.logger.Warn("skipping tool", "error", err)
			}
		}
	}
}

// WithHistorySize bounds the number of messages kept in the conversation
func WithHistorySize(n int) Option {
	return func(a *Agent) {
		a.historySize = n
	}
}

// WithMiddleware adds a middleware to the agent
func WithMiddleware(m middleware.Middleware) Option {
	return func(a *Agent) {
		a.middlewares.Add(m)
	}
}

// WithMiddlewares sets the middleware chain
func WithMiddlewares(middlewares ...middleware.Middleware) Option {
	return func(a *Agent) {
		a.middlewares = middleware.NewChain(middlewares...)
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates a new agent with the given options
func New(opts ...Option) *Agent {
	agent := &Agent{
		name:          "Agent",
		systemPrompt:  DefaultSystemPrompt,
		maxIterations: 10,
		temperature:   0.7,
		tools:         tool.NewRegistry(),
		middlewares:   middleware.NewChain(),
		logger:        logging.WithComponent("agent"),
	}

	for _, opt := range opts {
		opt(agent)
	}

	agent.history = newHistory(agent.historySize)
	agent.seedSystemPrompt()
	if agent.llm != nil && agent.temperatureSet {
		agent.llm.SetTemperature(agent.temperature)
	}
	return agent
}

// Name returns the agent name
func (a *Agent) Name() string {
	return a.name
}

// RegisterTool registers a tool with the agent
func (a *Agent) RegisterTool(t *tool.Tool) error {
	return a.tools.Register(t)
}

// Tools returns the agent's tool registry
func (a *Agent) Tools() *tool.Registry {
	return a.tools
}

// AddMiddleware adds a middleware to the agent
func (a *Agent) AddMiddleware(m middleware.Middleware) error {
	if m == nil {
		return fmt.Errorf("middleware cannot be nil")
	}
	a.middlewares.Add(m)
	return nil
}

// GetMiddlewareChain returns the middleware chain
func (a *Agent) GetMiddlewareChain() *middleware.MiddlewareChain {
	return a.middlewares
}

// GetMessages returns a snapshot of the conversation
func (a *Agent) GetMessages() []*message.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history.all()
}

// ClearMessages clears the conversation, keeping the system prompt
func (a *Agent) ClearMessages() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history.reset()
	a.seedSystemPrompt()
}

// seedSystemPrompt renders the system prompt template with the registered
// tools and starts the conversation with it. A prompt that fails to render is
// used verbatim.
func (a *Agent) seedSystemPrompt() {
	if a.systemPrompt == "" {
		return
	}
	content, err := prompt.System(a.systemPrompt, prompt.SystemData{AgentName: a.name, Tools: a.tools.List()})
	if err != nil {
		a.logger.Warn("system prompt template failed", "error", err)
		content = a.systemPrompt
	}
	a.history.add(message.NewMessage(message.RoleSystem, content))
}

// Run executes the agent with the given input and returns the final answer.
// Runs on the same agent are serialized and share the conversation.
func (a *Agent) Run(ctx context.Context, input string) (answer string, err error) {
	if a.llm == nil {
		return "", fmt.Errorf("agent %s has no LLM provider", a.name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, span := telemetry.Tracer().Start(ctx, "agent.run")
	span.SetAttributes(attribute.String("agent.name", a.name))
	defer func() { telemetry.End(span, err) }()

	mwCtx := middleware.NewContext(ctx)
	mwCtx.Input = input

	err = a.middlewares.Execute(mwCtx, func(mwCtx *middleware.Context) error {
		a.history.add(message.NewMessage(message.RoleUser, input))
		mwCtx.Messages = a.history.all()

		for i := 0; i < a.maxIterations; i++ {
			mwCtx.Iterations = i + 1
			resp, err := a.llm.Generate(mwCtx.Context(), &GenerateRequest{
				Messages: a.history.all(),
				Tools:    a.tools.ToJSONSchemas(),
			})
			if err != nil {
				mwCtx.Error = fmt.Errorf("LLM generation failed: %w", err)
				return mwCtx.Error
			}
			if resp == nil || resp.Message == nil {
				mwCtx.Error = fmt.Errorf("LLM returned no message")
				return mwCtx.Error
			}

			response := resp.Message
			a.history.add(response)
			mwCtx.Response = response

			if len(response.ToolCalls) == 0 {
				return nil
			}

			for _, call := range response.ToolCalls {
				a.history.add(message.NewToolResponseMessage(call.ID, call.Name, a.executeTool(mwCtx.Context(), call)))
			}
		}

		mwCtx.Error = fmt.Errorf("max iterations (%d) reached", a.maxIterations)
		return mwCtx.Error
	})
	span.SetAttributes(attribute.Int("agent.iterations", mwCtx.Iterations))

	if err != nil {
		return "", err
	}
	if mwCtx.Response != nil {
		return mwCtx.Response.Content, nil
	}
	return "", fmt.Errorf("no response generated")
}

// executeTool runs one call. Failures become the tool's observation so the
// model can recover.
func (a *Agent) executeTool(ctx context.Context, call message.ToolCall) string {
	a.logger.Info("calling tool", "tool", call.Name, "args", call.Args)
	result, err := a.tools.Execute(ctx, call.Name, call.Args)
	if err != nil {
		a.logger.Warn("tool failed", "tool", call.Name, "error", err)
		return fmt.Sprintf("Error executing tool %s: %v", call.Name, err)
	}
	return result
}

// Clone creates a copy of the agent with the same configuration and an
// empty conversation
func (a *Agent) Clone() *Agent {
	opts := []Option{
		WithName(a.name),
		WithSystemPrompt(a.systemPrompt),
		WithMaxIterations(a.maxIterations),
		WithProvider(a.llm),
		WithHistorySize(a.historySize),
		WithLogger(a.logger),
		WithMiddlewares(a.middlewares.List()...),
		WithTools(a.tools.List()...),
	}
	cloned := New(opts...)
	cloned.temperature = a.temperature
	cloned.temperatureSet = a.temperatureSet
	return cloned
}
