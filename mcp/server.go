// Package mcp serves a tool registry over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sweetpotato0/hfagents/pkg/logging"
	"github.com/sweetpotato0/hfagents/tool"
)

// Option configures a Server.
type Option func(*Server)

// WithTitle sets the human readable server title.
func WithTitle(title string) Option {
	return func(s *Server) {
		s.title = title
	}
}

// WithInstructions sets the instructions advertised to clients.
func WithInstructions(instructions string) Option {
	return func(s *Server) {
		s.instructions = instructions
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server exposes every tool of a registry as an MCP tool.
type Server struct {
	name         string
	version      string
	title        string
	instructions string
	registry     *tool.Registry
	logger       *slog.Logger
	sdk          *sdkmcp.Server
}

// NewServer creates a server for the tools currently in registry.
func NewServer(name, version string, registry *tool.Registry, opts ...Option) *Server {
	s := &Server{
		name:     name,
		version:  version,
		registry: registry,
		logger:   logging.WithComponent("mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}

	var serverOpts *sdkmcp.ServerOptions
	if s.instructions != "" {
		serverOpts = &sdkmcp.ServerOptions{Instructions: s.instructions}
	}
	s.sdk = sdkmcp.NewServer(&sdkmcp.Implementation{Name: name, Title: s.title, Version: version}, serverOpts)

	for _, t := range registry.List() {
		s.sdk.AddTool(&sdkmcp.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema(),
		}, s.handler(t.Name))
	}
	return s
}

func (s *Server) handler(name string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		args := map[string]any{}
		if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fmt.Errorf("decode arguments: %w", err)), nil
			}
		}

		s.logger.Info("mcp tool call", "tool", name)
		out, err := s.registry.Execute(ctx, name, args)
		if err != nil {
			s.logger.Warn("mcp tool failed", "tool", name, "error", err)
			return errorResult(err), nil
		}
		return &sdkmcp.CallToolResult{Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: out}}}, nil
	}
}

func errorResult(err error) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: err.Error()}},
	}
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "name", s.name, "version", s.version, "tools", s.registry.Len())
	return s.sdk.Run(ctx, &sdkmcp.StdioTransport{})
}

// Connect serves a single session over transport.
func (s *Server) Connect(ctx context.Context, transport sdkmcp.Transport) (*sdkmcp.ServerSession, error) {
	return s.sdk.Connect(ctx, transport, nil)
}
