// Package hubmodel implements model_download_tool, which names the most
// downloaded Hub checkpoint for a task.
package hubmodel

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/hfagents/config"
	errs "github.com/sweetpotato0/hfagents/errors"
	"github.com/sweetpotato0/hfagents/hub"
	"github.com/sweetpotato0/hfagents/pkg/logging"
	"github.com/sweetpotato0/hfagents/tool"
)

// Name is the tool name exposed to agents.
const Name = "model_download_tool"

// ReliableImageModels are text-to-image checkpoints known to be served by the
// inference backend, best first.
var ReliableImageModels = []string{
	"stabilityai/stable-diffusion-xl-base-1.0",
	"runwayml/stable-diffusion-v1-5",
	"stabilityai/stable-diffusion-2-1",
	"CompVis/stable-diffusion-v1-4",
}

// Lister lists Hub models.
type Lister = hub.Lister

// Finder resolves a task to a model id.
type Finder struct {
	lister   Lister
	reliable []string
	fallback string
	logger   *slog.Logger
}

// Option configures a Finder.
type Option func(*Finder)

// WithReliableModels replaces the image shortcut list. An empty list makes
// every task go to the Hub.
func WithReliableModels(models []string) Option {
	return func(f *Finder) {
		f.reliable = models
	}
}

// WithFallback sets the id returned when the Hub has nothing.
func WithFallback(model string) Option {
	return func(f *Finder) {
		if model != "" {
			f.fallback = model
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Finder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Finder over lister.
func New(lister Lister, opts ...Option) *Finder {
	f := &Finder{
		lister:   lister,
		reliable: ReliableImageModels,
		fallback: config.DefaultImageModel,
		logger:   logging.WithComponent("hubmodel"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find returns a model id for task. It never fails: Hub errors and empty
// listings resolve to the fallback model.
func (f *Finder) Find(ctx context.Context, task string) string {
	if len(f.reliable) > 0 && strings.Contains(strings.ToLower(task), "image") {
		return f.reliable[0]
	}

	model, err := hub.MostDownloaded(ctx, f.lister, task)
	if err != nil {
		if !errs.Is(err, errs.ErrNotFound) {
			f.logger.Warn("error fetching model", "task", task, "error", err)
		}
		return f.fallback
	}
	return model.ID
}

// Tool exposes the finder as an agent tool.
func (f *Finder) Tool() *tool.Tool {
	return &tool.Tool{
		Name:        Name,
		Description: "This is a tool that returns the most downloaded model of a given task on the Hugging Face Hub. It returns the name of the checkpoint.",
		Parameters: []tool.Parameter{
			{
				Name:        "task",
				Type:        "string",
				Description: "The task for which to get the download count.",
				Required:    true,
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			task, _ := tool.StringArg(args, "task")
			return f.Find(ctx, task), nil
		},
	}
}
