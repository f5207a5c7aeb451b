// Package imagegen implements the image_generator tool: text-to-image on a
// remembered model, with one retry against a fixed fallback model when the
// backend reports that the model is unsupported.
package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sweetpotato0/hfagents/config"
	errs "github.com/sweetpotato0/hfagents/errors"
	"github.com/sweetpotato0/hfagents/inference"
	"github.com/sweetpotato0/hfagents/pkg/logging"
	"github.com/sweetpotato0/hfagents/pkg/telemetry"
	"github.com/sweetpotato0/hfagents/tool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Name is the tool name exposed to agents.
const Name = "image_generator"

const description = "This tool creates an image according to a prompt, which is a text description."

// Backend is a connection to the text-to-image service bound to one model.
type Backend interface {
	TextToImage(ctx context.Context, prompt string) ([]byte, error)
}

// BackendFactory builds a Backend for model.
type BackendFactory func(model, token string) (Backend, error)

// InferenceFactory returns a BackendFactory backed by the HF inference client.
func InferenceFactory(opts ...inference.Option) BackendFactory {
	return func(model, token string) (Backend, error) {
		return inference.New(model, token, opts...)
	}
}

// State is the lifecycle position of the tool's cached connection.
type State int

const (
	// Unbound means no connection exists for the remembered model yet.
	Unbound State = iota
	// Bound means a connection for the remembered model is cached.
	Bound
)

// String returns the state name.
func (s State) String() string {
	if s == Bound {
		return "bound"
	}
	return "unbound"
}

// binding is the persistent state: unbound{model} or bound{model, backend}.
type binding interface {
	model() string
}

type unbound struct{ name string }

func (u unbound) model() string { return u.name }

type bound struct {
	name    string
	backend Backend
}

func (b bound) model() string { return b.name }

// Option configures an ImageGenerationTool.
type Option func(*ImageGenerationTool)

// WithModel sets the initially remembered model.
func WithModel(model string) Option {
	return func(t *ImageGenerationTool) {
		if model != "" {
			t.state = unbound{name: model}
		}
	}
}

// WithFallbackModel sets the model used for the single fallback attempt.
func WithFallbackModel(model string) Option {
	return func(t *ImageGenerationTool) {
		if model != "" {
			t.fallbackModel = model
		}
	}
}

// WithOutputPath sets the file every generated image is written to.
func WithOutputPath(path string) Option {
	return func(t *ImageGenerationTool) {
		if path != "" {
			t.outputPath = path
		}
	}
}

// WithBackendFactory replaces how backends are built.
func WithBackendFactory(factory BackendFactory) Option {
	return func(t *ImageGenerationTool) {
		if factory != nil {
			t.factory = factory
		}
	}
}

// WithClassifier replaces the unsupported-model classifier.
func WithClassifier(c Classifier) Option {
	return func(t *ImageGenerationTool) {
		t.classifier = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *ImageGenerationTool) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// ImageGenerationTool generates images through a hosted text-to-image model.
// Calls are serialized; every image overwrites the same output file.
type ImageGenerationTool struct {
	mu            sync.Mutex
	token         string
	state         binding
	fallbackModel string
	outputPath    string
	factory       BackendFactory
	classifier    Classifier
	logger        *slog.Logger
}

// New creates the tool. token is the Hugging Face access token; when empty
// every call fails without touching the network.
func New(token string, opts ...Option) *ImageGenerationTool {
	t := &ImageGenerationTool{
		token:         strings.TrimSpace(token),
		state:         unbound{name: config.DefaultImageModel},
		fallbackModel: config.FallbackImageModel,
		outputPath:    config.DefaultImageOutput,
		factory:       InferenceFactory(),
		classifier:    DefaultClassifier(),
		logger:        logging.WithComponent("imagegen"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFromConfig creates the tool from process configuration.
func NewFromConfig(cfg *config.Config, opts ...Option) *ImageGenerationTool {
	base := []Option{
		WithModel(cfg.Image.Model),
		WithFallbackModel(cfg.Image.FallbackModel),
		WithOutputPath(cfg.Image.OutputPath),
		WithBackendFactory(InferenceFactory(inference.WithBaseURL(cfg.Image.InferenceURL))),
	}
	return New(cfg.HFToken, append(base, opts...)...)
}

// State returns the connection state and the remembered model.
func (t *ImageGenerationTool) State() (State, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.state.(bound); ok {
		return Bound, t.state.model()
	}
	return Unbound, t.state.model()
}

// CurrentModel returns the remembered model.
func (t *ImageGenerationTool) CurrentModel() string {
	_, model := t.State()
	return model
}

// FallbackModel returns the model used for the fallback attempt.
func (t *ImageGenerationTool) FallbackModel() string {
	return t.fallbackModel
}

// OutputPath returns the file images are written to.
func (t *ImageGenerationTool) OutputPath() string {
	return t.outputPath
}

// Generate produces an image for req. It never returns a Go error: every
// failure is reported through the Result.
func (t *ImageGenerationTool) Generate(ctx context.Context, req Request) (res Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ctx, span := telemetry.Tracer().Start(ctx, "imagegen.generate")
	defer func() {
		span.SetAttributes(
			attribute.String("imagegen.model_used", res.ModelUsed),
			attribute.Bool("imagegen.fallback", res.Fallback),
		)
		telemetry.End(span, res.Err)
	}()

	if t.token == "" {
		return failure(errs.ErrMissingCredential, "Error: Hugging Face access token is not configured (set HUGGINGFACE_API_KEY)")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return failure(fmt.Errorf("%w: empty prompt", errs.ErrInvalidInput), "Error: prompt must not be empty")
	}

	if model := strings.TrimSpace(req.Model); model != "" && model != t.state.model() {
		t.logger.Info("switching image model", "from", t.state.model(), "to", model)
		t.state = unbound{name: model}
	}

	backend, err := t.bind()
	if err != nil {
		return failure(err, "Error in image generation setup: %v", err)
	}

	model := t.state.model()
	span.SetAttributes(attribute.String("imagegen.model", model))
	t.logger.Info("generating image", "model", model, "prompt", prompt)

	data, err := backend.TextToImage(ctx, prompt)
	if err == nil {
		return t.finish(prompt, model, false, data)
	}

	t.logger.Warn("image generation failed", "model", model, "error", err)
	if !t.classifier.Unsupported(err) {
		return failure(wrapUpstream(err), "Error generating image: %v", err)
	}
	return t.fallback(ctx, span, prompt, err)
}

// bind moves the tool from unbound to bound, building the backend once.
func (t *ImageGenerationTool) bind() (Backend, error) {
	switch s := t.state.(type) {
	case bound:
		return s.backend, nil
	case unbound:
		backend, err := t.factory(s.name, t.token)
		if err != nil {
			return nil, err
		}
		t.state = bound{name: s.name, backend: backend}
		return backend, nil
	default:
		return nil, fmt.Errorf("imagegen: unknown state %T", s)
	}
}

// fallback makes the single retry on a transient backend. The remembered
// model is left untouched.
func (t *ImageGenerationTool) fallback(ctx context.Context, span trace.Span, prompt string, primaryErr error) Result {
	model := t.fallbackModel
	t.logger.Info("trying fallback model", "model", model)
	span.AddEvent("fallback", trace.WithAttributes(attribute.String("imagegen.fallback_model", model)))

	backend, err := t.factory(model, t.token)
	if err == nil {
		var data []byte
		data, err = backend.TextToImage(ctx, prompt)
		if err == nil {
			if len(data) == 0 {
				return failure(errs.ErrNoImageReturned,
					"Error: No image was generated by fallback model %s (primary error: %v)", model, primaryErr)
			}
			return t.finish(prompt, model, true, data)
		}
	}

	t.logger.Warn("fallback model failed", "model", model, "error", err)
	return failure(fmt.Errorf("%w: primary: %w; fallback: %w", errs.ErrUpstream, primaryErr, err),
		"Error with both primary and fallback models: primary (%s): %v; fallback (%s): %v",
		t.state.model(), primaryErr, model, err)
}

func (t *ImageGenerationTool) finish(prompt, model string, fallback bool, data []byte) Result {
	if len(data) == 0 {
		return failure(errs.ErrNoImageReturned, "Error: No image was generated")
	}
	if err := t.save(data); err != nil {
		return failure(err, "Error saving image to %s: %v", t.outputPath, err)
	}
	t.logger.Info("image saved", "path", t.outputPath, "model", model, "fallback", fallback)
	return Result{Prompt: prompt, SavedPath: t.outputPath, ModelUsed: model, Fallback: fallback}
}

// save writes data to the output path, overwriting any existing file.
// Decodable images are normalized to PNG; anything else is written as-is.
func (t *ImageGenerationTool) save(data []byte) error {
	if dir := filepath.Dir(t.outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	out := data
	if img, format, err := image.Decode(bytes.NewReader(data)); err == nil && format != "png" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		out = buf.Bytes()
	} else if err != nil {
		t.logger.Debug("image payload not decodable, writing raw bytes", "error", err)
	}
	return os.WriteFile(t.outputPath, out, 0o644)
}

func wrapUpstream(err error) error {
	if errs.Is(err, errs.ErrUpstream) || errs.Is(err, errs.ErrUnsupportedModel) {
		return err
	}
	return fmt.Errorf("%w: %w", errs.ErrUpstream, err)
}

// Tool exposes the generator as an agent tool. The handler always returns the
// result text and a nil error so the agent can read failures.
func (t *ImageGenerationTool) Tool() *tool.Tool {
	return &tool.Tool{
		Name:        Name,
		Description: description,
		Parameters: []tool.Parameter{
			{
				Name:        "prompt",
				Type:        "string",
				Description: "The image generator prompt. Don't hesitate to add details in the prompt to make the image look better, like 'high-res, photorealistic', etc.",
				Required:    true,
			},
			{
				Name:        "model",
				Type:        "string",
				Description: "The Hugging Face model ID to use for image generation. If not provided, will use the default model.",
				Nullable:    true,
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			prompt, _ := tool.StringArg(args, "prompt")
			model, _ := tool.StringArg(args, "model")
			return t.Generate(ctx, Request{Prompt: prompt, Model: model}).String(), nil
		},
	}
}
