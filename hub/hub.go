// Package hub queries the Hugging Face Hub model index.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sweetpotato0/hfagents/config"
	errs "github.com/sweetpotato0/hfagents/errors"
	"github.com/sweetpotato0/hfagents/pkg/logging"
	"github.com/sweetpotato0/hfagents/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Model is one entry of the Hub model index.
type Model struct {
	ID          string   `json:"id"`
	Downloads   int64    `json:"downloads"`
	Likes       int64    `json:"likes"`
	PipelineTag string   `json:"pipeline_tag,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ListOptions narrows a model listing.
type ListOptions struct {
	Filter    string
	Search    string
	Sort      string
	Direction int
	Limit     int
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
	}
	if o.Direction != 0 {
		q.Set("direction", strconv.Itoa(o.Direction))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	return q
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different Hub endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithToken authenticates requests.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCache caches listings for ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.ttl = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the Hub REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   Cache
	ttl     time.Duration
	logger  *slog.Logger
}

// New creates a Hub client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: config.DefaultHubURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logging.WithComponent("hub"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListModels returns the models matching opts, served from the cache when
// one is configured and holds the listing.
func (c *Client) ListModels(ctx context.Context, opts ListOptions) (models []Model, err error) {
	q := opts.query()
	key := "hub:models:" + q.Encode()

	if c.cache != nil {
		raw, hit, cerr := c.cache.Get(ctx, key)
		if cerr != nil {
			c.logger.Warn("hub cache get failed", "key", key, "error", cerr)
		} else if hit {
			if err := json.Unmarshal(raw, &models); err == nil {
				return models, nil
			}
			c.logger.Warn("discarding undecodable hub cache entry", "key", key)
		}
	}

	ctx, span := telemetry.Tracer().Start(ctx, "hub.list_models")
	span.SetAttributes(attribute.String("hub.query", q.Encode()))
	defer func() { telemetry.End(span, err) }()

	endpoint := c.baseURL + "/api/models"
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build hub request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: list models: %w", errs.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read hub response: %w", errs.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: list models: %s: %s", errs.ErrUpstream, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, &models); err != nil {
		return nil, fmt.Errorf("decode hub models: %w", err)
	}
	span.SetAttributes(attribute.Int("hub.results", len(models)))

	if c.cache != nil {
		if raw, merr := json.Marshal(models); merr == nil {
			if cerr := c.cache.Set(ctx, key, raw, c.ttl); cerr != nil {
				c.logger.Warn("hub cache set failed", "key", key, "error", cerr)
			}
		}
	}
	return models, nil
}

// Lister lists Hub models. *Client implements it.
type Lister interface {
	ListModels(ctx context.Context, opts ListOptions) ([]Model, error)
}

// TopModelsLimit is how many candidates MostDownloaded asks the Hub for.
const TopModelsLimit = 5

// MostDownloaded returns the most downloaded model for task. An empty listing
// is reported as errors.ErrNotFound.
func MostDownloaded(ctx context.Context, l Lister, task string) (Model, error) {
	models, err := l.ListModels(ctx, ListOptions{Filter: task, Sort: "downloads", Direction: -1, Limit: TopModelsLimit})
	if err != nil {
		return Model{}, err
	}
	if len(models) == 0 {
		return Model{}, fmt.Errorf("%w: no models for task %q", errs.ErrNotFound, task)
	}
	return models[0], nil
}

// Ping checks the cache connection when the cache supports it.
func (c *Client) Ping(ctx context.Context) error {
	if p, ok := c.cache.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the cache when it holds a connection.
func (c *Client) Close() error {
	if closer, ok := c.cache.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// NewFromConfig creates a client for cfg, caching listings in Redis when an
// address is configured.
func NewFromConfig(cfg config.HubConfig, token string, opts ...Option) *Client {
	base := []Option{WithBaseURL(cfg.BaseURL), WithToken(token)}
	if cfg.RedisAddr != "" {
		base = append(base, WithCache(NewRedisCache(&RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB}), cfg.CacheTTL))
	}
	return New(append(base, opts...)...)
}
