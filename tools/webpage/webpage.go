// Package webpage implements the visit_webpage tool: fetch a URL and return
// its content as markdown within a token budget.
package webpage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sweetpotato0/hfagents/config"
	errs "github.com/sweetpotato0/hfagents/errors"
	"github.com/sweetpotato0/hfagents/pkg/logging"
	"github.com/sweetpotato0/hfagents/pkg/telemetry"
	"github.com/sweetpotato0/hfagents/tool"
	"go.opentelemetry.io/otel/attribute"
)

// Name is the tool name exposed to agents.
const Name = "visit_webpage"

// DefaultEncoding is the tiktoken encoding used for budgeting.
const DefaultEncoding = "cl100k_base"

const maxBodyBytes = 10 << 20

// Option configures a Visitor.
type Option func(*Visitor)

// WithMaxTokens sets the token budget of a page.
func WithMaxTokens(n int) Option {
	return func(v *Visitor) {
		if n > 0 {
			v.maxTokens = n
		}
	}
}

// WithTokenizer replaces the tokenizer.
func WithTokenizer(tok Tokenizer) Option {
	return func(v *Visitor) {
		if tok != nil {
			v.tokenizer = tok
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(v *Visitor) {
		if hc != nil {
			v.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Visitor) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// Visitor fetches pages.
type Visitor struct {
	maxTokens int
	tokenizer Tokenizer
	http      *http.Client
	logger    *slog.Logger
}

// New creates a Visitor. Without WithTokenizer it loads DefaultEncoding and
// falls back to RuneTokenizer when the encoding is unavailable.
func New(opts ...Option) *Visitor {
	v := &Visitor{
		maxTokens: config.DefaultVisitTokens,
		http:      &http.Client{Timeout: 20 * time.Second},
		logger:    logging.WithComponent("webpage"),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.tokenizer == nil {
		tok, err := NewTiktokenTokenizer(DefaultEncoding)
		if err != nil {
			v.logger.Warn("tiktoken unavailable, budgeting by characters", "error", err)
			v.tokenizer = RuneTokenizer{}
		} else {
			v.tokenizer = tok
		}
	}
	return v
}

// Visit fetches rawURL and returns its markdown content, truncated to the
// token budget.
func (v *Visitor) Visit(ctx context.Context, rawURL string) (content string, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: invalid url %q", errs.ErrInvalidInput, rawURL)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "webpage.visit")
	span.SetAttributes(attribute.String("webpage.host", u.Host))
	defer func() { telemetry.End(span, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; hfagent/1.0)")

	resp, err := v.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s for url: %s", errs.ErrUpstream, resp.Status, u.String())
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("%w: read body: %w", errs.ErrUpstream, err)
		}
		content = Clean(string(raw))
	} else {
		content, err = ToMarkdown(body)
		if err != nil {
			return "", fmt.Errorf("convert page: %w", err)
		}
	}

	tokens := CountTokens(v.tokenizer, content)
	span.SetAttributes(attribute.Int("webpage.tokens", tokens))
	v.logger.Debug("visited page", "url", u.String(), "tokens", tokens)
	return Truncate(v.tokenizer, content, v.maxTokens), nil
}

// Tool exposes the visitor as an agent tool. Fetch failures are returned as
// text so the agent can read them.
func (v *Visitor) Tool() *tool.Tool {
	return &tool.Tool{
		Name:        Name,
		Description: "Visits a webpage at the given url and reads its content as a markdown string. Use this to browse webpages.",
		Parameters: []tool.Parameter{
			{Name: "url", Type: "string", Description: "The url of the webpage to visit.", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			rawURL, _ := tool.StringArg(args, "url")
			content, err := v.Visit(ctx, rawURL)
			if err != nil {
				if errs.Is(err, context.DeadlineExceeded) {
					return "The request timed out. Please try again later or check the URL.", nil
				}
				return fmt.Sprintf("Error fetching the webpage: %v", err), nil
			}
			return content, nil
		},
	}
}
