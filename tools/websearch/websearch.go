// Package websearch implements the web_search tool on the DuckDuckGo HTML
// endpoint.
package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	errs "github.com/sweetpotato0/hfagents/errors"
	"github.com/sweetpotato0/hfagents/pkg/logging"
	"github.com/sweetpotato0/hfagents/pkg/telemetry"
	"github.com/sweetpotato0/hfagents/tool"
	"go.opentelemetry.io/otel/attribute"
)

// Name is the tool name exposed to agents.
const Name = "web_search"

const (
	defaultEndpoint   = "https://html.duckduckgo.com/html/"
	defaultMaxResults = 10
	userAgent         = "Mozilla/5.0 (compatible; hfagent/1.0)"
)

// Result is one search hit.
type Result struct {
	Title   string
	Link    string
	Snippet string
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithEndpoint replaces the search endpoint.
func WithEndpoint(endpoint string) Option {
	return func(s *Searcher) {
		if endpoint != "" {
			s.endpoint = endpoint
		}
	}
}

// WithMaxResults caps the number of results.
func WithMaxResults(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Searcher) {
		if hc != nil {
			s.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Searcher runs DuckDuckGo queries.
type Searcher struct {
	endpoint   string
	maxResults int
	http       *http.Client
	logger     *slog.Logger
}

// New creates a Searcher.
func New(opts ...Option) *Searcher {
	s := &Searcher{
		endpoint:   defaultEndpoint,
		maxResults: defaultMaxResults,
		http:       &http.Client{Timeout: 20 * time.Second},
		logger:     logging.WithComponent("websearch"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns up to maxResults hits for query.
func (s *Searcher) Search(ctx context.Context, query string) (results []Result, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", errs.ErrInvalidInput)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "websearch.search")
	defer func() {
		span.SetAttributes(attribute.Int("websearch.results", len(results)))
		telemetry.End(span, err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+url.Values{"q": {query}}.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", errs.ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: search: %s", errs.ErrUpstream, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	results = parseResults(doc, s.maxResults)
	s.logger.Debug("search completed", "query", query, "results", len(results))
	return results, nil
}

func parseResults(doc *goquery.Document, limit int) []Result {
	var results []Result
	doc.Find(".result").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}
		anchor := sel.Find(".result__a").First()
		href, ok := anchor.Attr("href")
		title := strings.TrimSpace(anchor.Text())
		if !ok || title == "" {
			return true
		}
		results = append(results, Result{
			Title:   title,
			Link:    resolveLink(href),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
		return len(results) < limit
	})
	return results
}

// resolveLink unwraps DuckDuckGo redirect links to their target.
func resolveLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

// Format renders results as the markdown the agent reads.
func Format(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("[%s](%s)\n%s", r.Title, r.Link, r.Snippet))
	}
	return "## Search Results\n\n" + strings.Join(parts, "\n\n")
}

// Tool exposes the searcher as an agent tool.
func (s *Searcher) Tool() *tool.Tool {
	return &tool.Tool{
		Name:        Name,
		Description: "Performs a duckduckgo web search based on your query (think a Google search) then returns the top search results.",
		Parameters: []tool.Parameter{
			{Name: "query", Type: "string", Description: "The search query to perform.", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := tool.StringArg(args, "query")
			results, err := s.Search(ctx, query)
			if err != nil {
				return "", err
			}
			if len(results) == 0 {
				return "", fmt.Errorf("%w: No results found! Try a less restrictive/shorter query.", errs.ErrNotFound)
			}
			return Format(results), nil
		},
	}
}
