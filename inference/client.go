// Package inference is a minimal client for the Hugging Face Inference API
// text-to-image task. A Client is bound to a single model.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errs "github.com/sweetpotato0/hfagents/errors"
	"github.com/sweetpotato0/hfagents/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultBaseURL is the serverless inference endpoint on the HF router.
const DefaultBaseURL = "https://router.huggingface.co/hf-inference"

// maxErrorBody bounds how much of an error response is kept in APIError.Message.
const maxErrorBody = 4 << 10

// APIError is returned when the inference endpoint answers with a non-2xx status.
type APIError struct {
	Model      string
	StatusCode int
	Message    string
}

// Error formats the model, status and upstream message.
func (e *APIError) Error() string {
	return fmt.Sprintf("inference %s: status %d: %s", e.Model, e.StatusCode, e.Message)
}

// Unwrap classifies the failure: 404 means the backend does not know or serve
// the model, everything else is a generic upstream failure.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return errs.ErrUnsupportedModel
	}
	return errs.ErrUpstream
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the inference endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client issues text-to-image requests against one model.
type Client struct {
	model   string
	token   string
	baseURL string
	http    *http.Client
}

// New creates a client bound to model, authenticated with token.
func New(model, token string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errs.ErrMissingCredential
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("inference: model id is required: %w", errs.ErrInvalidInput)
	}
	c := &Client{
		model:   model,
		token:   token,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the model the client is bound to.
func (c *Client) Model() string {
	return c.model
}

type textToImageRequest struct {
	Inputs string `json:"inputs"`
}

// TextToImage generates an image for prompt and returns the raw image bytes.
// A successful response may carry an empty body; callers decide what that means.
func (c *Client) TextToImage(ctx context.Context, prompt string) (data []byte, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "inference.text_to_image")
	span.SetAttributes(attribute.String("inference.model", c.model))
	defer func() { telemetry.End(span, err) }()

	body, err := json.Marshal(textToImageRequest{Inputs: prompt})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/models/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Model:      c.model,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(payload, resp.Status),
		}
	}
	return payload, nil
}

// errorMessage extracts the human-readable message from an error body. The
// API answers with {"error": "..."} or {"error": ["...", ...]}; anything else
// is returned as text.
func errorMessage(body []byte, status string) string {
	var parsed struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Error) > 0 {
		var single string
		if err := json.Unmarshal(parsed.Error, &single); err == nil && single != "" {
			return single
		}
		var many []string
		if err := json.Unmarshal(parsed.Error, &many); err == nil && len(many) > 0 {
			return strings.Join(many, "; ")
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return status
	}
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}
