package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errs "github.com/sweetpotato0/hfagents/errors"
)

func TestNewRequiresToken(t *testing.T) {
	if _, err := New("stabilityai/stable-diffusion-xl-base-1.0", ""); !errs.Is(err, errs.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := New("", "hf_token"); !errs.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTextToImageSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody textToImageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNGDATA"))
	}))
	defer srv.Close()

	c, err := New("stabilityai/stable-diffusion-xl-base-1.0", "hf_token", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data, err := c.TextToImage(context.Background(), "a red bicycle")
	if err != nil {
		t.Fatalf("TextToImage: %v", err)
	}

	if string(data) != "PNGDATA" {
		t.Errorf("unexpected payload %q", data)
	}
	if gotPath != "/models/stabilityai/stable-diffusion-xl-base-1.0" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer hf_token" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotBody.Inputs != "a red bicycle" {
		t.Errorf("unexpected inputs %q", gotBody.Inputs)
	}
	if c.Model() != "stabilityai/stable-diffusion-xl-base-1.0" {
		t.Errorf("unexpected model %q", c.Model())
	}
}

func TestTextToImageErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantKind    error
	}{
		{
			name:        "not found json",
			status:      http.StatusNotFound,
			body:        `{"error":"Model bad/model does not exist"}`,
			wantMessage: "Model bad/model does not exist",
			wantKind:    errs.ErrUnsupportedModel,
		},
		{
			name:        "bad request list",
			status:      http.StatusBadRequest,
			body:        `{"error":["first","second"]}`,
			wantMessage: "first; second",
			wantKind:    errs.ErrUpstream,
		},
		{
			name:        "plain text",
			status:      http.StatusServiceUnavailable,
			body:        "overloaded",
			wantMessage: "overloaded",
			wantKind:    errs.ErrUpstream,
		},
		{
			name:        "empty body",
			status:      http.StatusUnauthorized,
			body:        "",
			wantMessage: "401 Unauthorized",
			wantKind:    errs.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := New("bad/model", "hf_token", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
			_, err := c.TextToImage(context.Background(), "prompt")

			var apiErr *APIError
			if !errs.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T %v", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
			if !errs.Is(err, tt.wantKind) {
				t.Errorf("expected error kind %v", tt.wantKind)
			}
			if !strings.Contains(err.Error(), "bad/model") {
				t.Errorf("error should name the model: %v", err)
			}
		})
	}
}

func TestTextToImageEmptySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := New("m/m", "hf_token", WithBaseURL(srv.URL))
	data, err := c.TextToImage(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("TextToImage: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(data))
	}
}
