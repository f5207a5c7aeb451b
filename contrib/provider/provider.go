// Package provider builds the LLM client selected by configuration.
package provider

import (
	"fmt"

	"github.com/sweetpotato0/hfagents/agent"
	"github.com/sweetpotato0/hfagents/config"
	"github.com/sweetpotato0/hfagents/contrib/provider/claude"
	"github.com/sweetpotato0/hfagents/contrib/provider/gemini"
	"github.com/sweetpotato0/hfagents/contrib/provider/openai"
	errs "github.com/sweetpotato0/hfagents/errors"
)

// New returns the LLM client for cfg. The huggingface provider talks to the
// OpenAI compatible Hugging Face router with the HF token.
func New(cfg config.LLMConfig) (agent.LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key for provider %s", errs.ErrMissingCredential, cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderHuggingFace, config.ProviderOpenAI:
		return openai.New(&openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   int64(cfg.MaxTokens),
			Temperature: cfg.Temperature,
		}), nil
	case config.ProviderAnthropic:
		return claude.New(&claude.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			MaxTokens:   int64(cfg.MaxTokens),
			Temperature: cfg.Temperature,
		}), nil
	case config.ProviderGemini:
		return gemini.New(&gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: float32(cfg.Temperature),
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q", errs.ErrInvalidInput, cfg.Provider)
	}
}
