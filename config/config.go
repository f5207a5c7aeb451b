package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported LLM providers.
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderAnthropic   = "anthropic"
	ProviderGemini      = "gemini"
)

// Providers lists every accepted value of LLMConfig.Provider.
var Providers = []string{ProviderHuggingFace, ProviderOpenAI, ProviderAnthropic, ProviderGemini}

// Image generation defaults.
const (
	DefaultImageModel    = "stabilityai/stable-diffusion-xl-base-1.0"
	FallbackImageModel   = "runwayml/stable-diffusion-v1-5"
	DefaultImageOutput   = "image.png"
	DefaultInferenceURL  = "https://router.huggingface.co/hf-inference"
	DefaultHubURL        = "https://huggingface.co"
	DefaultRouterURL     = "https://router.huggingface.co/v1"
	DefaultMaxIterations = 10
	DefaultVisitTokens   = 4000
)

var defaultLLMModels = map[string]string{
	ProviderHuggingFace: "Qwen/Qwen2.5-Coder-32B-Instruct",
	ProviderOpenAI:      "gpt-4o-mini",
	ProviderAnthropic:   "claude-sonnet-4-5-20250929",
	ProviderGemini:      "gemini-1.5-flash",
}

// LLMConfig selects and configures the model driving the agent.
type LLMConfig struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
}

// ImageConfig configures the image generation tool.
type ImageConfig struct {
	Model         string
	FallbackModel string
	OutputPath    string
	InferenceURL  string
}

// HubConfig configures Hub lookups and their optional Redis cache.
type HubConfig struct {
	BaseURL   string
	RedisAddr string
	RedisDB   int
	CacheTTL  time.Duration
}

// AgentConfig tunes the agent loop and its tools.
type AgentConfig struct {
	MaxIterations  int
	VisitMaxTokens int
}

// Config is the process configuration, resolved once at startup and
// injected into the components that need it.
type Config struct {
	HFToken   string
	LLM       LLMConfig
	Image     ImageConfig
	Hub       HubConfig
	Agent     AgentConfig
	Telemetry bool
}

// Load reads the given dotenv files into the process environment, then
// resolves the configuration from it. With no files it reads ".env" and
// tolerates its absence; files named by the caller must exist.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// FromEnv resolves the configuration using the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		HFToken: strings.TrimSpace(getenv("HUGGINGFACE_API_KEY")),
		Image: ImageConfig{
			Model:         valueOr(getenv("HFAGENT_IMAGE_MODEL"), DefaultImageModel),
			FallbackModel: valueOr(getenv("HFAGENT_IMAGE_FALLBACK_MODEL"), FallbackImageModel),
			OutputPath:    valueOr(getenv("HFAGENT_IMAGE_OUTPUT"), DefaultImageOutput),
			InferenceURL:  valueOr(getenv("HFAGENT_INFERENCE_URL"), DefaultInferenceURL),
		},
		Hub: HubConfig{
			BaseURL:   valueOr(getenv("HFAGENT_HUB_URL"), DefaultHubURL),
			RedisAddr: getenv("HFAGENT_REDIS_ADDR"),
			CacheTTL:  time.Hour,
		},
	}

	var err error
	if cfg.Hub.RedisDB, err = intOr(getenv("HFAGENT_REDIS_DB"), 0); err != nil {
		return nil, fmt.Errorf("HFAGENT_REDIS_DB: %w", err)
	}
	if raw := getenv("HFAGENT_HUB_CACHE_TTL"); raw != "" {
		if cfg.Hub.CacheTTL, err = time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("HFAGENT_HUB_CACHE_TTL: %w", err)
		}
	}
	if cfg.Agent.MaxIterations, err = intOr(getenv("HFAGENT_MAX_ITERATIONS"), DefaultMaxIterations); err != nil {
		return nil, fmt.Errorf("HFAGENT_MAX_ITERATIONS: %w", err)
	}
	if cfg.Agent.VisitMaxTokens, err = intOr(getenv("HFAGENT_VISIT_MAX_TOKENS"), DefaultVisitTokens); err != nil {
		return nil, fmt.Errorf("HFAGENT_VISIT_MAX_TOKENS: %w", err)
	}
	if raw := getenv("HFAGENT_TELEMETRY"); raw != "" {
		if cfg.Telemetry, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("HFAGENT_TELEMETRY: %w", err)
		}
	}

	cfg.LLM = resolveLLM(getenv, cfg.HFToken)
	if raw := getenv("HFAGENT_LLM_TEMPERATURE"); raw != "" {
		if cfg.LLM.Temperature, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("HFAGENT_LLM_TEMPERATURE: %w", err)
		}
	}
	if cfg.LLM.MaxTokens, err = intOr(getenv("HFAGENT_LLM_MAX_TOKENS"), 2000); err != nil {
		return nil, fmt.Errorf("HFAGENT_LLM_MAX_TOKENS: %w", err)
	}
	return cfg, nil
}

func resolveLLM(getenv func(string) string, hfToken string) LLMConfig {
	provider := strings.ToLower(valueOr(getenv("HFAGENT_LLM_PROVIDER"), ProviderHuggingFace))
	llm := LLMConfig{
		Provider:    provider,
		Model:       valueOr(getenv("HFAGENT_LLM_MODEL"), defaultLLMModels[provider]),
		BaseURL:     getenv("HFAGENT_LLM_BASE_URL"),
		Temperature: 0.7,
	}
	switch provider {
	case ProviderHuggingFace:
		llm.APIKey = hfToken
		llm.BaseURL = valueOr(llm.BaseURL, DefaultRouterURL)
	case ProviderOpenAI:
		llm.APIKey = getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		llm.APIKey = getenv("ANTHROPIC_API_KEY")
	case ProviderGemini:
		llm.APIKey = getenv("GEMINI_API_KEY")
	}
	return llm
}

// Validate checks the structural soundness of the configuration. Credentials
// are not required here: the tools report a missing token themselves.
func (c *Config) Validate() error {
	v := NewValidator()
	v.ValidateOneOf("llm.provider", c.LLM.Provider, Providers...)
	v.ValidateURL("llm.baseURL", c.LLM.BaseURL)
	v.RequireNonEmpty("image.model", c.Image.Model)
	v.RequireNonEmpty("image.fallbackModel", c.Image.FallbackModel)
	v.RequireNonEmpty("image.outputPath", c.Image.OutputPath)
	v.ValidateURL("image.inferenceURL", c.Image.InferenceURL)
	v.ValidateURL("hub.baseURL", c.Hub.BaseURL)
	v.RequirePositive("agent.maxIterations", c.Agent.MaxIterations)
	v.RequirePositive("agent.visitMaxTokens", c.Agent.VisitMaxTokens)
	if c.Hub.CacheTTL < 0 {
		v.errors = append(v.errors, ValidationError{Field: "hub.cacheTTL", Message: "value cannot be negative"})
	}
	if err := v.Error(); err != nil {
		return err
	}
	if c.Hub.RedisAddr != "" {
		if err := ValidateRedisConfig(c.Hub.RedisAddr, c.Hub.RedisDB); err != nil {
			return fmt.Errorf("hub cache: %w", err)
		}
	}
	return nil
}

// ValidateForAgent additionally requires everything an LLM-driven run needs.
func (c *Config) ValidateForAgent() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return ValidateLLMConfig(c.LLM.Provider, c.LLM.APIKey, c.LLM.Model, c.LLM.Temperature, c.LLM.MaxTokens)
}

func valueOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func intOr(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
