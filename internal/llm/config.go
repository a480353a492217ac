package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects and configures the question-generation backend.
// Environment variables are read under the CALCTUTOR_LLM_ prefix.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter",
	// "mock". Empty means discover from well-known API key variables.
	Provider string `env:"PROVIDER" yaml:"provider"`

	Anthropic  BackendConfig `envPrefix:"ANTHROPIC_" yaml:"anthropic"`
	OpenAI     BackendConfig `envPrefix:"OPENAI_" yaml:"openai"`
	Gemini     BackendConfig `envPrefix:"GEMINI_" yaml:"gemini"`
	OpenRouter BackendConfig `envPrefix:"OPENROUTER_" yaml:"openrouter"`
	Retry      RetryConfig   `envPrefix:"RETRY_" yaml:"retry"`

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration `env:"TIMEOUT" yaml:"timeout"`
}

// BackendConfig is the per-backend credential and model choice.
type BackendConfig struct {
	APIKey  string `env:"API_KEY" yaml:"api_key"`
	Model   string `env:"MODEL" yaml:"model"`
	BaseURL string `env:"BASE_URL" yaml:"base_url"`
}

// RetryConfig configures backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS" yaml:"max_attempts"`
	InitialWait time.Duration `env:"INITIAL_WAIT" yaml:"initial_wait"`
	MaxWait     time.Duration `env:"MAX_WAIT" yaml:"max_wait"`
	Multiplier  float64       `env:"MULTIPLIER" yaml:"multiplier"`
}

// DefaultConfig returns defaults for every backend. Provider is left empty.
func DefaultConfig() Config {
	return Config{
		Anthropic:  BackendConfig{Model: "claude-haiku"},
		OpenAI:     BackendConfig{Model: "gpt-4o-mini"},
		Gemini:     BackendConfig{Model: "gemini-flash"},
		OpenRouter: BackendConfig{Model: "google/gemini-2.0-flash-exp", BaseURL: defaultOpenRouterBaseURL},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 45 * time.Second,
	}
}

// discoveryOrder lists the standard key variables probed by Discover.
var discoveryOrder = []struct {
	provider string
	envVar   string
}{
	{"gemini", "GEMINI_API_KEY"},
	{"openai", "OPENAI_API_KEY"},
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"openrouter", "OPENROUTER_API_KEY"},
}

// Discover fills Provider from the first configured backend key, or from
// well-known variables such as OPENAI_API_KEY. Returns false when nothing
// usable is found. An explicit Provider is kept as is.
func (c Config) Discover() (Config, bool) {
	if c.Provider != "" {
		return c, true
	}
	for _, d := range discoveryOrder {
		if b := c.backend(d.provider); b != nil && b.APIKey != "" {
			c.Provider = d.provider
			return c, true
		}
	}
	for _, d := range discoveryOrder {
		if k := os.Getenv(d.envVar); k != "" {
			c.Provider = d.provider
			c.backend(d.provider).APIKey = k
			return c, true
		}
	}
	return c, false
}

func (c *Config) backend(provider string) *BackendConfig {
	switch provider {
	case "anthropic":
		return &c.Anthropic
	case "openai":
		return &c.OpenAI
	case "gemini":
		return &c.Gemini
	case "openrouter":
		return &c.OpenRouter
	}
	return nil
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	b := c.backend(c.Provider)
	if b == nil {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if b.APIKey == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.Provider)
	}
	return nil
}
