package assistant

import (
	"errors"
	"time"
)

// Config selects the Assistants API account and assistant.
type Config struct {
	APIKey  string `env:"API_KEY" yaml:"api_key"`
	BaseURL string `env:"BASE_URL" yaml:"base_url"`
	Model   string `env:"MODEL" yaml:"model"`

	// AssistantID pins runs to an existing assistant. Empty falls back to
	// the latest one recorded by bootstrap.
	AssistantID string `env:"ASSISTANT_ID" yaml:"assistant_id"`
}

// RelayConfig controls run polling.
type RelayConfig struct {
	PollInterval time.Duration `env:"POLL_INTERVAL" yaml:"poll_interval"`
	RunTimeout   time.Duration `env:"RUN_TIMEOUT" yaml:"run_timeout"`
}

// DefaultRelayConfig returns the standard polling settings.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{PollInterval: 750 * time.Millisecond, RunTimeout: 3 * time.Minute}
}

// ErrNoAPIKey is returned when no OpenAI key is configured.
var ErrNoAPIKey = errors.New("no OpenAI API key configured (set CALCTUTOR_OPENAI_API_KEY or OPENAI_API_KEY)")
