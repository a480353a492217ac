package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/calctutor/internal/store"
)

// NewProvider builds the configured backend wrapped as
// caller → timeout → retry → recording → backend.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, logger *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := WithRecording(base, cfg.Provider, events, logger)
	p = WithRetry(p, cfg.Retry)
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	return p, nil
}
