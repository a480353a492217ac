package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: "claude-haiku-4-5-20251001"}
}

func TestAnthropicProvider_HappyPath(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "msg_test",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": `{"name":"Ada","age":36}`},
			},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	resp, err := p.Generate(context.Background(), Request{
		System:    "You are a calculus tutor.",
		Messages:  []Message{{Role: RoleUser, Content: "Describe a person."}},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.TotalTokens != 80 {
		t.Fatalf("expected 80 total tokens, got %d", resp.Usage.TotalTokens)
	}
	if string(resp.Content) != `{"name":"Ada","age":36}` {
		t.Fatalf("unexpected content %s", resp.Content)
	}
}

func TestAnthropicProvider_RateLimit(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		})
	}

	p := newTestAnthropicProvider(t, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "x"}},
		MaxTokens: 100,
	})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %T (%v)", err, err)
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		provider, in, want string
	}{
		{"anthropic", "claude-haiku", "claude-haiku-4-5-20251001"},
		{"anthropic", "claude-3-opus-20240229", "claude-3-opus-20240229"},
		{"gemini", "gemini-flash", "gemini-2.5-flash"},
		{"openai", "gpt-4o-mini", "gpt-4o-mini"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.provider, tt.in); got != tt.want {
			t.Errorf("resolveModel(%q, %q) = %q, want %q", tt.provider, tt.in, got, tt.want)
		}
	}
}
