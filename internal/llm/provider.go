// Package llm is a provider-neutral client for structured JSON generation.
// It backs the local question generator used when the assistant calls
// generateQuestions.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a response for a prompt, optionally constrained to a
// JSON schema.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier requests are sent to.
	ModelID() string
}

// Request is a single generation call.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, asks the backend for JSON matching it. The
	// response is validated before it is returned.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the sender of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names a JSON Schema document. Name doubles as the cache key for
// compiled schemas, so it must be unique per definition.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the backend output.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string // "end" or "max_tokens"
}

// Usage reports token counts for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
