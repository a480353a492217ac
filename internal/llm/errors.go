package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit is returned when the backend answers 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse is returned when output is not valid JSON or does not
// match the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers network failures and 5xx answers.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "LLM provider unavailable"
	}
	return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means the output was cut off by the token limit.
type ErrMaxTokensExceeded struct {
	MaxTokens int
}

func (e *ErrMaxTokensExceeded) Error() string {
	return fmt.Sprintf("response truncated at %d tokens", e.MaxTokens)
}

// classifyStatus maps an HTTP status from any backend SDK onto the error
// types above.
func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
