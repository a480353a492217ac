package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one canned answer for MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays canned responses in order and records requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider queued with responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate pops the next response. An empty queue yields
// ErrProviderUnavailable.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{}
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: "mock", StopReason: "end"}, nil
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse queues another response.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns how many times Generate ran.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
