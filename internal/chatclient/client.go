// Package chatclient talks to the tutor HTTP API: enrollment, message
// streams and tool output submission.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/abhisek/calctutor/internal/assistant"
	"github.com/abhisek/calctutor/internal/students"
	"github.com/abhisek/calctutor/internal/toolcall"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client is an HTTP client for the tutor API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client for the server at baseURL. A nil httpClient uses
// one without a timeout, since streams stay open for a whole run.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, logger: logger}
}

// BaseURL returns the server address, without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Enroll returns the thread and history for a student name.
func (c *Client) Enroll(ctx context.Context, name string) (*students.Enrollment, error) {
	resp, err := c.post(ctx, "/api/students", map[string]string{"studentName": name})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out students.Enrollment
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode enrollment: %w", err)
	}
	return &out, nil
}

// Send posts a student message and streams the run it starts.
func (c *Client) Send(ctx context.Context, threadID, text string) (<-chan assistant.Event, error) {
	path := "/api/assistants/threads/" + url.PathEscape(threadID) + "/messages"
	resp, err := c.post(ctx, path, map[string]string{"content": text})
	if err != nil {
		return nil, err
	}
	return c.stream(ctx, resp.Body), nil
}

// SubmitActions posts tool outputs for a run and streams the rest of it.
func (c *Client) SubmitActions(ctx context.Context, threadID, runID string, outputs []toolcall.Output) (<-chan assistant.Event, error) {
	path := "/api/assistants/threads/" + url.PathEscape(threadID) + "/actions"
	body := struct {
		RunID           string            `json:"runId"`
		ToolCallOutputs []toolcall.Output `json:"toolCallOutputs"`
	}{RunID: runID, ToolCallOutputs: outputs}

	resp, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return c.stream(ctx, resp.Body), nil
}

// FileURL is the absolute address of an assistant file.
func (c *Client) FileURL(fileID string) string {
	return c.baseURL + assistant.FileURL(fileID)
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(raw))
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error}
}

func (c *Client) stream(ctx context.Context, body io.ReadCloser) <-chan assistant.Event {
	ch := make(chan assistant.Event, 16)
	go func() {
		defer close(ch)
		defer body.Close()
		err := readEvents(body, func(ev assistant.Event) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("event stream ended abnormally", "error", err)
			select {
			case ch <- assistant.Event{Type: assistant.EventError, Data: &assistant.ErrorInfo{Message: err.Error()}}:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}
