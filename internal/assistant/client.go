// Package assistant talks to the OpenAI Assistants API: it bootstraps the
// tutor assistant, manages threads and relays runs as event streams.
package assistant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/abhisek/calctutor/internal/llm"
	"github.com/abhisek/calctutor/internal/store"
	"github.com/abhisek/calctutor/internal/toolcall"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"

	pageSize = 100
)

// Client wraps the Assistants API endpoints the tutor uses and records
// every call in the API event log.
type Client struct {
	api    *openai.Client
	events store.EventRepo
	logger *slog.Logger
}

// NewClient builds a Client. events may be nil to skip recording.
func NewClient(cfg Config, events store.EventRepo, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Client{api: openai.NewClientWithConfig(oc), events: events, logger: logger}, nil
}

// AssistantSpec describes an assistant to create.
type AssistantSpec struct {
	Name         string
	Model        string
	Instructions string
	Tools        []*llm.Schema
}

// CreateAssistant creates a remote assistant with function tools and
// returns its id.
func (c *Client) CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error) {
	tools := make([]openai.AssistantTool, 0, len(spec.Tools))
	for _, t := range spec.Tools {
		tools = append(tools, openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Definition,
			},
		})
	}

	start := time.Now()
	a, err := c.api.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        spec.Model,
		Name:         &spec.Name,
		Instructions: &spec.Instructions,
		Tools:        tools,
	})
	c.record(ctx, call{op: "create_assistant", model: spec.Model, start: start, err: err})
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	return a.ID, nil
}

// CreateThread creates an empty thread and returns its id.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	start := time.Now()
	th, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	c.record(ctx, call{op: "create_thread", threadID: th.ID, start: start, err: err})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return th.ID, nil
}

// AddMessage appends a user message to a thread.
func (c *Client) AddMessage(ctx context.Context, threadID, text string) error {
	start := time.Now()
	_, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{Role: roleUser, Content: text})
	c.record(ctx, call{op: "create_message", threadID: threadID, start: start, err: err})
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// StartRun starts the assistant on a thread.
func (c *Client) StartRun(ctx context.Context, threadID, assistantID string) (openai.Run, error) {
	start := time.Now()
	run, err := c.api.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: assistantID})
	c.record(ctx, call{op: "create_run", threadID: threadID, runID: run.ID, start: start, err: err})
	if err != nil {
		return run, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// Run fetches the current state of a run. Only failures and final states
// are recorded so polling does not flood the event log.
func (c *Client) Run(ctx context.Context, threadID, runID string) (openai.Run, error) {
	start := time.Now()
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil || isFinal(run.Status) {
		c.record(ctx, call{op: "retrieve_run", threadID: threadID, runID: runID, model: run.Model, usage: run.Usage, start: start, err: err})
	}
	if err != nil {
		return run, fmt.Errorf("retrieve run: %w", err)
	}
	return run, nil
}

// RunMessages lists the messages a run produced, oldest first.
func (c *Client) RunMessages(ctx context.Context, threadID, runID string) ([]openai.Message, error) {
	start := time.Now()
	msgs, err := c.listMessages(ctx, threadID, &runID)
	if err != nil {
		c.record(ctx, call{op: "list_messages", threadID: threadID, runID: runID, start: start, err: err})
		return nil, err
	}
	return msgs, nil
}

// SubmitToolOutputs hands tool results back to a run waiting on them.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []toolcall.Output) (openai.Run, error) {
	req := openai.SubmitToolOutputsRequest{ToolOutputs: make([]openai.ToolOutput, len(outputs))}
	for i, o := range outputs {
		req.ToolOutputs[i] = openai.ToolOutput{ToolCallID: o.ToolCallID, Output: o.Output}
	}

	start := time.Now()
	run, err := c.api.SubmitToolOutputs(ctx, threadID, runID, req)
	c.record(ctx, call{op: "submit_tool_outputs", threadID: threadID, runID: runID, start: start, err: err})
	if err != nil {
		return run, fmt.Errorf("submit tool outputs: %w", err)
	}
	return run, nil
}

// HistoryMessage is one message of a thread rendered for display.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// History returns a thread's messages oldest first. Image parts are
// rendered as markdown links to the file proxy.
func (c *Client) History(ctx context.Context, threadID string) ([]HistoryMessage, error) {
	start := time.Now()
	msgs, err := c.listMessages(ctx, threadID, nil)
	c.record(ctx, call{op: "list_messages", threadID: threadID, start: start, err: err})
	if err != nil {
		return nil, err
	}

	out := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, HistoryMessage{Role: m.Role, Text: renderContent(m.Content)})
	}
	return out, nil
}

// FileContent streams a file produced by the assistant. The caller closes
// the reader.
func (c *Client) FileContent(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	start := time.Now()
	raw, err := c.api.GetFileContent(ctx, fileID)
	c.record(ctx, call{op: "file_content", start: start, err: err})
	if err != nil {
		return nil, "", fmt.Errorf("file content: %w", err)
	}
	ct := raw.Header().Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return raw.ReadCloser, ct, nil
}

func (c *Client) listMessages(ctx context.Context, threadID string, runID *string) ([]openai.Message, error) {
	limit, order := pageSize, "asc"
	var (
		after *string
		out   []openai.Message
	)
	for {
		page, err := c.api.ListMessage(ctx, threadID, &limit, &order, after, nil, runID)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		out = append(out, page.Messages...)
		if !page.HasMore || page.LastID == nil {
			return out, nil
		}
		after = page.LastID
	}
}

// FileURL is where the server proxies assistant files.
func FileURL(fileID string) string {
	return "/api/files/" + fileID
}

// renderContent returns a message's first text part. A message without
// text renders its first image as a markdown link.
func renderContent(parts []openai.MessageContent) string {
	image := ""
	for _, p := range parts {
		switch {
		case p.Text != nil:
			return p.Text.Value
		case image != "":
		case p.ImageFile != nil:
			image = fmt.Sprintf("![%s](%s)", p.ImageFile.FileID, FileURL(p.ImageFile.FileID))
		case p.ImageURL != nil:
			image = fmt.Sprintf("![image](%s)", p.ImageURL.URL)
		}
	}
	return image
}

type call struct {
	op       string
	threadID string
	runID    string
	model    string
	usage    openai.Usage
	start    time.Time
	err      error
}

func (c *Client) record(ctx context.Context, cl call) {
	if c.events == nil {
		return
	}
	ev := store.APIEvent{
		Source:       store.SourceAssistant,
		Operation:    cl.op,
		Provider:     "openai",
		Model:        cl.model,
		ThreadID:     cl.threadID,
		RunID:        cl.runID,
		InputTokens:  cl.usage.PromptTokens,
		OutputTokens: cl.usage.CompletionTokens,
		LatencyMs:    time.Since(cl.start).Milliseconds(),
		Success:      cl.err == nil,
	}
	if cl.err != nil {
		ev.ErrorMessage = cl.err.Error()
	}
	if err := c.events.AppendAPIEvent(context.WithoutCancel(ctx), ev); err != nil {
		c.logger.Warn("failed to record assistant call", "error", err, "operation", cl.op)
	}
}

func isFinal(s openai.RunStatus) bool {
	switch s {
	case openai.RunStatusCompleted, openai.RunStatusFailed, openai.RunStatusCancelled,
		openai.RunStatusExpired, openai.RunStatusIncomplete, openai.RunStatusRequiresAction:
		return true
	}
	return false
}
