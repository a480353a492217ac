package assistant

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/calctutor/internal/toolcall"
)

// Stream event names, in the Assistants API vocabulary.
const (
	EventRunCreated        = "thread.run.created"
	EventMessageCreated    = "thread.message.created"
	EventMessageDelta      = "thread.message.delta"
	EventMessageCompleted  = "thread.message.completed"
	EventRunRequiresAction = "thread.run.requires_action"
	EventRunCompleted      = "thread.run.completed"
	EventRunFailed         = "thread.run.failed"
	EventRunCancelled      = "thread.run.cancelled"
	EventRunExpired        = "thread.run.expired"
	EventRunIncomplete     = "thread.run.incomplete"
	EventError             = "error"
	EventDone              = "done"
)

// Event is one item of a relayed run stream. Data holds one of the payload
// types below, matching Type.
type Event struct {
	Type string
	Data any
}

// Terminal reports whether no further events follow for this run.
func (e Event) Terminal() bool {
	switch e.Type {
	case EventRunRequiresAction, EventRunCompleted, EventRunFailed,
		EventRunCancelled, EventRunExpired, EventRunIncomplete, EventError, EventDone:
		return true
	}
	return false
}

// RunInfo is the payload of run events.
type RunInfo struct {
	ID        string          `json:"id"`
	ThreadID  string          `json:"thread_id"`
	Status    string          `json:"status"`
	ToolCalls []toolcall.Call `json:"tool_calls,omitempty"`
	LastError *RunError       `json:"last_error,omitempty"`
}

// MessageInfo is the payload of thread.message.created.
type MessageInfo struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// MessageDelta carries new text or one image for a message.
type MessageDelta struct {
	ID          string `json:"id"`
	Text        string `json:"text,omitempty"`
	ImageFileID string `json:"image_file_id,omitempty"`
}

// MessageCompleted carries the final text and its annotations.
type MessageCompleted struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Annotation marks a span of message text that refers to a file.
type Annotation struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	FileID string `json:"file_id"`
}

// ErrorInfo is the payload of error events.
type ErrorInfo struct {
	Message string `json:"message"`
}

// RunError describes why a run ended without completing.
type RunError struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e *RunError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("run %s", e.Status)
	}
	return fmt.Sprintf("run %s: %s", e.Status, e.Message)
}

// DecodeEvent rebuilds an Event from its wire name and JSON payload.
func DecodeEvent(typ string, data []byte) (Event, error) {
	var payload any
	switch typ {
	case EventRunCreated, EventRunRequiresAction, EventRunCompleted, EventRunFailed,
		EventRunCancelled, EventRunExpired, EventRunIncomplete:
		payload = &RunInfo{}
	case EventMessageCreated:
		payload = &MessageInfo{}
	case EventMessageDelta:
		payload = &MessageDelta{}
	case EventMessageCompleted:
		payload = &MessageCompleted{}
	case EventError:
		payload = &ErrorInfo{}
	case EventDone:
		return Event{Type: EventDone}, nil
	default:
		return Event{Type: typ, Data: json.RawMessage(data)}, nil
	}
	if err := json.Unmarshal(data, payload); err != nil {
		return Event{}, fmt.Errorf("decode %s: %w", typ, err)
	}
	return Event{Type: typ, Data: payload}, nil
}
