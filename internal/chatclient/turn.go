package chatclient

import (
	"context"
	"errors"
	"io"

	"github.com/abhisek/calctutor/internal/assistant"
	"github.com/abhisek/calctutor/internal/toolcall"
)

// Turn is one student message and everything the assistant does in reply,
// including tool calls answered locally.
type Turn struct {
	client     *Client
	dispatcher *toolcall.Dispatcher
	threadID   string

	events  <-chan assistant.Event
	pending *assistant.RunInfo
	err     error
}

// StartTurn sends text and returns the turn reading its events.
func (c *Client) StartTurn(ctx context.Context, d *toolcall.Dispatcher, threadID, text string) (*Turn, error) {
	ch, err := c.Send(ctx, threadID, text)
	if err != nil {
		return nil, err
	}
	return &Turn{client: c, dispatcher: d, threadID: threadID, events: ch}, nil
}

// Next returns the next event of the turn, or io.EOF once the run has
// ended. After a requires_action event the following call runs the tool
// calls, submits their outputs and continues with the resumed run.
func (t *Turn) Next(ctx context.Context) (assistant.Event, error) {
	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				if t.pending == nil {
					return assistant.Event{}, io.EOF
				}
				if err := t.resume(ctx); err != nil {
					return assistant.Event{}, err
				}
				continue
			}
			t.observe(ev)
			return ev, nil
		case <-ctx.Done():
			return assistant.Event{}, ctx.Err()
		}
	}
}

// Err returns the failure that ended the turn, if any.
func (t *Turn) Err() error {
	return t.err
}

func (t *Turn) observe(ev assistant.Event) {
	switch ev.Type {
	case assistant.EventRunRequiresAction:
		if info, ok := ev.Data.(*assistant.RunInfo); ok {
			t.pending = info
		}
	case assistant.EventError:
		msg := "stream error"
		if info, ok := ev.Data.(*assistant.ErrorInfo); ok && info.Message != "" {
			msg = info.Message
		}
		t.err = errors.New(msg)
	case assistant.EventRunFailed, assistant.EventRunCancelled, assistant.EventRunExpired, assistant.EventRunIncomplete:
		if info, ok := ev.Data.(*assistant.RunInfo); ok && info.LastError != nil {
			t.err = info.LastError
		} else {
			t.err = &assistant.RunError{Status: ev.Type}
		}
	}
}

func (t *Turn) resume(ctx context.Context) error {
	run := t.pending
	t.pending = nil

	outputs := t.dispatcher.Dispatch(ctx, run.ToolCalls)
	ch, err := t.client.SubmitActions(ctx, t.threadID, run.ID, outputs)
	if err != nil {
		t.err = err
		return err
	}
	t.events = ch
	return nil
}

// Run drives the turn to the end, passing every event to fn, and returns
// the failure that ended it, if any.
func (t *Turn) Run(ctx context.Context, fn func(assistant.Event)) error {
	for {
		ev, err := t.Next(ctx)
		if errors.Is(err, io.EOF) {
			return t.err
		}
		if err != nil {
			return err
		}
		if fn != nil {
			fn(ev)
		}
	}
}
