package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/abhisek/calctutor/internal/toolcall"
)

// Relay turns a run into an event stream by polling it.
type Relay struct {
	client      *Client
	assistantID string
	cfg         RelayConfig
	logger      *slog.Logger
}

// NewRelay creates a Relay that starts runs on assistantID.
func NewRelay(client *Client, assistantID string, cfg RelayConfig, logger *slog.Logger) *Relay {
	def := DefaultRelayConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = def.RunTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{client: client, assistantID: assistantID, cfg: cfg, logger: logger}
}

// Send posts text to the thread, starts a run and streams it. The channel
// closes after a terminal event or when ctx is done.
func (r *Relay) Send(ctx context.Context, threadID, text string) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		out := emitter{ctx: ctx, ch: ch}

		if err := r.client.AddMessage(ctx, threadID, text); err != nil {
			out.fail(err)
			return
		}
		run, err := r.client.StartRun(ctx, threadID, r.assistantID)
		if err != nil {
			out.fail(err)
			return
		}
		if !out.send(Event{Type: EventRunCreated, Data: runInfo(run)}) {
			return
		}
		r.poll(ctx, out, threadID, run, newTracker(r.logger))
	}()
	return ch
}

// Resume submits tool outputs for a run waiting on them and streams the
// rest of the run. Messages the run produced before the tool call are not
// sent again.
func (r *Relay) Resume(ctx context.Context, threadID, runID string, outputs []toolcall.Output) <-chan Event {
	ch := make(chan Event, 16)
	go func() {
		defer close(ch)
		out := emitter{ctx: ctx, ch: ch}

		seen := newTracker(r.logger)
		msgs, err := r.client.RunMessages(ctx, threadID, runID)
		if err != nil {
			out.fail(err)
			return
		}
		seen.markSeen(msgs)

		run, err := r.client.SubmitToolOutputs(ctx, threadID, runID, outputs)
		if err != nil {
			out.fail(err)
			return
		}
		r.poll(ctx, out, threadID, run, seen)
	}()
	return ch
}

func (r *Relay) poll(ctx context.Context, out emitter, threadID string, run openai.Run, t *tracker) {
	deadline := time.NewTimer(r.cfg.RunTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		msgs, err := r.client.RunMessages(ctx, threadID, run.ID)
		if err != nil {
			out.fail(err)
			return
		}
		for _, ev := range t.diff(msgs) {
			if !out.send(ev) {
				return
			}
		}

		if typ, ok := terminalEvent(run.Status); ok {
			for _, ev := range t.complete() {
				if !out.send(ev) {
					return
				}
			}
			out.send(Event{Type: typ, Data: runInfo(run)})
			r.logger.Debug("run finished", "thread_id", threadID, "run_id", run.ID, "status", run.Status)
			return
		}

		select {
		case <-ctx.Done():
			r.logger.Debug("relay stopped", "run_id", run.ID, "reason", ctx.Err())
			return
		case <-deadline.C:
			out.fail(fmt.Errorf("run %s did not finish within %s", run.ID, r.cfg.RunTimeout))
			return
		case <-ticker.C:
		}

		run, err = r.client.Run(ctx, threadID, run.ID)
		if err != nil {
			out.fail(err)
			return
		}
	}
}

func terminalEvent(s openai.RunStatus) (string, bool) {
	switch s {
	case openai.RunStatusRequiresAction:
		return EventRunRequiresAction, true
	case openai.RunStatusCompleted:
		return EventRunCompleted, true
	case openai.RunStatusFailed:
		return EventRunFailed, true
	case openai.RunStatusCancelled:
		return EventRunCancelled, true
	case openai.RunStatusExpired:
		return EventRunExpired, true
	case openai.RunStatusIncomplete:
		return EventRunIncomplete, true
	}
	return "", false
}

func runInfo(run openai.Run) *RunInfo {
	info := &RunInfo{ID: run.ID, ThreadID: run.ThreadID, Status: string(run.Status)}
	if ra := run.RequiredAction; ra != nil && ra.SubmitToolOutputs != nil {
		for _, tc := range ra.SubmitToolOutputs.ToolCalls {
			info.ToolCalls = append(info.ToolCalls, toolcall.Call{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	switch run.Status {
	case openai.RunStatusFailed, openai.RunStatusCancelled, openai.RunStatusExpired, openai.RunStatusIncomplete:
		info.LastError = &RunError{Status: string(run.Status)}
		if run.LastError != nil {
			info.LastError.Code = string(run.LastError.Code)
			info.LastError.Message = run.LastError.Message
		}
	}
	return info
}

type emitter struct {
	ctx context.Context
	ch  chan<- Event
}

func (e emitter) send(ev Event) bool {
	select {
	case e.ch <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e emitter) fail(err error) {
	if e.ctx.Err() != nil {
		return
	}
	e.send(Event{Type: EventError, Data: &ErrorInfo{Message: err.Error()}})
}

// tracker remembers what has been relayed for each assistant message.
type tracker struct {
	order  []string
	msgs   map[string]*trackedMessage
	logger *slog.Logger
}

type trackedMessage struct {
	text        string
	images      map[string]bool
	annotations []Annotation
	completed   bool
}

func newTracker(logger *slog.Logger) *tracker {
	return &tracker{msgs: make(map[string]*trackedMessage), logger: logger}
}

// diff returns created and delta events for changes since the last call.
func (t *tracker) diff(msgs []openai.Message) []Event {
	var evs []Event
	for _, m := range msgs {
		if m.Role != roleAssistant {
			continue
		}
		tm, ok := t.msgs[m.ID]
		if !ok {
			tm = &trackedMessage{images: make(map[string]bool)}
			t.msgs[m.ID] = tm
			t.order = append(t.order, m.ID)
			evs = append(evs, Event{Type: EventMessageCreated, Data: &MessageInfo{ID: m.ID, Role: m.Role}})
		}

		text, images, anns := splitContent(m.Content)
		switch {
		case text == tm.text:
		case strings.HasPrefix(text, tm.text):
			evs = append(evs, Event{Type: EventMessageDelta, Data: &MessageDelta{ID: m.ID, Text: text[len(tm.text):]}})
			tm.text = text
		default:
			// Deltas only append; the completed event carries the rewrite.
			t.logger.Warn("message text rewritten", "message_id", m.ID, "old_len", len(tm.text), "new_len", len(text))
			tm.text = text
		}
		for _, id := range images {
			if tm.images[id] {
				continue
			}
			tm.images[id] = true
			evs = append(evs, Event{Type: EventMessageDelta, Data: &MessageDelta{ID: m.ID, ImageFileID: id}})
		}
		tm.annotations = anns
	}
	return evs
}

// complete returns a completed event for every message not yet completed.
func (t *tracker) complete() []Event {
	var evs []Event
	for _, id := range t.order {
		tm := t.msgs[id]
		if tm.completed {
			continue
		}
		tm.completed = true
		evs = append(evs, Event{Type: EventMessageCompleted, Data: &MessageCompleted{ID: id, Text: tm.text, Annotations: tm.annotations}})
	}
	return evs
}

// markSeen records msgs as fully relayed.
func (t *tracker) markSeen(msgs []openai.Message) {
	t.diff(msgs)
	t.complete()
}

// splitContent returns the concatenated text, image file ids and
// annotations of a message.
func splitContent(parts []openai.MessageContent) (string, []string, []Annotation) {
	var (
		text   strings.Builder
		images []string
		anns   []Annotation
	)
	for _, p := range parts {
		switch {
		case p.Text != nil:
			if text.Len() > 0 {
				text.WriteString("\n\n")
			}
			text.WriteString(p.Text.Value)
			anns = append(anns, parseAnnotations(p.Text.Annotations)...)
		case p.ImageFile != nil:
			images = append(images, p.ImageFile.FileID)
		}
	}
	return text.String(), images, anns
}

// parseAnnotations reads file_path and file_citation annotations, which
// the SDK leaves as decoded JSON.
func parseAnnotations(raw []any) []Annotation {
	var out []Annotation
	for _, a := range raw {
		m, ok := a.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := m["type"].(string)
		text, _ := m["text"].(string)
		ref, _ := m[typ].(map[string]any)
		fileID, _ := ref["file_id"].(string)
		if typ == "" || fileID == "" {
			continue
		}
		out = append(out, Annotation{Type: typ, Text: text, FileID: fileID})
	}
	return out
}
