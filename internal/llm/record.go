package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/calctutor/internal/store"
)

type purposeKey struct{}

// WithPurpose labels calls made with ctx in the event log.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}

type recordingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
	logger   *slog.Logger
}

// WithRecording appends every call to the API event log. A failure to
// record is logged and otherwise ignored.
func WithRecording(p Provider, provider string, events store.EventRepo, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &recordingProvider{inner: p, provider: provider, events: events, logger: logger}
}

func (r *recordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := r.inner.Generate(ctx, req)

	ev := store.APIEvent{
		Source:      store.SourceLLM,
		Operation:   PurposeFrom(ctx),
		Provider:    r.provider,
		Model:       r.inner.ModelID(),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: describeRequest(req),
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	// The caller's context may already be cancelled; the record should
	// still land.
	if recErr := r.events.AppendAPIEvent(context.WithoutCancel(ctx), ev); recErr != nil {
		r.logger.Warn("failed to record LLM call", "error", recErr, "purpose", ev.Operation)
	}
	return resp, err
}

func (r *recordingProvider) ModelID() string {
	return r.inner.ModelID()
}

// describeRequest renders a request as readable text for the event log.
func describeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
