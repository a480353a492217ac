package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// Event sources.
const (
	SourceAssistant = "assistant"
	SourceLLM       = "llm"
)

// APIEvent is one outbound API call: an Assistants API request or a
// question-generation LLM request.
type APIEvent struct {
	ID           int64
	Timestamp    time.Time
	Source       string
	Operation    string
	Provider     string
	Model        string
	ThreadID     string
	RunID        string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// QueryOpts filters event queries. Zero values match everything.
type QueryOpts struct {
	Limit     int
	Source    string
	Operation string
	ThreadID  string
	From      time.Time
}

// UsageStat aggregates events sharing a grouping key.
type UsageStat struct {
	Key          string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo stores and queries API call events.
type EventRepo interface {
	// AppendAPIEvent records an API call. A zero Timestamp is set to now.
	AppendAPIEvent(ctx context.Context, ev APIEvent) error

	// QueryAPIEvents returns matching events, newest first.
	QueryAPIEvents(ctx context.Context, opts QueryOpts) ([]APIEvent, error)

	// GetAPIEvent returns a single event, or nil if not found.
	GetAPIEvent(ctx context.Context, id int64) (*APIEvent, error)

	// UsageByOperation groups events by "source/operation".
	UsageByOperation(ctx context.Context) ([]UsageStat, error)

	// UsageByModel groups LLM events by model.
	UsageByModel(ctx context.Context) ([]UsageStat, error)
}

var apiEventFields = []string{
	"id", "timestamp", "source", "operation", "provider", "model",
	"thread_id", "run_id", "input_tokens", "output_tokens", "latency_ms",
	"success", "error_message", "request_body", "response_body",
}

type eventRepo struct {
	db      *sql.DB
	dialect string
}

func (r *eventRepo) AppendAPIEvent(ctx context.Context, ev APIEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ev.Timestamp = ev.Timestamp.UTC()
	query, args := entsql.Dialect(r.dialect).Insert(tableAPIEvents).
		Columns(apiEventFields[1:]...).
		Values(
			ev.Timestamp, ev.Source, ev.Operation, ev.Provider, ev.Model,
			ev.ThreadID, ev.RunID, ev.InputTokens, ev.OutputTokens, ev.LatencyMs,
			ev.Success, ev.ErrorMessage, ev.RequestBody, ev.ResponseBody,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert api event: %w", err)
	}
	return nil
}

func (r *eventRepo) selectEvents() *entsql.Selector {
	b := entsql.Dialect(r.dialect)
	t := b.Table(tableAPIEvents)
	return b.Select(t.Columns(apiEventFields...)...).From(t)
}

func (r *eventRepo) QueryAPIEvents(ctx context.Context, opts QueryOpts) ([]APIEvent, error) {
	sel := r.selectEvents()

	var preds []*entsql.Predicate
	if opts.Source != "" {
		preds = append(preds, entsql.EQ(sel.C("source"), opts.Source))
	}
	if opts.Operation != "" {
		preds = append(preds, entsql.EQ(sel.C("operation"), opts.Operation))
	}
	if opts.ThreadID != "" {
		preds = append(preds, entsql.EQ(sel.C("thread_id"), opts.ThreadID))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE(sel.C("timestamp"), opts.From.UTC()))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc(sel.C("id")))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query api events: %w", err)
	}
	defer rows.Close()

	var out []APIEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetAPIEvent(ctx context.Context, id int64) (*APIEvent, error) {
	sel := r.selectEvents()
	query, args := sel.Where(entsql.EQ(sel.C("id"), id)).Query()

	ev, err := scanEvent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return ev, err
}

func (r *eventRepo) UsageByOperation(ctx context.Context) ([]UsageStat, error) {
	events, err := r.QueryAPIEvents(ctx, QueryOpts{})
	if err != nil {
		return nil, err
	}
	return aggregate(events, func(ev APIEvent) string {
		return ev.Source + "/" + ev.Operation
	}), nil
}

func (r *eventRepo) UsageByModel(ctx context.Context) ([]UsageStat, error) {
	events, err := r.QueryAPIEvents(ctx, QueryOpts{Source: SourceLLM})
	if err != nil {
		return nil, err
	}
	return aggregate(events, func(ev APIEvent) string { return ev.Model }), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*APIEvent, error) {
	var ev APIEvent
	err := row.Scan(
		&ev.ID, &ev.Timestamp, &ev.Source, &ev.Operation, &ev.Provider, &ev.Model,
		&ev.ThreadID, &ev.RunID, &ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs,
		&ev.Success, &ev.ErrorMessage, &ev.RequestBody, &ev.ResponseBody,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan api event: %w", err)
	}
	return &ev, nil
}

// aggregate groups events by key, sorted by key.
func aggregate(events []APIEvent, key func(APIEvent) string) []UsageStat {
	type acc struct {
		UsageStat
		latency int64
	}
	groups := make(map[string]*acc)
	for _, ev := range events {
		k := key(ev)
		g, ok := groups[k]
		if !ok {
			g = &acc{UsageStat: UsageStat{Key: k}}
			groups[k] = g
		}
		g.Calls++
		if !ev.Success {
			g.Failures++
		}
		g.InputTokens += ev.InputTokens
		g.OutputTokens += ev.OutputTokens
		g.latency += ev.LatencyMs
	}

	out := make([]UsageStat, 0, len(groups))
	for _, g := range groups {
		g.AvgLatencyMs = g.latency / int64(g.Calls)
		out = append(out, g.UsageStat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
