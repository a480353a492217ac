// Package toolcall runs the function calls an assistant run asks for and
// collects their outputs for submission back to the run.
package toolcall

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/calctutor/internal/llm"
)

// Handler executes one tool call. The returned value is JSON-encoded into
// the output; a string is sent as-is.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Call is one function call requested by a run.
type Call struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Output is the result submitted for a Call.
type Output struct {
	Output     string `json:"output"`
	ToolCallID string `json:"tool_call_id"`
}

type tool struct {
	schema  *llm.Schema
	handler Handler
}

// Dispatcher maps tool names to handlers.
type Dispatcher struct {
	mu     sync.RWMutex
	tools  map[string]tool
	limit  int
	logger *slog.Logger
}

// New creates an empty Dispatcher. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		tools:  make(map[string]tool),
		limit:  4,
		logger: logger,
	}
}

// Register installs h for name. When schema is non-nil the call arguments
// are validated against it before h runs.
func (d *Dispatcher) Register(name string, schema *llm.Schema, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tools[name] = tool{schema: schema, handler: h}
}

// Names returns the registered tool names, sorted.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.tools))
	for n := range d.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs every call and returns one output per call, in call order.
// Failures are reported inside the output so the run can continue.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []Call) []Output {
	outputs := make([]Output, len(calls))

	var g errgroup.Group
	g.SetLimit(d.limit)
	for i, call := range calls {
		g.Go(func() error {
			outputs[i] = Output{ToolCallID: call.ID, Output: d.run(ctx, call)}
			return nil
		})
	}
	_ = g.Wait()

	return outputs
}

func (d *Dispatcher) run(ctx context.Context, call Call) string {
	d.mu.RLock()
	t, ok := d.tools[call.Name]
	d.mu.RUnlock()
	if !ok {
		d.logger.Warn("unknown tool call", "tool", call.Name, "tool_call_id", call.ID)
		return ""
	}

	args := json.RawMessage(call.Arguments)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := llm.ValidateJSON(t.schema, args); err != nil {
		d.logger.Warn("tool arguments rejected", "tool", call.Name, "error", err)
		return errorOutput(err)
	}

	start := time.Now()
	result, err := t.handler(ctx, args)
	if err != nil {
		d.logger.Error("tool call failed", "tool", call.Name, "tool_call_id", call.ID, "error", err)
		return errorOutput(err)
	}
	d.logger.Debug("tool call done", "tool", call.Name, "latency_ms", time.Since(start).Milliseconds())

	if s, ok := result.(string); ok {
		return s
	}
	out, err := json.Marshal(result)
	if err != nil {
		return errorOutput(fmt.Errorf("encode result: %w", err))
	}
	return string(out)
}

func errorOutput(err error) string {
	out, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(out)
}
