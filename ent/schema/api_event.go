package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// APIEvent records every outbound call to the Assistants API or to an LLM
// provider for cost tracking and debugging.
type APIEvent struct {
	ent.Schema
}

func (APIEvent) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("id"),
		field.Time("timestamp").
			Default(time.Now).
			Immutable(),
		field.String("source").
			Comment("assistant or llm"),
		field.String("operation").
			Comment("e.g. create_thread, create_run, question-gen"),
		field.String("provider").
			Default(""),
		field.String("model").
			Default(""),
		field.String("thread_id").
			Default(""),
		field.String("run_id").
			Default(""),
		field.Int("input_tokens").
			Default(0),
		field.Int("output_tokens").
			Default(0),
		field.Int64("latency_ms").
			Comment("Wall-clock time for the request"),
		field.Bool("success"),
		field.Text("error_message").
			Default(""),
		field.Text("request_body").
			Default(""),
		field.Text("response_body").
			Default(""),
	}
}

func (APIEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("timestamp"),
		index.Fields("source", "operation"),
	}
}
