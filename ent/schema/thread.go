package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// Thread is the remote conversation owned by exactly one student.
type Thread struct {
	ent.Schema
}

func (Thread) Fields() []ent.Field {
	return []ent.Field{
		field.String("thread_id").
			Unique().
			Immutable().
			Comment("Assistants API thread identifier"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Int("student_id").
			Unique().
			Immutable(),
	}
}

func (Thread) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("student", Student.Type).
			Ref("thread").
			Field("student_id").
			Unique().
			Required().
			Immutable(),
	}
}
