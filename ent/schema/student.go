package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// Student is a learner identified by display name.
type Student struct {
	ent.Schema
}

func (Student) Fields() []ent.Field {
	return []ent.Field{
		field.String("name").
			Unique().
			NotEmpty().
			Comment("Display name typed on the welcome screen"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (Student) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("thread", Thread.Type).
			Unique(),
	}
}
