package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// Assistant records each tutor assistant created remotely. The newest row
// is the one the server uses.
type Assistant struct {
	ent.Schema
}

func (Assistant) Fields() []ent.Field {
	return []ent.Field{
		field.String("assistant_id").
			Unique(),
		field.String("name"),
		field.String("model"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}
