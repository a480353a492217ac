package store

import (
	"fmt"
	"reflect"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	entschema "github.com/abhisek/calctutor/ent/schema"
)

// Table names shared by the migration and the repositories.
const (
	tableStudents   = "students"
	tableThreads    = "threads"
	tableAssistants = "assistants"
	tableAPIEvents  = "api_events"
)

// entities maps each ent schema to its table. Order matters: referenced
// tables come first.
var entities = []struct {
	table  string
	schema ent.Interface
}{
	{tableStudents, entschema.Student{}},
	{tableThreads, entschema.Thread{}},
	{tableAssistants, entschema.Assistant{}},
	{tableAPIEvents, entschema.APIEvent{}},
}

// buildTables turns the ent schema definitions into migration tables:
// one column per field, foreign keys from edge fields and the declared
// indexes.
func buildTables() ([]*schema.Table, error) {
	byType := make(map[string]*schema.Table, len(entities))
	tables := make([]*schema.Table, 0, len(entities))

	for _, e := range entities {
		typeName := reflect.TypeOf(e.schema).Name()
		t := &schema.Table{Name: e.table}

		id := &schema.Column{Name: "id", Type: field.TypeInt, Increment: true}
		t.Columns = append(t.Columns, id)
		for _, f := range e.schema.Fields() {
			d := f.Descriptor()
			if d.Err != nil {
				return nil, fmt.Errorf("%s.%s: %w", typeName, d.Name, d.Err)
			}
			if d.Name == "id" {
				id.Type = d.Info.Type
				continue
			}
			t.Columns = append(t.Columns, column(d))
		}
		t.PrimaryKey = []*schema.Column{id}

		for _, ed := range e.schema.Edges() {
			d := ed.Descriptor()
			if !d.Inverse || d.Field == "" {
				continue
			}
			ref, ok := byType[d.Type]
			if !ok {
				return nil, fmt.Errorf("%s.%s: table for %s must be declared first", typeName, d.Name, d.Type)
			}
			col, ok := t.Column(d.Field)
			if !ok {
				return nil, fmt.Errorf("%s.%s: no field %q", typeName, d.Name, d.Field)
			}
			t.ForeignKeys = append(t.ForeignKeys, &schema.ForeignKey{
				Symbol:     fmt.Sprintf("%s_%s_%s", t.Name, ref.Name, d.RefName),
				Columns:    []*schema.Column{col},
				RefTable:   ref,
				RefColumns: []*schema.Column{ref.PrimaryKey[0]},
				OnDelete:   schema.Cascade,
			})
		}

		for _, ix := range e.schema.Indexes() {
			d := ix.Descriptor()
			idx := &schema.Index{
				Name:   strings.ToLower(typeName) + "_" + strings.Join(d.Fields, "_"),
				Unique: d.Unique,
			}
			for _, name := range d.Fields {
				col, ok := t.Column(name)
				if !ok {
					return nil, fmt.Errorf("%s: index on unknown field %q", typeName, name)
				}
				idx.Columns = append(idx.Columns, col)
			}
			t.Indexes = append(t.Indexes, idx)
		}

		byType[typeName] = t
		tables = append(tables, t)
	}
	return tables, nil
}

// column maps a field to its column. Function defaults such as time.Now
// are applied by the repositories, not the database.
func column(d *field.Descriptor) *schema.Column {
	c := &schema.Column{
		Name:     d.Name,
		Type:     d.Info.Type,
		Unique:   d.Unique,
		Nullable: d.Optional || d.Nillable,
		Size:     int64(d.Size),
	}
	if d.Default != nil && reflect.TypeOf(d.Default).Kind() != reflect.Func {
		c.Default = d.Default
	}
	return c
}
