package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled holds *jsonschema.Schema values keyed by Schema.Name.
var compiled sync.Map

// ValidateJSON checks raw against schema. A nil schema accepts anything.
// Failures are returned as *ErrInvalidResponse.
func ValidateJSON(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	sch, err := compile(schema)
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("compile schema %q: %w", schema.Name, err)}
	}
	if err := sch.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}
	return nil
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(schema.Name); ok {
		return v.(*jsonschema.Schema), nil
	}

	// The compiler wants plain decoded JSON, not Go maps with typed slices.
	data, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}

	url := "schema://" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, err
	}
	compiled.Store(schema.Name, sch)
	return sch, nil
}
