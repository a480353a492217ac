package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-person",
		Description: "A person",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
				"age":  map[string]any{"type": "integer", "minimum": 0},
				"role": map[string]any{"type": "string", "enum": []string{"student", "tutor"}},
			},
			"required":             []string{"name", "age"},
			"additionalProperties": false,
		},
	}
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"name":"Ada","age":36,"role":"tutor"}`, false},
		{"optional omitted", `{"name":"Ada","age":36}`, false},
		{"missing required", `{"name":"Ada"}`, true},
		{"wrong type", `{"name":"Ada","age":"old"}`, true},
		{"enum violation", `{"name":"Ada","age":36,"role":"parent"}`, true},
		{"extra property", `{"name":"Ada","age":36,"x":1}`, true},
		{"not json", `{"name":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(testSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
			}
		})
	}
}

func TestValidateJSON_NilSchema(t *testing.T) {
	if err := ValidateJSON(nil, json.RawMessage(`not json`)); err != nil {
		t.Fatalf("nil schema should accept anything, got %v", err)
	}
}
