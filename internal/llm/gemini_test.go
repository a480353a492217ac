package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"label": map[string]any{"type": "string", "enum": []string{"A", "B", "C", "D"}},
			"level": map[string]any{"type": "integer"},
			"options": map[string]any{
				"type":     "array",
				"minItems": 4,
				"maxItems": 4,
				"items":    map[string]any{"type": "boolean"},
			},
		},
		"required": []string{"label", "level"},
	}

	s := geminiSchema(def)

	if s.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT, got %s", s.Type)
	}
	if len(s.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(s.Properties))
	}
	if got := s.Properties["label"].Enum; len(got) != 4 {
		t.Fatalf("expected 4 enum values, got %v", got)
	}
	if s.Properties["level"].Type != genai.TypeInteger {
		t.Fatalf("expected INTEGER, got %s", s.Properties["level"].Type)
	}
	opts := s.Properties["options"]
	if opts.Items.Type != genai.TypeBoolean {
		t.Fatalf("expected BOOLEAN items, got %s", opts.Items.Type)
	}
	if opts.MinItems == nil || *opts.MinItems != 4 {
		t.Fatalf("expected minItems 4, got %v", opts.MinItems)
	}
	if len(s.Required) != 2 {
		t.Fatalf("expected 2 required, got %v", s.Required)
	}
}

func TestStringList(t *testing.T) {
	if got := stringList([]any{"a", 1, "b"}); len(got) != 2 {
		t.Fatalf("expected 2 strings, got %v", got)
	}
	if got := stringList(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
