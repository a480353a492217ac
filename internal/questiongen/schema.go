package questiongen

import (
	"github.com/abhisek/calctutor/internal/llm"
	"github.com/abhisek/calctutor/internal/tutor"
)

// QuestionSetSchema is the JSON schema for question generation responses.
var QuestionSetSchema = &llm.Schema{
	Name:        "calculus-question-set",
	Description: "A set of multiple-choice calculus questions with explained options",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 10,
				"items":    questionSchema,
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

var questionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question_id": map[string]any{
			"type":        "string",
			"description": "Short unique identifier for the question",
		},
		"question_text": map[string]any{
			"type":        "string",
			"description": "The question shown to the student. Markdown with LaTeX allowed.",
		},
		"topic": map[string]any{
			"type":        "string",
			"description": "Curriculum topic, e.g. derivatives, limits, integrals",
		},
		"subtopic": map[string]any{
			"type":        "string",
			"description": "Narrower topic, e.g. chain rule",
		},
		"criterion": map[string]any{
			"type": "string",
			"enum": []any{
				string(tutor.CriterionLogic),
				string(tutor.CriterionRealLife),
				string(tutor.CriterionAbstract),
			},
		},
		"difficulty_level": map[string]any{
			"type":    "integer",
			"minimum": tutor.MinLevel,
			"maximum": tutor.MaxLevel,
		},
		"options": map[string]any{
			"type":     "array",
			"minItems": 4,
			"maxItems": 4,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"option_label": map[string]any{"type": "string", "enum": []any{"A", "B", "C", "D"}},
					"option_text":  map[string]any{"type": "string"},
					"is_correct":   map[string]any{"type": "boolean"},
					"explanation":  map[string]any{"type": "string"},
				},
				"required":             []any{"option_label", "option_text", "is_correct", "explanation"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"question_id", "question_text", "topic", "subtopic", "criterion", "difficulty_level", "options"},
	"additionalProperties": false,
}
