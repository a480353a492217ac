package tutor

import "github.com/abhisek/calctutor/internal/llm"

// Tool names the assistant may call.
const (
	ToolGenerateQuestions = "generateQuestions"
	ToolEvaluateAnswer    = "evaluateAnswer"
)

// GenerateQuestionsSchema describes the generateQuestions arguments.
var GenerateQuestionsSchema = &llm.Schema{
	Name:        ToolGenerateQuestions,
	Description: "Generate calculus questions based on student profile",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"snapshot": snapshotSchema([]string{"student_id", "levels", "weak_areas", "strong_areas"}),
		},
		"required": []string{"snapshot"},
	},
}

// EvaluateAnswerSchema describes the evaluateAnswer arguments.
var EvaluateAnswerSchema = &llm.Schema{
	Name:        ToolEvaluateAnswer,
	Description: "Evaluate student's answer and update their profile",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question_id":   map[string]any{"type": "string"},
					"question_text": map[string]any{"type": "string"},
					"options": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"option_label": map[string]any{"type": "string"},
								"option_text":  map[string]any{"type": "string"},
								"is_correct":   map[string]any{"type": "boolean"},
								"explanation":  map[string]any{"type": "string"},
							},
						},
					},
				},
				"required": []string{"question_id", "question_text", "options"},
			},
			"student_answer": map[string]any{"type": "string"},
			"snapshot":       snapshotSchema(nil),
		},
		"required": []string{"question", "student_answer", "snapshot"},
	},
}

// Tools returns the function tools installed on the assistant.
func Tools() []*llm.Schema {
	return []*llm.Schema{GenerateQuestionsSchema, EvaluateAnswerSchema}
}

func snapshotSchema(required []string) map[string]any {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"student_id": map[string]any{"type": "string"},
			"levels": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":  map[string]any{"type": "string"},
						"value": map[string]any{"type": "number"},
					},
				},
			},
			"weak_areas":               map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"strong_areas":             map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"desired_difficulty_level": map[string]any{"type": "number"},
		},
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
