package questiongen

import (
	"strings"
	"testing"

	"github.com/abhisek/calctutor/internal/tutor"
)

func validQuestion() *tutor.Question {
	return &tutor.Question{
		ID:              "q1",
		Text:            "What is the derivative of sin(x)?",
		Topic:           "derivatives",
		Criterion:       tutor.CriterionLogic,
		DifficultyLevel: 1,
		Options: []tutor.Option{
			{Label: "A", Text: "cos(x)", IsCorrect: true, Explanation: "Standard result."},
			{Label: "B", Text: "-cos(x)", Explanation: "Sign error."},
			{Label: "C", Text: "sin(x)", Explanation: "Unchanged function."},
			{Label: "D", Text: "-sin(x)", Explanation: "That is the derivative of cos(x)."},
		},
	}
}

func TestStructural(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *tutor.Question)
		wantMsg string
	}{
		{"valid", func(*tutor.Question) {}, ""},
		{"empty text", func(q *tutor.Question) { q.Text = "" }, "question_text is empty"},
		{"long text", func(q *tutor.Question) { q.Text = strings.Repeat("a", 1501) }, "exceeds"},
		{"no topic", func(q *tutor.Question) { q.Topic = "" }, "topic is empty"},
		{"bad criterion", func(q *tutor.Question) { q.Criterion = "vibes" }, "criterion"},
		{"difficulty low", func(q *tutor.Question) { q.DifficultyLevel = 0 }, "difficulty_level"},
		{"difficulty high", func(q *tutor.Question) { q.DifficultyLevel = 6 }, "difficulty_level"},
		{"three options", func(q *tutor.Question) { q.Options = q.Options[:3] }, "expected 4 options"},
		{"wrong label", func(q *tutor.Question) { q.Options[2].Label = "X" }, "label"},
		{"empty option", func(q *tutor.Question) { q.Options[1].Text = "" }, "text is empty"},
		{"no explanation", func(q *tutor.Question) { q.Options[3].Explanation = "" }, "explanation is empty"},
		{"repeated option", func(q *tutor.Question) { q.Options[2].Text = "COS(x)" }, "repeats"},
		{"two correct", func(q *tutor.Question) { q.Options[1].IsCorrect = true }, "exactly one correct"},
		{"none correct", func(q *tutor.Question) { q.Options[0].IsCorrect = false }, "exactly one correct"},
	}

	v := &StructuralValidator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(q)
			err := v.Validate(q, GenerateInput{})
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantMsg)
			}
			if !strings.Contains(err.Message, tt.wantMsg) {
				t.Errorf("message %q does not contain %q", err.Message, tt.wantMsg)
			}
			if err.Validator != "structural" || !err.Retryable {
				t.Errorf("unexpected error fields: %+v", err)
			}
		})
	}
}

func TestDedupValidator(t *testing.T) {
	v := &DedupValidator{}
	q := validQuestion()

	if err := v.Validate(q, GenerateInput{PriorQuestions: []string{"Something else"}}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := v.Validate(q, GenerateInput{PriorQuestions: []string{"  what is the DERIVATIVE of sin(x)? "}}); err == nil {
		t.Fatal("expected duplicate to be rejected")
	}
}
