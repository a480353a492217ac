package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/calctutor/internal/llm"
	"github.com/abhisek/calctutor/internal/tutor"
)

const questionJSON = `{
	"question_id": "%s",
	"question_text": "%s",
	"topic": "derivatives",
	"subtopic": "power rule",
	"criterion": "logic_based",
	"difficulty_level": 2,
	"options": [
		{"option_label": "A", "option_text": "x^2", "is_correct": false, "explanation": "Forgot the coefficient."},
		{"option_label": "B", "option_text": "3x^2", "is_correct": true, "explanation": "Power rule."},
		{"option_label": "C", "option_text": "3x^3", "is_correct": false, "explanation": "Exponent not reduced."},
		{"option_label": "D", "option_text": "x^4/4", "is_correct": false, "explanation": "That is the antiderivative."}
	]
}`

func questionSet(pairs ...string) json.RawMessage {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, strings.Replace(strings.Replace(questionJSON, "%s", pairs[i], 1), "%s", pairs[i+1], 1))
	}
	return json.RawMessage(`{"questions": [` + strings.Join(parts, ",") + `]}`)
}

func testSnapshot() tutor.StudentSnapshot {
	snap := tutor.NewSnapshot("ada")
	snap.WeakAreas = []string{"chain rule"}
	snap.RecentHistory = []tutor.QuestionAttempt{
		{QuestionID: "old-1", Topic: "limits", Criterion: tutor.CriterionAbstract, StudentAnswer: "C", Correct: false},
	}
	return snap
}

func TestGenerate_QuestionSet(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: questionSet("q1", "What is d/dx x^3?", "q2", "What is d/dx 2x^3?"),
	})
	gen := New(mock, DefaultConfig())

	qs, err := gen.Generate(context.Background(), GenerateInput{Snapshot: testSnapshot(), Count: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	if qs[0].ID != "q1" || qs[1].ID != "q2" {
		t.Errorf("unexpected ids: %q, %q", qs[0].ID, qs[1].ID)
	}
	if c, ok := qs[0].CorrectOption(); !ok || c.Label != "B" {
		t.Errorf("expected B correct, got %+v", c)
	}

	req := mock.Calls[0]
	if req.Schema != QuestionSetSchema {
		t.Error("expected question set schema")
	}
	msg := req.Messages[0].Content
	for _, want := range []string{"Questions requested: 2", "Weak areas: chain rule", "old-1 (limits, abstract_based): answered C"} {
		if !strings.Contains(msg, want) {
			t.Errorf("user message missing %q:\n%s", want, msg)
		}
	}
}

func TestGenerate_AssignsMissingAndDuplicateIDs(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: questionSet("", "Question one?", "dup", "Question two?", "dup", "Question three?"),
	})
	gen := New(mock, DefaultConfig())

	qs, err := gen.Generate(context.Background(), GenerateInput{Snapshot: testSnapshot()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qs[0].ID == "" {
		t.Error("expected generated id for blank question_id")
	}
	if qs[1].ID != "dup" {
		t.Errorf("first dup id should be kept, got %q", qs[1].ID)
	}
	if qs[2].ID == "dup" || qs[2].ID == "" {
		t.Errorf("second dup id should be replaced, got %q", qs[2].ID)
	}
}

func TestGenerate_DuplicateWithinSet(t *testing.T) {
	dup := llm.MockResponse{Content: questionSet("q1", "What is d/dx x^3?", "q2", "what is  d/dx x^3?")}
	mock := llm.NewMockProvider(dup, dup)
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), GenerateInput{Snapshot: testSnapshot()})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if valErr.Validator != "dedup" {
		t.Errorf("expected dedup validator, got %q", valErr.Validator)
	}
	if !strings.Contains(err.Error(), "question 2") {
		t.Errorf("expected error to name question 2: %v", err)
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected 2 attempts, got %d", mock.CallCount())
	}
}

func TestGenerate_PriorQuestionRejected(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: questionSet("q1", "What is d/dx x^3?"),
	})
	cfg := DefaultConfig()
	cfg.MaxAttempts = 1
	gen := New(mock, cfg)

	_, err := gen.Generate(context.Background(), GenerateInput{
		Snapshot:       testSnapshot(),
		PriorQuestions: []string{"WHAT IS d/dx x^3?"},
	})
	if err == nil {
		t.Fatal("expected dedup rejection")
	}
}

func TestGenerate_EmptySet(t *testing.T) {
	empty := llm.MockResponse{Content: json.RawMessage(`{"questions": []}`)}
	mock := llm.NewMockProvider(empty, empty)
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), GenerateInput{Snapshot: testSnapshot()})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
}

func TestGenerate_RegeneratesAfterRetryableFailure(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: questionSet("q1", "What is d/dx x^3?")},
		llm.MockResponse{Content: questionSet("q2", "What is d/dx sin(x)?")},
	)
	gen := New(mock, DefaultConfig())

	qs, err := gen.Generate(context.Background(), GenerateInput{
		Snapshot:       testSnapshot(),
		PriorQuestions: []string{"What is d/dx x^3?"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) != 1 || qs[0].ID != "q2" {
		t.Errorf("expected regenerated q2, got %+v", qs)
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected 2 calls, got %d", mock.CallCount())
	}
}

type rejectAll struct{}

func (rejectAll) Name() string { return "reject" }

func (rejectAll) Validate(*tutor.Question, GenerateInput) *ValidationError {
	return &ValidationError{Validator: "reject", Message: "never valid"}
}

func TestGenerate_NonRetryableFailureStops(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: questionSet("q1", "Q?")},
		llm.MockResponse{Content: questionSet("q2", "Q2?")},
	)
	cfg := DefaultConfig()
	cfg.Validators = []Validator{rejectAll{}}
	gen := New(mock, cfg)

	_, err := gen.Generate(context.Background(), GenerateInput{Snapshot: testSnapshot()})
	var valErr *ValidationError
	if !errors.As(err, &valErr) || valErr.Validator != "reject" {
		t.Fatalf("expected reject validation error, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestGenerate_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: errors.New("API error")})
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), GenerateInput{Snapshot: testSnapshot()})
	if err == nil || !strings.Contains(err.Error(), "LLM generation failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerate_ConfigOverrides(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: questionSet("q1", "Q?")})
	cfg := DefaultConfig()
	cfg.MaxTokens = 256
	cfg.Temperature = 0.2
	gen := New(mock, cfg)

	if _, err := gen.Generate(context.Background(), GenerateInput{Snapshot: testSnapshot()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls[0].MaxTokens != 256 || mock.Calls[0].Temperature != 0.2 {
		t.Errorf("config not applied: %+v", mock.Calls[0])
	}
	if !strings.Contains(mock.Calls[0].Messages[0].Content, "Questions requested: 3") {
		t.Error("expected default count of 3")
	}
}

func TestQuestionSetSchemaValidatesOutput(t *testing.T) {
	if err := llm.ValidateJSON(QuestionSetSchema, questionSet("q1", "Q?")); err != nil {
		t.Fatalf("expected valid: %v", err)
	}
	bad := json.RawMessage(`{"questions": [{"question_id": "q1"}]}`)
	if err := llm.ValidateJSON(QuestionSetSchema, bad); err == nil {
		t.Fatal("expected schema rejection")
	}
}
