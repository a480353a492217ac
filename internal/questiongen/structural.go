package questiongen

import (
	"fmt"
	"slices"

	"github.com/abhisek/calctutor/internal/tutor"
)

var optionLabels = []string{"A", "B", "C", "D"}

// StructuralValidator checks required fields, lengths, labels and that
// exactly one option is correct.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *tutor.Question, _ GenerateInput) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf(format, args...),
			Retryable: true,
		}
	}

	if q.Text == "" {
		return fail("question_text is empty")
	}
	if len(q.Text) > 1500 {
		return fail("question_text exceeds 1500 characters")
	}
	if q.Topic == "" {
		return fail("topic is empty")
	}
	if !slices.Contains(tutor.Criteria, q.Criterion) {
		return fail("criterion %q is not one of %v", q.Criterion, tutor.Criteria)
	}
	if q.DifficultyLevel < tutor.MinLevel || q.DifficultyLevel > tutor.MaxLevel {
		return fail("difficulty_level must be between %d and %d", tutor.MinLevel, tutor.MaxLevel)
	}
	if len(q.Options) != len(optionLabels) {
		return fail("expected %d options, got %d", len(optionLabels), len(q.Options))
	}

	correct := 0
	texts := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		if o.Label != optionLabels[i] {
			return fail("option %d has label %q, want %q", i+1, o.Label, optionLabels[i])
		}
		if o.Text == "" {
			return fail("option %s text is empty", o.Label)
		}
		if o.Explanation == "" {
			return fail("option %s explanation is empty", o.Label)
		}
		key := normalize(o.Text)
		if texts[key] {
			return fail("option %s repeats another option", o.Label)
		}
		texts[key] = true
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fail("expected exactly one correct option, got %d", correct)
	}
	return nil
}
