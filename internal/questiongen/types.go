// Package questiongen produces multiple-choice calculus questions with an
// LLM. It serves the generateQuestions tool call.
package questiongen

import (
	"context"

	"github.com/abhisek/calctutor/internal/tutor"
)

// Generator produces a set of questions for a student.
type Generator interface {
	// Generate returns validated questions tailored to input.Snapshot.
	// All configured validators run on every question before returning.
	Generate(ctx context.Context, input GenerateInput) ([]tutor.Question, error)
}

// GenerateInput holds the context for one generateQuestions call.
type GenerateInput struct {
	// Snapshot is the learner profile sent by the assistant.
	Snapshot tutor.StudentSnapshot

	// Count is how many questions to ask for. Zero uses Config.Count.
	Count int

	// PriorQuestions holds question texts already shown to the student.
	// The generator appends each accepted question while validating a set,
	// so duplicates inside one response are caught as well.
	PriorQuestions []string
}
