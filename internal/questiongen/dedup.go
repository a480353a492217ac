package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/calctutor/internal/tutor"
)

// DedupValidator rejects a question whose text matches one already asked.
type DedupValidator struct{}

func (v *DedupValidator) Name() string { return "dedup" }

func (v *DedupValidator) Validate(q *tutor.Question, input GenerateInput) *ValidationError {
	text := normalize(q.Text)
	for _, prior := range input.PriorQuestions {
		if normalize(prior) == text {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("question %q was already asked", q.Text),
				Retryable: true,
			}
		}
	}
	return nil
}

// normalize folds case and collapses whitespace.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// buildDedup formats prior questions for the prompt, keeping the last max.
func buildDedup(prior []string, max int) string {
	if len(prior) == 0 {
		return "None"
	}
	if max > 0 && len(prior) > max {
		prior = prior[len(prior)-max:]
	}

	var b strings.Builder
	for i, q := range prior {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
