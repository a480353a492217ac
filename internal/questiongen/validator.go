package questiongen

import (
	"fmt"

	"github.com/abhisek/calctutor/internal/tutor"
)

// Validator checks a generated question. Implementations should be
// stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier used in errors and logs.
	Name() string

	// Validate returns nil if q passes.
	Validate(q *tutor.Question, input GenerateInput) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string
	Message   string
	Retryable bool // regeneration is likely to fix it
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}
