package questiongen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every generated question; the first
	// failure stops the pipeline.
	Validators []Validator

	// MaxAttempts bounds how many times a set failing a retryable
	// validation is regenerated, counting the first try.
	MaxAttempts int

	// Count is the default number of questions per call.
	Count int

	MaxTokens   int
	Temperature float64

	// MaxPriorQuestions caps the dedup list included in the prompt.
	MaxPriorQuestions int

	// MaxRecentErrors caps the recent mistakes included in the prompt.
	MaxRecentErrors int
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&DedupValidator{},
		},
		MaxAttempts:       2,
		Count:             3,
		MaxTokens:         4096,
		Temperature:       0.7,
		MaxPriorQuestions: 8,
		MaxRecentErrors:   5,
	}
}
