package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/abhisek/calctutor/internal/llm"
	"github.com/abhisek/calctutor/internal/tutor"
)

// LLMGenerator implements Generator using an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates an LLMGenerator.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	return &LLMGenerator{provider: provider, config: cfg}
}

type questionSetOutput struct {
	Questions []tutor.Question `json:"questions"`
}

// Generate asks the provider for a question set and validates each
// question. A set failing a retryable validation is regenerated up to
// Config.MaxAttempts times.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) ([]tutor.Question, error) {
	ctx = llm.WithPurpose(ctx, "question-gen")

	attempts := max(g.config.MaxAttempts, 1)
	for attempt := 1; ; attempt++ {
		qs, err := g.generateOnce(ctx, input)
		var verr *ValidationError
		if err == nil || attempt >= attempts || !errors.As(err, &verr) || !verr.Retryable {
			return qs, err
		}
	}
}

func (g *LLMGenerator) generateOnce(ctx context.Context, input GenerateInput) ([]tutor.Question, error) {

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input, g.config)},
		},
		Schema:      QuestionSetSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw questionSetOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if len(raw.Questions) == 0 {
		return nil, &ValidationError{Validator: "structural", Message: "no questions returned", Retryable: true}
	}

	seen := GenerateInput{
		Snapshot:       input.Snapshot,
		Count:          input.Count,
		PriorQuestions: slices.Clone(input.PriorQuestions),
	}
	ids := make(map[string]bool, len(raw.Questions))
	for i := range raw.Questions {
		q := &raw.Questions[i]
		for _, v := range g.config.Validators {
			if verr := v.Validate(q, seen); verr != nil {
				return nil, fmt.Errorf("question %d: %w", i+1, verr)
			}
		}
		if q.ID == "" || ids[q.ID] {
			q.ID = uuid.NewString()
		}
		ids[q.ID] = true
		seen.PriorQuestions = append(seen.PriorQuestions, q.Text)
	}

	return raw.Questions, nil
}
