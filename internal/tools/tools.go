// Package tools binds the tutor's function tools to local handlers.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/calctutor/internal/questiongen"
	"github.com/abhisek/calctutor/internal/toolcall"
	"github.com/abhisek/calctutor/internal/tutor"
)

// ErrNoGenerator is reported when generateQuestions runs without an LLM.
var ErrNoGenerator = errors.New("question generation is not configured")

// Register installs the generateQuestions and evaluateAnswer handlers on d.
// gen may be nil, in which case generateQuestions reports ErrNoGenerator.
func Register(d *toolcall.Dispatcher, gen questiongen.Generator) {
	d.Register(tutor.ToolGenerateQuestions, tutor.GenerateQuestionsSchema, GenerateQuestions(gen))
	d.Register(tutor.ToolEvaluateAnswer, tutor.EvaluateAnswerSchema, EvaluateAnswer)
}

type generateArgs struct {
	Snapshot tutor.StudentSnapshot `json:"snapshot"`
}

type generateResult struct {
	Questions []tutor.Question `json:"questions"`
}

// GenerateQuestions returns the generateQuestions handler.
func GenerateQuestions(gen questiongen.Generator) toolcall.Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		if gen == nil {
			return nil, ErrNoGenerator
		}
		var args generateArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		qs, err := gen.Generate(ctx, questiongen.GenerateInput{Snapshot: args.Snapshot})
		if err != nil {
			return nil, err
		}
		return generateResult{Questions: qs}, nil
	}
}

type evaluateArgs struct {
	Question      tutor.Question        `json:"question"`
	StudentAnswer string                `json:"student_answer"`
	Snapshot      tutor.StudentSnapshot `json:"snapshot"`
}

// EvaluateAnswer grades the answer and returns the updated snapshot.
func EvaluateAnswer(_ context.Context, raw json.RawMessage) (any, error) {
	var args evaluateArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	return tutor.Evaluate(args.Question, args.StudentAnswer, args.Snapshot)
}
