package tutor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/calctutor/internal/llm"
)

func TestToolSchemasAcceptValidArguments(t *testing.T) {
	snap := NewSnapshot("ada")
	gen, err := json.Marshal(map[string]any{"snapshot": snap})
	require.NoError(t, err)
	assert.NoError(t, llm.ValidateJSON(GenerateQuestionsSchema, gen))

	eval, err := json.Marshal(map[string]any{
		"question":       derivativeQuestion(),
		"student_answer": "B",
		"snapshot":       snap,
	})
	require.NoError(t, err)
	assert.NoError(t, llm.ValidateJSON(EvaluateAnswerSchema, eval))
}

func TestToolSchemasRejectMissingFields(t *testing.T) {
	assert.Error(t, llm.ValidateJSON(GenerateQuestionsSchema, json.RawMessage(`{}`)))
	assert.Error(t, llm.ValidateJSON(GenerateQuestionsSchema, json.RawMessage(`{"snapshot":{"student_id":"x"}}`)))
	assert.Error(t, llm.ValidateJSON(EvaluateAnswerSchema, json.RawMessage(`{"question":{"question_id":"q"},"student_answer":"A","snapshot":{}}`)))
}

func TestToolsOrder(t *testing.T) {
	tools := Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, ToolGenerateQuestions, tools[0].Name)
	assert.Equal(t, ToolEvaluateAnswer, tools[1].Name)
}
