package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunState_AppendStepSequencing(t *testing.T) {
	state := NewRunState([]byte("doc"), nil)

	first := state.AppendStep(ReasoningStep{Kind: StepReasoning, Reasoning: "thinking"})
	second := state.AppendStep(ReasoningStep{Kind: StepToolCall, ToolName: "extract_text_from_pdf"})
	third := state.AppendStep(ReasoningStep{Kind: StepToolCall, ToolName: "extract_biomarkers"})

	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, 3, third.Number)

	steps := state.Steps()
	assert.Len(t, steps, 3)
	for i, step := range steps {
		assert.Equal(t, i+1, step.Number)
		assert.False(t, step.Timestamp.IsZero())
	}
}

func TestRunState_SetExtraction(t *testing.T) {
	state := NewRunState([]byte("doc"), []string{"vegan"})

	state.SetExtraction("first", 0.1, ExtractionDigital, 1)
	state.SetExtraction("second", 0.8, ExtractionOCR, 2)

	assert.Equal(t, "second", state.ExtractedText)
	assert.Equal(t, 0.8, state.ExtractionConfidence)
	assert.Equal(t, ExtractionOCR, state.ExtractionMethod)
	assert.Equal(t, 2, state.PageCount)
}

func TestContent_PartAccessors(t *testing.T) {
	content := Content{
		Role: RoleAssistant,
		Parts: []Part{
			TextPart{Text: "let me extract the text"},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "fc1", Name: "extract_text_from_pdf"}},
			TextPart{Text: ""},
			FunctionCallPart{FunctionCall: FunctionCall{ID: "fc2", Name: "extract_biomarkers"}},
		},
	}

	assert.Equal(t, []string{"let me extract the text"}, content.TextSegments())

	calls := content.FunctionCalls()
	assert.Len(t, calls, 2)
	assert.Equal(t, "extract_text_from_pdf", calls[0].Name)
	assert.Equal(t, "extract_biomarkers", calls[1].Name)
}
