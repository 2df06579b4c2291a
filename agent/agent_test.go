package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/model"
	"github.com/nutriscan/labagent/ocr"
	"github.com/nutriscan/labagent/report"
	"github.com/nutriscan/labagent/tool"
)

// Scripted collaborators.

type scriptedTextExtractor struct {
	results []ocr.Result
	calls   []bool // forceFallback flags in call order
}

func (f *scriptedTextExtractor) Extract(ctx context.Context, documentBytes []byte, forceFallback bool) (ocr.Result, error) {
	i := len(f.calls)
	f.calls = append(f.calls, forceFallback)
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i], nil
}

type fixedBiomarkerExtractor struct {
	biomarkers []report.Biomarker
}

func (f *fixedBiomarkerExtractor) Extract(ctx context.Context, text string) ([]report.Biomarker, error) {
	return f.biomarkers, nil
}

func lowFerritin() report.Biomarker {
	return report.Biomarker{TestName: "Ferritin", Value: 8, Unit: "ng/mL", ReferenceRange: "20-250", Flag: report.FlagLow}
}

func newTestAgent(t *testing.T, m model.Model, optFns ...func(o *Options)) (*Agent, *scriptedTextExtractor) {
	t.Helper()

	text := &scriptedTextExtractor{results: []ocr.Result{
		{Text: "Ferritin 8 ng/mL (20-250) LOW", Confidence: 0.95, Method: core.ExtractionDigital, PageCount: 1},
	}}

	registry, err := tool.NewRegistry(
		tool.NewExtractText(text),
		tool.NewExtractBiomarkers(&fixedBiomarkerExtractor{biomarkers: []report.Biomarker{lowFerritin()}}),
		tool.NewDetectDeficiencies(),
	)
	require.NoError(t, err)

	executor := tool.NewExecutor(registry, nil)
	return New(m, registry, executor, optFns...), text
}

func callPart(id, name, arguments string) core.FunctionCallPart {
	return core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: id, Name: name, Arguments: arguments}}
}

func TestRunFourStepTrace(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.EnqueueTurn(
		callPart("c1", "extract_text_from_pdf", "{}"),
		callPart("c2", "extract_biomarkers", "{}"),
		callPart("c3", "detect_deficiencies", "{}"),
	)
	m.EnqueueTurn(core.TextPart{Text: "Found 1 biomarker with 1 deficiency. Consult your doctor."})

	a, _ := newTestAgent(t, m)
	state := core.NewRunState([]byte("%PDF-1.4 fake"), nil)

	require.NoError(t, a.Run(context.Background(), state, nil))

	assert.NotEmpty(t, state.Biomarkers)
	assert.NotEmpty(t, state.Deficiencies)

	steps := state.Steps()
	require.Len(t, steps, 4)
	for i, step := range steps {
		assert.Equal(t, i+1, step.Number)
	}
	assert.Equal(t, core.StepToolCall, steps[0].Kind)
	assert.Equal(t, "extract_text_from_pdf", steps[0].ToolName)
	assert.Equal(t, "Extracted 29 chars via digital (95% confidence)", steps[0].ResultSummary)
	assert.Equal(t, "Found 1 biomarkers", steps[1].ResultSummary)
	assert.Equal(t, "Detected 1 deficiencies", steps[2].ResultSummary)
	assert.Equal(t, core.StepReasoning, steps[3].Kind)
	assert.Contains(t, steps[3].Reasoning, "Consult your doctor")
}

func TestRunStopsAtIterationCeiling(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.EnqueueTurn(callPart("c1", "extract_text_from_pdf", "{}"))
	m.RepeatLast = true

	a, _ := newTestAgent(t, m, func(o *Options) { o.MaxIterations = 3 })
	state := core.NewRunState([]byte("%PDF-1.4 fake"), nil)

	require.NoError(t, a.Run(context.Background(), state, nil))
	assert.Len(t, m.Requests(), 3, "exactly the ceiling of provider turns")
	assert.Len(t, state.Steps(), 3)
}

func TestRunForcedReExtractionOverwrites(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.EnqueueTurn(callPart("c1", "extract_text_from_pdf", "{}"))
	m.EnqueueTurn(callPart("c2", "extract_text_from_pdf", `{"force_ocr": true}`))
	m.EnqueueTurn(core.TextPart{Text: "Re-extracted with OCR after a low-quality first pass."})

	a, text := newTestAgent(t, m)
	text.results = []ocr.Result{
		{Text: "x", Confidence: 0.1, Method: core.ExtractionDigital, PageCount: 1},
		{Text: "Ferritin 8 ng/mL (20-250) LOW", Confidence: 0.8, Method: core.ExtractionOCR, PageCount: 1},
	}
	state := core.NewRunState([]byte("%PDF-1.4 fake"), nil)

	require.NoError(t, a.Run(context.Background(), state, nil))

	assert.Equal(t, []bool{false, true}, text.calls)
	assert.Equal(t, "Ferritin 8 ng/mL (20-250) LOW", state.ExtractedText)
	assert.Equal(t, core.ExtractionOCR, state.ExtractionMethod)

	steps := state.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, "Extracted 1 chars via digital (10% confidence)", steps[0].ResultSummary)
	assert.Equal(t, "Extracted 29 chars via ocr (80% confidence)", steps[1].ResultSummary)
}

func TestRunToolFailureIsFedBackNotFatal(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.EnqueueTurn(callPart("c1", "detect_deficiencies", "{}"))
	m.EnqueueTurn(core.TextPart{Text: "I need to extract biomarkers first."})

	a, _ := newTestAgent(t, m)
	state := core.NewRunState([]byte("%PDF-1.4 fake"), nil)

	require.NoError(t, a.Run(context.Background(), state, nil))
	assert.Empty(t, state.Deficiencies)

	steps := state.Steps()
	require.Len(t, steps, 2)
	assert.Contains(t, steps[0].ResultSummary, "Failed:")

	// The raw structured failure goes back into the conversation.
	reqs := m.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Contents[len(reqs[1].Contents)-1]
	assert.Equal(t, core.RoleTool, last.Role)
	fr, ok := last.Parts[0].(core.FunctionResponsePart)
	require.True(t, ok)
	assert.Equal(t, "c1", fr.FunctionResponse.ID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(fr.FunctionResponse.Response), &payload))
	assert.Equal(t, false, payload["success"])
	assert.NotEmpty(t, payload["error"])
}

func TestRunProviderFailureAbortsRun(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.FailWith(fmt.Errorf("rate limited"))

	a, _ := newTestAgent(t, m)
	state := core.NewRunState([]byte("%PDF-1.4 fake"), nil)

	err := a.Run(context.Background(), state, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Empty(t, state.Steps())
}

func TestRunObserverSeesStepsInOrder(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.EnqueueTurn(
		core.TextPart{Text: "Starting by extracting the text."},
		callPart("c1", "extract_text_from_pdf", "{}"),
	)
	m.EnqueueTurn(core.TextPart{Text: "Done."})

	a, _ := newTestAgent(t, m)
	state := core.NewRunState([]byte("%PDF-1.4 fake"), nil)

	var observed []core.ReasoningStep
	require.NoError(t, a.Run(context.Background(), state, func(step core.ReasoningStep) {
		observed = append(observed, step)
	}))

	require.Equal(t, state.Steps(), observed)
	require.Len(t, observed, 3)
	assert.Equal(t, core.StepReasoning, observed[0].Kind)
	assert.Equal(t, core.StepToolCall, observed[1].Kind)
	assert.Equal(t, core.StepReasoning, observed[2].Kind)
	for i, step := range observed {
		assert.Equal(t, i+1, step.Number)
	}
}

func TestRunEachTextSegmentBecomesOneStep(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.EnqueueTurn(
		core.TextPart{Text: "The first pass returned almost no text."},
		core.TextPart{Text: "Retrying with OCR forced."},
		callPart("c1", "extract_text_from_pdf", `{"force_ocr": true}`),
	)
	m.EnqueueTurn(core.TextPart{Text: "Done."})

	a, _ := newTestAgent(t, m)
	state := core.NewRunState([]byte("%PDF-1.4 fake"), nil)

	require.NoError(t, a.Run(context.Background(), state, nil))

	steps := state.Steps()
	require.Len(t, steps, 4)
	assert.Equal(t, core.StepReasoning, steps[0].Kind)
	assert.Equal(t, "The first pass returned almost no text.", steps[0].Reasoning)
	assert.Equal(t, core.StepReasoning, steps[1].Kind)
	assert.Equal(t, "Retrying with OCR forced.", steps[1].Reasoning)
	assert.Equal(t, core.StepToolCall, steps[2].Kind)
	assert.Equal(t, core.StepReasoning, steps[3].Kind)
}

func TestRunCancelledContext(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	a, _ := newTestAgent(t, m)
	state := core.NewRunState([]byte("%PDF-1.4 fake"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Run(ctx, state, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, m.Requests())
}

func TestSeedMessageMentionsPreferences(t *testing.T) {
	state := core.NewRunState([]byte("12345"), []string{"vegan", "gluten-free"})
	msg := seedMessage(state)
	assert.Contains(t, msg, "5 bytes")
	assert.Contains(t, msg, "vegan, gluten-free")
}
