package biomarker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/model"
	"github.com/nutriscan/labagent/report"
)

func TestModelExtractorParsesBiomarkers(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.EnqueueTurn(core.TextPart{Text: `{"biomarkers": [
		{"test_name": "Vitamin D, 25-Hydroxy", "value": 18.5, "unit": "ng/mL", "reference_range": "30-100", "flag": "LOW"},
		{"test_name": "Ferritin", "value": 85, "unit": "ng/mL", "reference_range": "20-250", "flag": null}
	]}`})

	e := NewModelExtractor(m, nil)

	got, err := e.Extract(context.Background(), "Vitamin D, 25-Hydroxy 18.5 ng/mL (30-100) LOW")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Vitamin D, 25-Hydroxy", got[0].TestName)
	assert.Equal(t, 18.5, got[0].Value)
	assert.Equal(t, report.FlagLow, got[0].Flag)
	assert.Empty(t, got[1].Flag)
}

func TestModelExtractorStripsCodeFence(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.EnqueueTurn(core.TextPart{Text: "```json\n{\"biomarkers\": [{\"test_name\": \"TSH\", \"value\": 2.1, \"unit\": \"mIU/L\", \"reference_range\": \"0.4-4.0\", \"flag\": null}]}\n```"})

	e := NewModelExtractor(m, nil)

	got, err := e.Extract(context.Background(), "TSH 2.1 mIU/L")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "TSH", got[0].TestName)
}

func TestModelExtractorUnparseableResponse(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.EnqueueTurn(core.TextPart{Text: "I could not find any biomarkers in that text."})

	e := NewModelExtractor(m, nil)

	got, err := e.Extract(context.Background(), "lorem ipsum")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestModelExtractorPropagatesModelError(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.FailWith(assert.AnError)

	e := NewModelExtractor(m, nil)

	_, err := e.Extract(context.Background(), "anything")
	require.Error(t, err)
}

func TestModelExtractorSendsReportText(t *testing.T) {
	m := model.NewMockModel("mock-model", "mock")
	m.EnqueueTurn(core.TextPart{Text: `{"biomarkers": []}`})

	e := NewModelExtractor(m, nil)

	_, err := e.Extract(context.Background(), "Hemoglobin 13.2 g/dL")
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Contents, 1)
	assert.Contains(t, reqs[0].Contents[0].TextSegments()[0], "Hemoglobin 13.2 g/dL")
	assert.Contains(t, reqs[0].Instructions, "clinical lab report parser")
}
