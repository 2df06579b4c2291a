// Package biomarker turns raw lab report text into structured biomarker
// values by prompting a language model for a strict JSON response.
package biomarker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/internal/util"
	"github.com/nutriscan/labagent/logging"
	"github.com/nutriscan/labagent/model"
	"github.com/nutriscan/labagent/report"
)

const extractionPrompt = `You are a clinical lab report parser. You will receive raw text from a blood test report.

Your task:
1. Find ALL biomarker test results in the text.
2. For each biomarker, extract: test name, numeric value, unit, and reference range.
3. Set the flag to "LOW" if the value is below the reference range, "HIGH" if above, or null if normal.

Rules:
- Only extract results that have a clear numeric value.
- Use the exact test name as written in the report.
- If a reference range is given as "30-100", keep that format.
- Be precise with units, do not guess.

Return your answer as a JSON object with a single key "biomarkers" containing an array.
Each biomarker object must have: test_name (string), value (number), unit (string), reference_range (string), flag (string or null).

Example:
{"biomarkers": [{"test_name": "Vitamin D, 25-Hydroxy", "value": 18.5, "unit": "ng/mL", "reference_range": "30-100", "flag": "LOW"}]}

IMPORTANT: Return ONLY the JSON object, no other text.`

// Extractor is the biomarker-extraction collaborator consumed by the
// extract-biomarkers tool. Unparseable input yields an empty sequence, not
// an error.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]report.Biomarker, error)
}

// ModelExtractor implements Extractor with a single model call.
type ModelExtractor struct {
	model  model.Model
	logger logging.Logger
}

// NewModelExtractor creates an extractor backed by the given model.
func NewModelExtractor(m model.Model, logger logging.Logger) *ModelExtractor {
	return &ModelExtractor{model: m, logger: logging.OrNoOp(logger)}
}

// Extract implements Extractor.
func (e *ModelExtractor) Extract(ctx context.Context, text string) ([]report.Biomarker, error) {
	resp, err := e.model.Converse(ctx, model.Request{
		Instructions: extractionPrompt,
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "Extract all biomarkers from this lab report:\n\n"+text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("biomarker extraction: %w", err)
	}

	raw := util.StripCodeFence(strings.Join(resp.Content.TextSegments(), ""))

	var parsed struct {
		Biomarkers []report.Biomarker `json:"biomarkers"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		e.logger.Error("biomarker.parse_failed", "error", err.Error(), "response_prefix", prefix(raw, 200))
		return nil, nil
	}

	return parsed.Biomarkers, nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
