package tool

import (
	"context"
	"fmt"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/deficiency"
)

// DetectDeficiencies classifies the stored biomarkers against clinical
// thresholds. It is a pure computation over state, no external calls.
type DetectDeficiencies struct{}

// NewDetectDeficiencies creates the deficiency-detection tool.
func NewDetectDeficiencies() *DetectDeficiencies {
	return &DetectDeficiencies{}
}

func (t *DetectDeficiencies) Name() string { return "detect_deficiencies" }

func (t *DetectDeficiencies) Description() string {
	return "Run deficiency detection on extracted biomarkers. " +
		"Uses clinical thresholds to classify each biomarker. " +
		"Call AFTER extract_biomarkers."
}

func (t *DetectDeficiencies) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Execute replaces state.Deficiencies wholesale on success.
func (t *DetectDeficiencies) Execute(ctx context.Context, state *core.RunState, args map[string]any) (map[string]any, error) {
	if len(state.Biomarkers) == 0 {
		return nil, fmt.Errorf("no biomarkers available, run extract_biomarkers first")
	}

	deficiencies := deficiency.Detect(state.Biomarkers)
	state.Deficiencies = deficiencies

	summaries := make([]map[string]any, 0, len(deficiencies))
	for _, d := range deficiencies {
		summaries = append(summaries, map[string]any{
			"name":                 d.Biomarker.TestName,
			"value":                d.Biomarker.Value,
			"unit":                 d.Biomarker.Unit,
			"severity":             d.Severity,
			"percentage_of_normal": d.PercentageOfNormal,
		})
	}

	return map[string]any{
		"deficiency_count": len(deficiencies),
		"deficiencies":     summaries,
	}, nil
}
