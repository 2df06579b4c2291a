package tool

import (
	"context"
	"fmt"

	"github.com/nutriscan/labagent/biomarker"
	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/internal/util"
)

type extractBiomarkersArgs struct {
	TextOverride string `json:"text_override,omitempty" description:"Optional override text to parse instead of the stored extraction result."`
}

// ExtractBiomarkers parses structured biomarker values out of the extracted
// report text. Requires text to be present unless an override is supplied.
type ExtractBiomarkers struct {
	extractor biomarker.Extractor
}

// NewExtractBiomarkers creates the biomarker-extraction tool.
func NewExtractBiomarkers(extractor biomarker.Extractor) *ExtractBiomarkers {
	return &ExtractBiomarkers{extractor: extractor}
}

func (t *ExtractBiomarkers) Name() string { return "extract_biomarkers" }

func (t *ExtractBiomarkers) Description() string {
	return "Send the extracted report text to an AI model to extract structured biomarker data. " +
		"Returns a list of biomarkers with test name, value, unit, and reference range. " +
		"Call AFTER extract_text_from_pdf."
}

func (t *ExtractBiomarkers) Parameters() map[string]any {
	return util.CreateSchema(extractBiomarkersArgs{})
}

// Execute replaces state.Biomarkers wholesale on success.
func (t *ExtractBiomarkers) Execute(ctx context.Context, state *core.RunState, args map[string]any) (map[string]any, error) {
	text, _ := args["text_override"].(string)
	if text == "" {
		text = state.ExtractedText
	}
	if text == "" {
		return nil, fmt.Errorf("no extracted text available, run extract_text_from_pdf first")
	}

	biomarkers, err := t.extractor.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("biomarker extraction failed: %w", err)
	}

	state.Biomarkers = biomarkers

	return map[string]any{
		"biomarker_count": len(biomarkers),
		"biomarkers":      biomarkers,
	}, nil
}
