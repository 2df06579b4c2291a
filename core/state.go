package core

import (
	"time"

	"github.com/nutriscan/labagent/report"
)

// Extraction method identifiers recorded in RunState.
const (
	ExtractionDigital = "digital"
	ExtractionOCR     = "ocr"
)

// RunState is the mutable accumulator for one analysis run. It is owned
// exclusively by a single orchestration loop for the duration of the run and
// must never be shared between concurrent runs. Result fields are replaced
// wholesale by their producing tool, never partially merged.
type RunState struct {
	RunID string

	// Inputs. Document is immutable once set.
	Document    []byte
	Preferences []string

	// Text extraction results; overwritten only by an explicit re-extraction.
	ExtractedText        string
	ExtractionConfidence float64
	ExtractionMethod     string
	PageCount            int

	// Downstream results, each replaced wholesale by its tool.
	Biomarkers      []report.Biomarker
	Deficiencies    []report.Deficiency
	Explanations    []report.Explanation
	Recommendations []report.FoodRecommendation
	Cart            report.Cart

	steps []ReasoningStep
}

// NewRunState creates the state for one analysis run.
func NewRunState(document []byte, preferences []string) *RunState {
	return &RunState{
		RunID:       NewID(),
		Document:    document,
		Preferences: preferences,
	}
}

// AppendStep stamps the next gap-free sequence number and current time onto
// the step, appends it to the trace and returns the stored value.
func (s *RunState) AppendStep(step ReasoningStep) ReasoningStep {
	step.Number = len(s.steps) + 1
	step.Timestamp = time.Now().UTC()
	s.steps = append(s.steps, step)
	return step
}

// Steps returns the reasoning trace in insertion order. The returned slice
// must be treated as read-only.
func (s *RunState) Steps() []ReasoningStep { return s.steps }

// SetExtraction records a text extraction result wholesale.
func (s *RunState) SetExtraction(text string, confidence float64, method string, pageCount int) {
	s.ExtractedText = text
	s.ExtractionConfidence = confidence
	s.ExtractionMethod = method
	s.PageCount = pageCount
}
