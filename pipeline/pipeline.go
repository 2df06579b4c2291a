// Package pipeline exposes the single outward-facing operation of the
// analysis core: run one document through the agent and reshape the run
// state into a result, optionally streaming reasoning steps while the run
// progresses. Transport concerns stay outside this package.
package pipeline

import (
	"context"

	"github.com/nutriscan/labagent/agent"
	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/logging"
	"github.com/nutriscan/labagent/report"
)

// Result is the reshaped outcome of one analysis run. Sparse sections mean
// the run soft-terminated before the model completed every stage.
type Result struct {
	RunID string `json:"run_id"`

	ExtractedText        string  `json:"extracted_text"`
	ExtractionConfidence float64 `json:"extraction_confidence"`
	ExtractionMethod     string  `json:"extraction_method"`
	PageCount            int     `json:"page_count"`

	Biomarkers      []report.Biomarker          `json:"biomarkers"`
	Deficiencies    []report.Deficiency         `json:"deficiencies"`
	Explanations    []report.Explanation        `json:"explanations"`
	Recommendations []report.FoodRecommendation `json:"recommendations"`
	Cart            report.Cart                 `json:"cart"`

	Steps []core.ReasoningStep `json:"reasoning_steps"`
}

// Options configures a Pipeline.
type Options struct {
	Logger logging.Logger
}

// Pipeline is the facade over the orchestration loop.
type Pipeline struct {
	agent  *agent.Agent
	logger logging.Logger
}

// New creates a pipeline around a fully wired agent.
func New(a *agent.Agent, optFns ...func(o *Options)) *Pipeline {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Pipeline{agent: a, logger: logging.OrNoOp(opts.Logger)}
}

// Analyze runs one document through the agent. Observer, when non-nil,
// receives every reasoning step synchronously in trace order. On a run-level
// failure no Result is returned.
func (p *Pipeline) Analyze(ctx context.Context, document []byte, preferences []string, observer core.StepObserver) (*Result, error) {
	state := core.NewRunState(document, preferences)

	p.logger.Info("pipeline.analyze.start", "run_id", state.RunID, "document_bytes", len(document))

	if err := p.agent.Run(ctx, state, observer); err != nil {
		p.logger.Error("pipeline.analyze.failed", "run_id", state.RunID, "error", err.Error())
		return nil, err
	}

	result := reshape(state)
	p.logger.Info("pipeline.analyze.done",
		"run_id", state.RunID,
		"biomarkers", len(result.Biomarkers),
		"deficiencies", len(result.Deficiencies),
		"steps", len(result.Steps))
	return result, nil
}

// reshape copies the accumulated run state into the outward result shape.
func reshape(state *core.RunState) *Result {
	return &Result{
		RunID:                state.RunID,
		ExtractedText:        state.ExtractedText,
		ExtractionConfidence: state.ExtractionConfidence,
		ExtractionMethod:     state.ExtractionMethod,
		PageCount:            state.PageCount,
		Biomarkers:           state.Biomarkers,
		Deficiencies:         state.Deficiencies,
		Explanations:         state.Explanations,
		Recommendations:      state.Recommendations,
		Cart:                 state.Cart,
		Steps:                state.Steps(),
	}
}
