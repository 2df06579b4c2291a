package tool

import (
	"context"
	"fmt"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/explain"
)

// GenerateExplanations writes plain-English explanations for the detected
// deficiencies. With zero deficiencies it succeeds with an empty result and
// performs no model call.
type GenerateExplanations struct {
	generator explain.Generator
}

// NewGenerateExplanations creates the explanation tool.
func NewGenerateExplanations(generator explain.Generator) *GenerateExplanations {
	return &GenerateExplanations{generator: generator}
}

func (t *GenerateExplanations) Name() string { return "generate_explanations" }

func (t *GenerateExplanations) Description() string {
	return "Generate plain-English explanations for each detected deficiency. " +
		"Call AFTER detect_deficiencies. Succeeds with an empty result when no deficiencies were found."
}

func (t *GenerateExplanations) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Execute replaces state.Explanations wholesale on success.
func (t *GenerateExplanations) Execute(ctx context.Context, state *core.RunState, args map[string]any) (map[string]any, error) {
	explanations, err := t.generator.Generate(ctx, state.Deficiencies)
	if err != nil {
		return nil, fmt.Errorf("explanation generation failed: %w", err)
	}

	state.Explanations = explanations

	return map[string]any{
		"explanation_count": len(explanations),
		"explanations":      explanations,
	}, nil
}
