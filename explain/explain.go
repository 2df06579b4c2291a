// Package explain produces plain-English, non-alarmist explanations of
// detected deficiencies, one model call per deficiency.
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/model"
	"github.com/nutriscan/labagent/report"
)

const explainPrompt = `You are a health communication assistant.

Your job is to explain lab result deficiencies in plain English.

Tone requirements:
- Clear and easy to understand (no medical jargon)
- Actionable: tell the user what they can do
- Non-alarmist: do not scare the user
- Non-diagnostic: you are NOT a doctor
- Always encourage consulting a healthcare provider

Structure each explanation as 2-3 sentences covering:
1. What the result means in simple terms
2. Possible symptoms or effects
3. What the user can do about it (diet, supplements, see a doctor)

IMPORTANT: Never make specific dosage recommendations. Never diagnose conditions.`

// Generator writes explanations for deficiencies.
type Generator interface {
	Generate(ctx context.Context, deficiencies []report.Deficiency) ([]report.Explanation, error)
}

// ModelGenerator implements Generator with one model call per deficiency.
type ModelGenerator struct {
	model model.Model
}

// NewModelGenerator creates a generator backed by the given model.
func NewModelGenerator(m model.Model) *ModelGenerator {
	return &ModelGenerator{model: m}
}

// Generate implements Generator. An empty input returns an empty result
// without calling the model. A model failure on any deficiency aborts the
// whole batch.
func (g *ModelGenerator) Generate(ctx context.Context, deficiencies []report.Deficiency) ([]report.Explanation, error) {
	if len(deficiencies) == 0 {
		return nil, nil
	}

	explanations := make([]report.Explanation, 0, len(deficiencies))
	for _, d := range deficiencies {
		b := d.Biomarker
		label := capitalize(string(d.Severity))

		prompt := fmt.Sprintf(
			"Explain this lab result to a patient:\n\n"+
				"Test: %s\n"+
				"Result: %v %s\n"+
				"Normal Range: %s\n"+
				"Severity: %s\n\n"+
				"Provide a clear, plain-English explanation in 2-3 sentences.",
			b.TestName, b.Value, b.Unit, b.ReferenceRange, label,
		)

		resp, err := g.model.Converse(ctx, model.Request{
			Instructions: explainPrompt,
			Contents:     []core.Content{core.NewTextContent(core.RoleUser, prompt)},
		})
		if err != nil {
			return nil, fmt.Errorf("explain %q: %w", b.TestName, err)
		}

		explanations = append(explanations, report.Explanation{
			Title:    fmt.Sprintf("%s — %s Deficiency", b.TestName, label),
			Severity: d.Severity,
			Text:     strings.TrimSpace(strings.Join(resp.Content.TextSegments(), "")),
		})
	}

	return explanations, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
