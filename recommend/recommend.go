// Package recommend generates food and supplement suggestions addressing
// detected deficiencies, honoring the user's dietary preferences.
package recommend

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

const recommendPrompt = `You are a nutrition expert assistant.

Your task is to recommend foods and supplements to help correct nutrient deficiencies.

Rules:
- Recommend 4-6 foods and 1 supplement per deficiency.
- All recommendations must be evidence-based.
- Include the approximate nutrient amount per serving.
- Use a single relevant emoji for each item.
- Respect dietary preferences if provided (e.g., if "vegan", do not suggest meat or dairy).
- Mark supplements with category "supplement" and foods with "food".
- Do NOT recommend specific dosages for supplements, just name the supplement type.
- Use common, easily available grocery items.

Return your answer as a JSON object with a single key "recommendations" containing an array.
Each recommendation object must have: emoji (string), name (string), nutrient (string), amount (string), category ("food" or "supplement").

Example:
{"recommendations": [{"emoji": "🐟", "name": "Wild Salmon", "nutrient": "Vitamin D", "amount": "570 IU per 3 oz", "category": "food"}]}

IMPORTANT: Return ONLY the JSON object, no other text.`

// Recommender turns deficiencies into food and supplement suggestions.
type Recommender interface {
	Recommend(ctx context.Context, deficiencies []report.Deficiency, dietaryPreferences []string) ([]report.FoodRecommendation, error)
}

// ModelRecommender implements Recommender with a single model call covering
// all deficiencies at once.
type ModelRecommender struct {
	model  model.Model
	logger logging.Logger
}

// NewModelRecommender creates a recommender backed by the given model.
func NewModelRecommender(m model.Model, logger logging.Logger) *ModelRecommender {
	return &ModelRecommender{model: m, logger: logging.OrNoOp(logger)}
}

// Recommend implements Recommender. An empty deficiency list returns an
// empty result without calling the model; an unparseable model response is
// logged and returns an empty result rather than an error.
func (r *ModelRecommender) Recommend(ctx context.Context, deficiencies []report.Deficiency, dietaryPreferences []string) ([]report.FoodRecommendation, error) {
	if len(deficiencies) == 0 {
		return nil, nil
	}

	resp, err := r.model.Converse(ctx, model.Request{
		Instructions: recommendPrompt,
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, buildPrompt(deficiencies, dietaryPreferences)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("food recommendation: %w", err)
	}

	raw := util.StripCodeFence(strings.Join(resp.Content.TextSegments(), ""))

	var parsed struct {
		Recommendations []report.FoodRecommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		r.logger.Error("recommend.parse_failed", "error", err.Error())
		return nil, nil
	}

	return parsed.Recommendations, nil
}

func buildPrompt(deficiencies []report.Deficiency, dietaryPreferences []string) string {
	var sb strings.Builder
	sb.WriteString("Recommend foods and supplements for these deficiencies:\n\n")
	for _, d := range deficiencies {
		b := d.Biomarker
		fmt.Fprintf(&sb, "- %s: %v %s (normal: %s), %s\n",
			b.TestName, b.Value, b.Unit, b.ReferenceRange, d.Severity)
	}
	if len(dietaryPreferences) > 0 {
		fmt.Fprintf(&sb, "\nDietary preferences to respect: %s", strings.Join(dietaryPreferences, ", "))
	}
	return sb.String()
}
