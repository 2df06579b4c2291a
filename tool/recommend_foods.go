package tool

import (
	"context"
	"fmt"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/internal/util"
	"github.com/nutriscan/labagent/recommend"
)

type recommendFoodsArgs struct {
	DietaryPreferences []string `json:"dietary_preferences,omitempty" description:"Dietary restrictions like 'vegan' or 'lactose-free'. Defaults to the preferences supplied with the run."`
}

// RecommendFoods generates food and supplement suggestions for the detected
// deficiencies. With zero deficiencies it succeeds with an empty result and
// performs no model call.
type RecommendFoods struct {
	recommender recommend.Recommender
}

// NewRecommendFoods creates the recommendation tool.
func NewRecommendFoods(recommender recommend.Recommender) *RecommendFoods {
	return &RecommendFoods{recommender: recommender}
}

func (t *RecommendFoods) Name() string { return "recommend_foods" }

func (t *RecommendFoods) Description() string {
	return "Generate food and supplement recommendations based on deficiencies. " +
		"Respects dietary preferences. Call AFTER detect_deficiencies."
}

func (t *RecommendFoods) Parameters() map[string]any {
	return util.CreateSchema(recommendFoodsArgs{})
}

// Execute replaces state.Recommendations wholesale on success.
func (t *RecommendFoods) Execute(ctx context.Context, state *core.RunState, args map[string]any) (map[string]any, error) {
	prefs := state.Preferences
	if raw, ok := args["dietary_preferences"].([]any); ok && len(raw) > 0 {
		override := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				override = append(override, s)
			}
		}
		prefs = override
	}

	recommendations, err := t.recommender.Recommend(ctx, state.Deficiencies, prefs)
	if err != nil {
		return nil, fmt.Errorf("food recommendation failed: %w", err)
	}

	state.Recommendations = recommendations

	return map[string]any{
		"recommendation_count": len(recommendations),
		"recommendations":      recommendations,
	}, nil
}
