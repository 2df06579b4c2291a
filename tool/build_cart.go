package tool

import (
	"context"
	"fmt"

	"github.com/nutriscan/labagent/cart"
	"github.com/nutriscan/labagent/core"
)

// BuildShoppingCart turns the stored recommendations into a shoppable cart.
// Requires non-empty recommendations; the cart builder itself never fails,
// it degrades to search URLs instead.
type BuildShoppingCart struct {
	builder cart.Builder
}

// NewBuildShoppingCart creates the cart tool.
func NewBuildShoppingCart(builder cart.Builder) *BuildShoppingCart {
	return &BuildShoppingCart{builder: builder}
}

func (t *BuildShoppingCart) Name() string { return "build_shopping_cart" }

func (t *BuildShoppingCart) Description() string {
	return "Build shopping cart links from food recommendations. " +
		"This is typically the final step. Call AFTER recommend_foods."
}

func (t *BuildShoppingCart) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// Execute replaces state.Cart wholesale on success.
func (t *BuildShoppingCart) Execute(ctx context.Context, state *core.RunState, args map[string]any) (map[string]any, error) {
	if len(state.Recommendations) == 0 {
		return nil, fmt.Errorf("no food recommendations available, run recommend_foods first")
	}

	c, err := t.builder.Build(ctx, state.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("cart building failed: %w", err)
	}

	state.Cart = c

	items := make([]map[string]any, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, map[string]any{"name": item.Name, "url": item.URL})
	}

	return map[string]any{
		"cart_item_count": len(c.Items),
		"shop_all_url":    c.ShopAllURL,
		"api_used":        c.APIUsed,
		"items":           items,
	}, nil
}
