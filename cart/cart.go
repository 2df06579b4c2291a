// Package cart turns food recommendations into a shoppable Instacart list.
//
// When an Instacart Developer Platform API key is configured it creates a
// real shopping list link via POST /idp/v1/products/products_link; otherwise,
// and whenever that call fails, it falls back to deterministic store search
// URLs. Building a cart never fails: the fallback always produces a result.
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nutriscan/labagent/logging"
	"github.com/nutriscan/labagent/report"
)

const (
	searchBase = "https://www.instacart.com/store/search"

	defaultAPIURL  = "https://connect.instacart.com"
	defaultTitle   = "Your Personalized Grocery List"
	requestTimeout = 15 * time.Second
)

// Builder creates a shopping cart from recommendations.
type Builder interface {
	Build(ctx context.Context, recommendations []report.FoodRecommendation) (report.Cart, error)
}

// Options configures an Instacart cart builder.
type Options struct {
	// APIKey authenticates against the Instacart Developer Platform. When
	// empty, only the search-URL fallback is used.
	APIKey string
	// APIURL is the Developer Platform base URL.
	APIURL string
	// Title is shown on the created shopping list page.
	Title string
	// HTTPClient overrides the default client, for tests.
	HTTPClient *http.Client
	// Logger receives debug and error output.
	Logger logging.Logger
}

// InstacartBuilder implements Builder against the Instacart Developer
// Platform with a search-URL fallback.
type InstacartBuilder struct {
	opts   Options
	client *http.Client
	logger logging.Logger
}

// NewInstacartBuilder creates a cart builder.
func NewInstacartBuilder(optFns ...func(o *Options)) *InstacartBuilder {
	opts := Options{
		APIURL: defaultAPIURL,
		Title:  defaultTitle,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	return &InstacartBuilder{
		opts:   opts,
		client: client,
		logger: logging.OrNoOp(opts.Logger),
	}
}

type productsLinkRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	LineItems   []lineItem `json:"line_items"`
	LinkType    string     `json:"link_type"`
}

type lineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type productsLinkResponse struct {
	ProductsLinkURL string `json:"products_link_url"`
}

// Build implements Builder. It never returns an error for API failures;
// those degrade to the search-URL fallback.
func (b *InstacartBuilder) Build(ctx context.Context, recommendations []report.FoodRecommendation) (report.Cart, error) {
	if b.opts.APIKey == "" {
		b.logger.Info("cart.fallback", "reason", "no API key configured")
		return b.buildFallback(recommendations), nil
	}

	c, err := b.buildViaAPI(ctx, recommendations)
	if err != nil {
		b.logger.Error("cart.api_failed", "error", err.Error())
		return b.buildFallback(recommendations), nil
	}
	return c, nil
}

func (b *InstacartBuilder) buildViaAPI(ctx context.Context, recommendations []report.FoodRecommendation) (report.Cart, error) {
	// Instacart sells groceries, not supplements.
	var items []lineItem
	for _, rec := range recommendations {
		if rec.Category == "supplement" {
			continue
		}
		items = append(items, lineItem{Name: rec.Name, Quantity: 1})
	}
	if len(items) == 0 {
		return b.buildFallback(recommendations), nil
	}

	body, err := json.Marshal(productsLinkRequest{
		Title:       b.opts.Title,
		Description: "Personalized grocery recommendations based on your lab report analysis.",
		LineItems:   items,
		LinkType:    "shopping_list",
	})
	if err != nil {
		return report.Cart{}, err
	}

	endpoint := strings.TrimRight(b.opts.APIURL, "/") + "/idp/v1/products/products_link"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return report.Cart{}, err
	}
	req.Header.Set("Authorization", "Bearer "+b.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return report.Cart{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return report.Cart{}, fmt.Errorf("instacart api: unexpected status %d", resp.StatusCode)
	}

	var parsed productsLinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return report.Cart{}, fmt.Errorf("instacart api: decode response: %w", err)
	}
	if parsed.ProductsLinkURL == "" {
		return report.Cart{}, fmt.Errorf("instacart api: empty products_link_url")
	}

	b.logger.Info("cart.created", "url", parsed.ProductsLinkURL)

	// Every item links to the same shared list.
	cartItems := make([]report.CartItem, 0, len(recommendations))
	for _, rec := range recommendations {
		cartItems = append(cartItems, report.CartItem{
			Name:     rec.Name,
			Emoji:    rec.Emoji,
			Nutrient: rec.Nutrient,
			Amount:   rec.Amount,
			Category: rec.Category,
			URL:      parsed.ProductsLinkURL,
		})
	}

	return report.Cart{
		Items:      cartItems,
		ShopAllURL: parsed.ProductsLinkURL,
		APIUsed:    true,
	}, nil
}

func (b *InstacartBuilder) buildFallback(recommendations []report.FoodRecommendation) report.Cart {
	items := make([]report.CartItem, 0, len(recommendations))
	for _, rec := range recommendations {
		items = append(items, report.CartItem{
			Name:     rec.Name,
			Emoji:    rec.Emoji,
			Nutrient: rec.Nutrient,
			Amount:   rec.Amount,
			Category: rec.Category,
			URL:      searchURL(rec.Name),
		})
	}

	return report.Cart{
		Items:      items,
		ShopAllURL: shopAllURL(recommendations),
		APIUsed:    false,
	}
}

// searchURL builds an Instacart store search URL for a single item.
func searchURL(name string) string {
	return searchBase + "/" + url.QueryEscape(name)
}

// shopAllURL builds a combined search URL covering the first ten food items.
func shopAllURL(recommendations []report.FoodRecommendation) string {
	var names []string
	for _, rec := range recommendations {
		if rec.Category != "food" {
			continue
		}
		names = append(names, rec.Name)
		if len(names) == 10 {
			break
		}
	}
	return searchBase + "/" + url.QueryEscape(strings.Join(names, " "))
}
