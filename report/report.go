// Package report defines the domain types produced by a lab report analysis:
// biomarkers parsed from the document, deficiencies classified against
// clinical thresholds, and the downstream explanation, recommendation and
// shopping cart values derived from them.
package report

// Severity classifies how far a biomarker value lies outside its normal range.
type Severity string

const (
	// SeverityNormal means the value is inside the normal range.
	SeverityNormal Severity = "normal"
	// SeverityInsufficient means the value is outside the normal range but
	// not critically so.
	SeverityInsufficient Severity = "insufficient"
	// SeveritySevere means the value is critically outside the normal range.
	SeveritySevere Severity = "severe"
)

// Flag values carried over verbatim from the source report, when present.
const (
	FlagLow  = "LOW"
	FlagHigh = "HIGH"
)

// Biomarker is one test result row extracted from a lab report. TestName and
// ReferenceRange are kept verbatim as written in the source document; the
// reference range is deliberately not parsed into numeric bounds.
type Biomarker struct {
	TestName       string  `json:"test_name"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit"`
	ReferenceRange string  `json:"reference_range"`
	Flag           string  `json:"flag,omitempty"` // "LOW", "HIGH" or empty
}

// Deficiency is a biomarker classified as outside its normal range. The
// embedded Biomarker is the value it was created from and is read-only.
type Deficiency struct {
	Biomarker          Biomarker `json:"biomarker"`
	Severity           Severity  `json:"severity"`
	PercentageOfNormal float64   `json:"percentage_of_normal"` // 0-100
}

// Explanation is a plain-English summary of one deficiency.
type Explanation struct {
	Title    string   `json:"title"`
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// FoodRecommendation is a single food or supplement suggestion addressing a
// deficiency.
type FoodRecommendation struct {
	Emoji    string `json:"emoji"`
	Name     string `json:"name"`
	Nutrient string `json:"nutrient"`
	Amount   string `json:"amount"`
	Category string `json:"category"` // "food" or "supplement"
}

// CartItem is one entry of the generated shopping cart.
type CartItem struct {
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Nutrient string `json:"nutrient"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

// Cart is the result of turning recommendations into shoppable links.
// APIUsed reports whether the cart API produced the links or whether the
// deterministic search-URL fallback was used.
type Cart struct {
	Items      []CartItem `json:"items"`
	ShopAllURL string     `json:"shop_all_url"`
	APIUsed    bool       `json:"api_used"`
}
