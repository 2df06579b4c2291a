package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/ocr"
	"github.com/nutriscan/labagent/report"
)

// Fake collaborators.

type fakeTextExtractor struct {
	result ocr.Result
	err    error
	calls  []bool // forceFallback flags in call order
}

func (f *fakeTextExtractor) Extract(ctx context.Context, documentBytes []byte, forceFallback bool) (ocr.Result, error) {
	f.calls = append(f.calls, forceFallback)
	return f.result, f.err
}

type fakeBiomarkerExtractor struct {
	biomarkers []report.Biomarker
	err        error
	texts      []string
}

func (f *fakeBiomarkerExtractor) Extract(ctx context.Context, text string) ([]report.Biomarker, error) {
	f.texts = append(f.texts, text)
	return f.biomarkers, f.err
}

type fakeGenerator struct {
	explanations []report.Explanation
	err          error
	calls        int
}

func (f *fakeGenerator) Generate(ctx context.Context, deficiencies []report.Deficiency) ([]report.Explanation, error) {
	if len(deficiencies) == 0 {
		return nil, nil
	}
	f.calls++
	return f.explanations, f.err
}

type fakeRecommender struct {
	recommendations []report.FoodRecommendation
	err             error
	prefs           [][]string
	calls           int
}

func (f *fakeRecommender) Recommend(ctx context.Context, deficiencies []report.Deficiency, dietaryPreferences []string) ([]report.FoodRecommendation, error) {
	if len(deficiencies) == 0 {
		return nil, nil
	}
	f.calls++
	f.prefs = append(f.prefs, dietaryPreferences)
	return f.recommendations, f.err
}

type fakeCartBuilder struct {
	cart report.Cart
}

func (f *fakeCartBuilder) Build(ctx context.Context, recommendations []report.FoodRecommendation) (report.Cart, error) {
	return f.cart, nil
}

func lowVitaminD() report.Biomarker {
	return report.Biomarker{TestName: "Vitamin D, 25-Hydroxy", Value: 18.5, Unit: "ng/mL", ReferenceRange: "30-100", Flag: report.FlagLow}
}

// extract_text_from_pdf

func TestExtractTextStoresResult(t *testing.T) {
	fx := &fakeTextExtractor{result: ocr.Result{Text: "Vitamin D 18.5 ng/mL", Confidence: 0.95, Method: core.ExtractionDigital, PageCount: 2}}
	e := newExecutor(t, NewExtractText(fx))
	state := core.NewRunState([]byte("%PDF-1.4"), nil)

	res := e.Execute(context.Background(), "extract_text_from_pdf", "{}", state)
	require.True(t, res.Success, res.Error)

	assert.Equal(t, "Vitamin D 18.5 ng/mL", state.ExtractedText)
	assert.Equal(t, 0.95, state.ExtractionConfidence)
	assert.Equal(t, core.ExtractionDigital, state.ExtractionMethod)
	assert.Equal(t, 2, state.PageCount)

	assert.Equal(t, 20, res.Data["character_count"])
	assert.Equal(t, core.ExtractionDigital, res.Data["method"])
	assert.Equal(t, []bool{false}, fx.calls)
}

func TestExtractTextForceOCR(t *testing.T) {
	fx := &fakeTextExtractor{result: ocr.Result{Text: "scanned text", Confidence: 0.8, Method: core.ExtractionOCR, PageCount: 1}}
	e := newExecutor(t, NewExtractText(fx))
	state := core.NewRunState([]byte("%PDF-1.4"), nil)

	res := e.Execute(context.Background(), "extract_text_from_pdf", `{"force_ocr": true}`, state)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []bool{true}, fx.calls)
	assert.Equal(t, core.ExtractionOCR, state.ExtractionMethod)
}

func TestExtractTextPreviewTruncatesOnRuneBoundary(t *testing.T) {
	// Multi-byte runes around the cutoff must not be split mid-sequence.
	long := strings.Repeat("µ", 600)
	fx := &fakeTextExtractor{result: ocr.Result{Text: long, Confidence: 0.95, Method: core.ExtractionDigital, PageCount: 1}}
	e := newExecutor(t, NewExtractText(fx))
	state := core.NewRunState([]byte("%PDF-1.4"), nil)

	res := e.Execute(context.Background(), "extract_text_from_pdf", "{}", state)
	require.True(t, res.Success, res.Error)

	preview, ok := res.Data["text_preview"].(string)
	require.True(t, ok)
	assert.True(t, utf8.ValidString(preview))
	assert.Equal(t, strings.Repeat("µ", 500)+"...", preview)
}

func TestExtractTextFailurePreservesPriorFields(t *testing.T) {
	fx := &fakeTextExtractor{err: errors.New("unreadable document")}
	e := newExecutor(t, NewExtractText(fx))
	state := core.NewRunState([]byte("%PDF-1.4"), nil)
	state.SetExtraction("previous text", 0.95, core.ExtractionDigital, 1)

	res := e.Execute(context.Background(), "extract_text_from_pdf", "{}", state)
	assert.False(t, res.Success)
	assert.Equal(t, "previous text", state.ExtractedText)
	assert.Equal(t, 0.95, state.ExtractionConfidence)
}

// extract_biomarkers

func TestExtractBiomarkersRequiresText(t *testing.T) {
	fx := &fakeBiomarkerExtractor{}
	e := newExecutor(t, NewExtractBiomarkers(fx))
	state := core.NewRunState(nil, nil)

	res := e.Execute(context.Background(), "extract_biomarkers", "{}", state)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "extract_text_from_pdf")
	assert.Empty(t, fx.texts)
	assert.Empty(t, state.Biomarkers)
}

func TestExtractBiomarkersUsesStoredText(t *testing.T) {
	fx := &fakeBiomarkerExtractor{biomarkers: []report.Biomarker{lowVitaminD()}}
	e := newExecutor(t, NewExtractBiomarkers(fx))
	state := core.NewRunState(nil, nil)
	state.SetExtraction("stored report text", 0.95, core.ExtractionDigital, 1)

	res := e.Execute(context.Background(), "extract_biomarkers", "{}", state)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"stored report text"}, fx.texts)
	require.Len(t, state.Biomarkers, 1)
	assert.Equal(t, 1, res.Data["biomarker_count"])
}

func TestExtractBiomarkersTextOverride(t *testing.T) {
	fx := &fakeBiomarkerExtractor{}
	e := newExecutor(t, NewExtractBiomarkers(fx))
	state := core.NewRunState(nil, nil)
	state.SetExtraction("stored", 0.95, core.ExtractionDigital, 1)

	res := e.Execute(context.Background(), "extract_biomarkers", `{"text_override": "pasted text"}`, state)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"pasted text"}, fx.texts)
}

// detect_deficiencies

func TestDetectDeficienciesRequiresBiomarkers(t *testing.T) {
	e := newExecutor(t, NewDetectDeficiencies())
	state := core.NewRunState(nil, nil)

	res := e.Execute(context.Background(), "detect_deficiencies", "{}", state)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "extract_biomarkers")
	assert.Empty(t, state.Deficiencies)
}

func TestDetectDeficienciesClassifiesStoredBiomarkers(t *testing.T) {
	e := newExecutor(t, NewDetectDeficiencies())
	state := core.NewRunState(nil, nil)
	state.Biomarkers = []report.Biomarker{lowVitaminD()}

	res := e.Execute(context.Background(), "detect_deficiencies", "{}", state)
	require.True(t, res.Success, res.Error)
	require.Len(t, state.Deficiencies, 1)
	assert.Equal(t, report.SeverityInsufficient, state.Deficiencies[0].Severity)
	assert.Equal(t, 1, res.Data["deficiency_count"])
}

// generate_explanations

func TestGenerateExplanationsNoDeficienciesIsNoOpSuccess(t *testing.T) {
	fx := &fakeGenerator{explanations: []report.Explanation{{Title: "should not appear"}}}
	e := newExecutor(t, NewGenerateExplanations(fx))
	state := core.NewRunState(nil, nil)

	res := e.Execute(context.Background(), "generate_explanations", "{}", state)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 0, res.Data["explanation_count"])
	assert.Zero(t, fx.calls, "no external call with zero deficiencies")
	assert.Empty(t, state.Explanations)
}

func TestGenerateExplanationsStoresResult(t *testing.T) {
	fx := &fakeGenerator{explanations: []report.Explanation{{Title: "Vitamin D, 25-Hydroxy — Insufficient Deficiency", Severity: report.SeverityInsufficient, Text: "..."}}}
	e := newExecutor(t, NewGenerateExplanations(fx))
	state := core.NewRunState(nil, nil)
	state.Deficiencies = []report.Deficiency{{Biomarker: lowVitaminD(), Severity: report.SeverityInsufficient}}

	res := e.Execute(context.Background(), "generate_explanations", "{}", state)
	require.True(t, res.Success, res.Error)
	require.Len(t, state.Explanations, 1)
	assert.Equal(t, 1, res.Data["explanation_count"])
}

// recommend_foods

func TestRecommendFoodsNoDeficienciesIsNoOpSuccess(t *testing.T) {
	fx := &fakeRecommender{}
	e := newExecutor(t, NewRecommendFoods(fx))
	state := core.NewRunState(nil, nil)

	res := e.Execute(context.Background(), "recommend_foods", "{}", state)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 0, res.Data["recommendation_count"])
	assert.Zero(t, fx.calls)
}

func TestRecommendFoodsDefaultsToRunPreferences(t *testing.T) {
	fx := &fakeRecommender{recommendations: []report.FoodRecommendation{{Name: "Wild Salmon", Category: "food"}}}
	e := newExecutor(t, NewRecommendFoods(fx))
	state := core.NewRunState(nil, []string{"vegan"})
	state.Deficiencies = []report.Deficiency{{Biomarker: lowVitaminD(), Severity: report.SeverityInsufficient}}

	res := e.Execute(context.Background(), "recommend_foods", "{}", state)
	require.True(t, res.Success, res.Error)
	require.Len(t, fx.prefs, 1)
	assert.Equal(t, []string{"vegan"}, fx.prefs[0])
	require.Len(t, state.Recommendations, 1)
}

func TestRecommendFoodsPreferenceOverride(t *testing.T) {
	fx := &fakeRecommender{}
	e := newExecutor(t, NewRecommendFoods(fx))
	state := core.NewRunState(nil, []string{"vegan"})
	state.Deficiencies = []report.Deficiency{{Biomarker: lowVitaminD(), Severity: report.SeverityInsufficient}}

	res := e.Execute(context.Background(), "recommend_foods", `{"dietary_preferences": ["pescatarian"]}`, state)
	require.True(t, res.Success, res.Error)
	require.Len(t, fx.prefs, 1)
	assert.Equal(t, []string{"pescatarian"}, fx.prefs[0])
}

// build_shopping_cart

func TestBuildShoppingCartRequiresRecommendations(t *testing.T) {
	e := newExecutor(t, NewBuildShoppingCart(&fakeCartBuilder{}))
	state := core.NewRunState(nil, nil)

	res := e.Execute(context.Background(), "build_shopping_cart", "{}", state)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "recommend_foods")
}

func TestBuildShoppingCartStoresCart(t *testing.T) {
	built := report.Cart{
		Items:      []report.CartItem{{Name: "Wild Salmon", URL: "https://www.instacart.com/store/search/Wild+Salmon"}},
		ShopAllURL: "https://www.instacart.com/store/search/Wild+Salmon",
		APIUsed:    false,
	}
	e := newExecutor(t, NewBuildShoppingCart(&fakeCartBuilder{cart: built}))
	state := core.NewRunState(nil, nil)
	state.Recommendations = []report.FoodRecommendation{{Name: "Wild Salmon", Category: "food"}}

	res := e.Execute(context.Background(), "build_shopping_cart", "{}", state)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, built, state.Cart)
	assert.Equal(t, 1, res.Data["cart_item_count"])
	assert.Equal(t, false, res.Data["api_used"])
}
