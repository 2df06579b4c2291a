// Package labagent provides a high-level facade over the analysis core,
// wiring the text-extraction, biomarker, deficiency, explanation,
// recommendation and cart collaborators into a ready-to-use pipeline. Most
// applications interact with this package by:
//  1. Constructing a provider adapter (model/anthropic, model/openai or
//     model/gemini)
//  2. Creating a pipeline via New() with that model
//  3. Calling Analyze or AnalyzeStream with a document
//
// The facade delegates orchestration to agent.Agent; every collaborator can
// be overridden through Options for testing or custom deployments.
package labagent

import (
	"github.com/nutriscan/labagent/agent"
	"github.com/nutriscan/labagent/biomarker"
	"github.com/nutriscan/labagent/cart"
	"github.com/nutriscan/labagent/explain"
	"github.com/nutriscan/labagent/logging"
	"github.com/nutriscan/labagent/model"
	"github.com/nutriscan/labagent/ocr"
	"github.com/nutriscan/labagent/pipeline"
	"github.com/nutriscan/labagent/recommend"
	"github.com/nutriscan/labagent/tool"
)

// Options configures the assembled pipeline. Unset collaborators fall back
// to the default implementations built around the supplied model.
type Options struct {
	// MaxIterations caps provider turns per run; zero means the default.
	MaxIterations int

	// OCRFallback recognizes scanned documents when digital extraction
	// yields too little text. Nil disables the fallback.
	OCRFallback ocr.Fallback

	// Instacart Developer Platform credentials for cart building. An empty
	// key selects the search-URL fallback.
	InstacartAPIKey string
	InstacartAPIURL string

	// Overridable collaborators.
	TextExtractor      ocr.Extractor
	BiomarkerExtractor biomarker.Extractor
	Explainer          explain.Generator
	Recommender        recommend.Recommender
	CartBuilder        cart.Builder

	// Logger (defaults to no-op if nil).
	Logger logging.Logger
}

// New wires the full tool set around m and returns the analysis pipeline.
func New(m model.Model, optFns ...func(o *Options)) (*pipeline.Pipeline, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	textExtractor := opts.TextExtractor
	if textExtractor == nil {
		textExtractor = ocr.NewService(func(o *ocr.ServiceOptions) {
			o.Fallback = opts.OCRFallback
			o.Logger = logger
		})
	}

	biomarkerExtractor := opts.BiomarkerExtractor
	if biomarkerExtractor == nil {
		biomarkerExtractor = biomarker.NewModelExtractor(m, logger)
	}

	explainer := opts.Explainer
	if explainer == nil {
		explainer = explain.NewModelGenerator(m)
	}

	recommender := opts.Recommender
	if recommender == nil {
		recommender = recommend.NewModelRecommender(m, logger)
	}

	cartBuilder := opts.CartBuilder
	if cartBuilder == nil {
		cartBuilder = cart.NewInstacartBuilder(func(o *cart.Options) {
			o.APIKey = opts.InstacartAPIKey
			if opts.InstacartAPIURL != "" {
				o.APIURL = opts.InstacartAPIURL
			}
			o.Logger = logger
		})
	}

	registry, err := tool.NewRegistry(
		tool.NewExtractText(textExtractor),
		tool.NewExtractBiomarkers(biomarkerExtractor),
		tool.NewDetectDeficiencies(),
		tool.NewGenerateExplanations(explainer),
		tool.NewRecommendFoods(recommender),
		tool.NewBuildShoppingCart(cartBuilder),
	)
	if err != nil {
		return nil, err
	}

	a := agent.New(m, registry, tool.NewExecutor(registry, logger), func(o *agent.Options) {
		o.MaxIterations = opts.MaxIterations
		o.Logger = logger
	})

	return pipeline.New(a, func(o *pipeline.Options) {
		o.Logger = logger
	}), nil
}
