// Command labagent analyzes a blood-test lab report PDF from the command
// line, streaming the agent's reasoning steps while it works.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"google.golang.org/genai"

	"github.com/nutriscan/labagent"
	"github.com/nutriscan/labagent/config"
	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/logging"
	"github.com/nutriscan/labagent/model"
	"github.com/nutriscan/labagent/model/anthropic"
	"github.com/nutriscan/labagent/model/gemini"
	"github.com/nutriscan/labagent/model/openai"
	"github.com/nutriscan/labagent/ocr"
	"github.com/nutriscan/labagent/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "labagent",
		Short:         "Autonomous blood-test lab report analysis agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newAnalyzeCmd())
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		file    string
		prefs   []string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a lab report PDF end-to-end",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
			logger := logging.NewZerologAdapter(zl)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			document, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			m, fallback, err := buildModel(ctx, cfg)
			if err != nil {
				return err
			}

			p, err := labagent.New(m, func(o *labagent.Options) {
				o.OCRFallback = fallback
				o.InstacartAPIKey = cfg.InstacartAPIKey
				o.InstacartAPIURL = cfg.InstacartAPIURL
				o.Logger = logger
			})
			if err != nil {
				return err
			}

			stream := p.AnalyzeStream(ctx, document, prefs)
			for step := range stream.Steps() {
				printStep(cmd, step)
			}

			result, err := stream.Result()
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the lab report PDF (required)")
	cmd.Flags().StringSliceVarP(&prefs, "prefs", "p", nil, "Dietary preferences, e.g. vegan,lactose-free")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// buildModel constructs the provider adapter selected by configuration, plus
// the Gemini vision OCR fallback when a Gemini key is available.
func buildModel(ctx context.Context, cfg *config.Config) (model.Model, ocr.Fallback, error) {
	var fallback ocr.Fallback
	var geminiClient *genai.Client

	if cfg.GeminiAPIKey != "" {
		var err error
		geminiClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("gemini client: %w", err)
		}
		fallback = ocr.NewGeminiFallback(geminiClient)
	}

	switch cfg.Provider {
	case config.ProviderAnthropic:
		m := anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			o.Model = anthropicsdk.Model(cfg.AnthropicModel)
		})
		return m, fallback, nil
	case config.ProviderOpenAI:
		m := openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.OpenAIAPIKey
			o.Model = cfg.OpenAIModel
		})
		return m, fallback, nil
	case config.ProviderGemini:
		m := gemini.NewModelFromClient(geminiClient, func(o *gemini.Options) {
			o.Model = cfg.GeminiModel
		})
		return m, fallback, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func printStep(cmd *cobra.Command, step core.ReasoningStep) {
	switch step.Kind {
	case core.StepToolCall:
		cmd.Printf("[%2d] %-24s %s\n", step.Number, step.ToolName, step.ResultSummary)
	default:
		cmd.Printf("[%2d] %s\n", step.Number, step.Reasoning)
	}
}

func printResult(cmd *cobra.Command, result *pipeline.Result) {
	cmd.Println()
	cmd.Printf("Run %s complete: %d biomarkers, %d deficiencies\n",
		result.RunID, len(result.Biomarkers), len(result.Deficiencies))

	for _, e := range result.Explanations {
		cmd.Printf("\n%s\n%s\n", e.Title, e.Text)
	}

	if len(result.Recommendations) > 0 {
		cmd.Println("\nRecommendations:")
		for _, r := range result.Recommendations {
			line := fmt.Sprintf("  %s %s (%s", r.Emoji, r.Name, r.Nutrient)
			if r.Amount != "" {
				line += ", " + r.Amount
			}
			cmd.Println(line + ")")
		}
	}

	if len(result.Cart.Items) > 0 {
		cmd.Println("\nShopping cart:")
		for _, item := range result.Cart.Items {
			cmd.Printf("  %s: %s\n", item.Name, item.URL)
		}
		if result.Cart.ShopAllURL != "" {
			cmd.Printf("  Shop all: %s\n", result.Cart.ShopAllURL)
		}
	}
}
