package agent

import (
	"fmt"

	"github.com/nutriscan/labagent/tool"
)

// summarize renders the fixed-format human summary recorded on a tool_call
// reasoning step.
func summarize(toolName string, result tool.Result) string {
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "unknown error"
		}
		return "Failed: " + msg
	}

	switch toolName {
	case "extract_text_from_pdf":
		return fmt.Sprintf("Extracted %d chars via %s (%.0f%% confidence)",
			intField(result, "character_count"),
			stringField(result, "method"),
			floatField(result, "confidence")*100)
	case "extract_biomarkers":
		return fmt.Sprintf("Found %d biomarkers", intField(result, "biomarker_count"))
	case "detect_deficiencies":
		if n := intField(result, "deficiency_count"); n > 0 {
			return fmt.Sprintf("Detected %d deficiencies", n)
		}
		return "No deficiencies detected"
	case "generate_explanations":
		return fmt.Sprintf("Generated %d explanations", intField(result, "explanation_count"))
	case "recommend_foods":
		return fmt.Sprintf("Recommended %d foods/supplements", intField(result, "recommendation_count"))
	case "build_shopping_cart":
		return fmt.Sprintf("Built cart with %d items", intField(result, "cart_item_count"))
	default:
		return toolName + " completed"
	}
}

func intField(result tool.Result, key string) int {
	switch v := result.Data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func floatField(result tool.Result, key string) float64 {
	switch v := result.Data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func stringField(result tool.Result, key string) string {
	if s, ok := result.Data[key].(string); ok {
		return s
	}
	return "?"
}
