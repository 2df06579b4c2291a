package tool

import (
	"context"
	"fmt"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/internal/util"
	"github.com/nutriscan/labagent/ocr"
)

const textPreviewLimit = 500

type extractTextArgs struct {
	ForceOCR *bool `json:"force_ocr,omitempty" description:"If true, skip digital extraction and force the OCR fallback. Use if initial extraction returned very little text."`
}

// ExtractText extracts raw text from the uploaded lab report document. It is
// the only tool allowed to overwrite extraction fields, and only via an
// explicit re-invocation.
type ExtractText struct {
	extractor ocr.Extractor
}

// NewExtractText creates the text-extraction tool.
func NewExtractText(extractor ocr.Extractor) *ExtractText {
	return &ExtractText{extractor: extractor}
}

func (t *ExtractText) Name() string { return "extract_text_from_pdf" }

func (t *ExtractText) Description() string {
	return "Extract text from the uploaded PDF lab report. " +
		"Uses digital text extraction for native PDFs and an OCR fallback for scanned ones. " +
		"Returns the extracted text preview, confidence score (0-1), and method used."
}

func (t *ExtractText) Parameters() map[string]any {
	return util.CreateSchema(extractTextArgs{})
}

// Execute runs extraction. A failed extraction leaves any previously stored
// extraction fields untouched.
func (t *ExtractText) Execute(ctx context.Context, state *core.RunState, args map[string]any) (map[string]any, error) {
	if len(state.Document) == 0 {
		return nil, fmt.Errorf("no document available for this run")
	}

	force, _ := args["force_ocr"].(bool)

	res, err := t.extractor.Extract(ctx, state.Document, force)
	if err != nil {
		return nil, fmt.Errorf("text extraction failed: %w", err)
	}

	state.SetExtraction(res.Text, res.Confidence, res.Method, res.PageCount)

	// Truncate on rune boundaries; the text may contain multi-byte symbols
	// (units like µg/dL).
	preview := res.Text
	if runes := []rune(preview); len(runes) > textPreviewLimit {
		preview = string(runes[:textPreviewLimit]) + "..."
	}

	return map[string]any{
		"method":          res.Method,
		"confidence":      res.Confidence,
		"character_count": len(res.Text),
		"page_count":      res.PageCount,
		"text_preview":    preview,
	}, nil
}
