// Package ocr extracts text from PDF lab reports. Digital extraction is tried
// first (fast, near-perfect for text-based PDFs); scanned documents fall back
// to a model-backed OCR pass.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/logging"
)

// Digital extraction is only trusted above this many non-whitespace
// characters; below it the document is assumed to be scanned.
const minDigitalChars = 50

// digitalConfidence is assigned to successful digital extractions.
const digitalConfidence = 0.95

// Result is the outcome of text extraction from a PDF.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0 - 1.0
	Method     string  `json:"method"`     // core.ExtractionDigital or core.ExtractionOCR
	PageCount  int     `json:"page_count"`
}

// Extractor is the text-extraction collaborator consumed by the
// extract-text tool.
type Extractor interface {
	// Extract pulls text out of documentBytes. With forceFallback set the
	// digital path is skipped entirely. It fails only when every applicable
	// method fails.
	Extract(ctx context.Context, documentBytes []byte, forceFallback bool) (Result, error)
}

// Fallback recognizes text in a scanned document.
type Fallback interface {
	Recognize(ctx context.Context, documentBytes []byte) (Result, error)
}

// Service implements Extractor with a digital-first strategy.
type Service struct {
	fallback Fallback
	logger   logging.Logger
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Fallback Fallback
	Logger   logging.Logger
}

// NewService creates an extraction service. A nil fallback disables the OCR
// path; digital-only extraction then fails on scanned documents.
func NewService(optFns ...func(o *ServiceOptions)) *Service {
	opts := ServiceOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Service{fallback: opts.Fallback, logger: logging.OrNoOp(opts.Logger)}
}

// Extract implements Extractor.
func (s *Service) Extract(ctx context.Context, documentBytes []byte, forceFallback bool) (Result, error) {
	if !forceFallback {
		result, err := s.extractDigital(documentBytes)
		if err != nil {
			s.logger.Warn("ocr.digital.failed", "error", err.Error())
		} else if countChars(result.Text) > minDigitalChars {
			s.logger.Info("ocr.digital.extracted", "chars", len(result.Text), "pages", result.PageCount)
			return result, nil
		} else {
			s.logger.Info("ocr.digital.sparse", "chars", countChars(result.Text))
		}
	}

	if s.fallback == nil {
		return Result{}, fmt.Errorf("could not extract text: document appears scanned and no OCR fallback is configured")
	}

	result, err := s.fallback.Recognize(ctx, documentBytes)
	if err != nil {
		return Result{}, fmt.Errorf("could not extract text: %w", err)
	}
	if result.PageCount == 0 {
		result.PageCount = countPages(documentBytes)
	}
	result.Method = core.ExtractionOCR

	s.logger.Info("ocr.fallback.extracted", "chars", len(result.Text), "confidence", result.Confidence)
	return result, nil
}

// extractDigital reads the text layer of a digital PDF page by page.
func (s *Service) extractDigital(documentBytes []byte) (Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(documentBytes), int64(len(documentBytes)))
	if err != nil {
		return Result{}, fmt.Errorf("open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			s.logger.Warn("ocr.digital.page_failed", "page", i, "error", err.Error())
			text = ""
		}
		pages = append(pages, text)
	}

	return Result{
		Text:       strings.Join(pages, "\n\n"),
		Confidence: digitalConfidence,
		Method:     core.ExtractionDigital,
		PageCount:  len(pages),
	}, nil
}

// countPages returns the page count of a PDF, or 0 if it cannot be read.
func countPages(documentBytes []byte) int {
	reader, err := pdf.NewReader(bytes.NewReader(documentBytes), int64(len(documentBytes)))
	if err != nil {
		return 0
	}
	return reader.NumPage()
}

// countChars counts non-whitespace characters.
func countChars(text string) int {
	n := 0
	for _, r := range text {
		if !strings.ContainsRune(" \t\r\n", r) {
			n++
		}
	}
	return n
}
