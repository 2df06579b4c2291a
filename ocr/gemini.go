package ocr

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const recognizePrompt = `You will receive a scanned lab report PDF. Transcribe ALL text you can read, preserving line breaks and table structure as plain text. Output ONLY the transcribed text, no commentary.`

// GeminiFallback recognizes scanned documents by sending the PDF inline to a
// Gemini vision model and using its transcription as OCR output.
type GeminiFallback struct {
	client *genai.Client
	model  string
}

// GeminiFallbackOptions configures a GeminiFallback.
type GeminiFallbackOptions struct {
	Model string
}

// NewGeminiFallback creates a model-backed OCR fallback from an existing
// Gen AI client.
func NewGeminiFallback(client *genai.Client, optFns ...func(o *GeminiFallbackOptions)) *GeminiFallback {
	opts := GeminiFallbackOptions{Model: "gemini-2.0-flash"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &GeminiFallback{client: client, model: opts.Model}
}

// Recognize implements Fallback.
func (g *GeminiFallback) Recognize(ctx context.Context, documentBytes []byte) (Result, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: recognizePrompt},
			{InlineData: &genai.Blob{Data: documentBytes, MIMEType: "application/pdf"}},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return Result{}, fmt.Errorf("gemini ocr: %w", err)
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Result{}, fmt.Errorf("gemini ocr: empty transcription")
	}

	return Result{Text: text, Confidence: transcriptionConfidence(text)}, nil
}

// transcriptionConfidence is a coarse stand-in for per-word OCR confidence:
// longer transcriptions of a lab report are overwhelmingly real text.
func transcriptionConfidence(text string) float64 {
	switch n := countChars(text); {
	case n > 500:
		return 0.8
	case n > minDigitalChars:
		return 0.5
	default:
		return 0.2
	}
}
