// Package model defines the provider-neutral contract between the
// orchestration loop and language model vendors. Each vendor adapter
// (subpackages anthropic, openai, gemini) translates the neutral tool catalog
// and conversation into its wire format and the vendor response back into
// ordered text and function call parts. The loop never inspects
// vendor-specific shapes.
package model
