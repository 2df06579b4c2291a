package model

import (
	"context"

	"github.com/nutriscan/labagent/core"
)

// ToolDefinition declaratively exposes a callable tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual tool exposed to the model.
// Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input for one conversation turn.
type Request struct {
	Instructions string           `json:"instructions"` // System instructions
	Contents     []core.Content   `json:"contents"`     // Full conversation so far
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one complete model turn. Content.Parts preserve the order in
// which the vendor emitted text and function call segments.
type Response struct {
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_use", ...
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "anthropic", "openai", "gemini", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the orchestration loop and the LLM-backed
// collaborators require from a provider adapter. Converse performs exactly
// one model turn; a request error is a run-level failure for the caller.
type Model interface {
	Converse(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}
