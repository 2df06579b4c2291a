// Package tool implements the function calling subsystem of the analysis
// agent: a registry of schema-validated tools and an executor that maps a
// model-requested invocation onto the external collaborators, mutating the
// run state only on success.
//
// Every failure inside a tool, including unknown names, malformed arguments
// and prerequisite violations, is absorbed into a Result with success=false
// so the orchestration loop can feed it back to the model for
// self-correction instead of aborting the run.
package tool

import (
	"context"
	"fmt"

	"github.com/nutriscan/labagent/core"
)

// Tool is one capability the model can invoke during an analysis run.
//
// Execute receives arguments already validated against the tool's schema and
// the run state it may mutate. It returns the structured result fields fed
// back to the model on success. Implementations must mutate state only when
// they return a nil error, and must enforce their own prerequisites by
// returning a descriptive error.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description tells the model when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the accepted arguments.
	Parameters() map[string]any

	// Execute runs the tool against the given run state.
	Execute(ctx context.Context, state *core.RunState, args map[string]any) (map[string]any, error)
}

// Error codes attached to tool failures.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeUnknown    = "UNKNOWN_TOOL"
)

// Error categorizes a tool failure for logging and for the error string fed
// back to the model.
type Error struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewError creates an Error with the given details.
func NewError(tool, message, code string) *Error {
	return &Error{Tool: tool, Message: message, Code: code}
}
