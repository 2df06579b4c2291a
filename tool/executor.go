package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/logging"
)

// Result is the normalized outcome of one tool execution. It marshals to a
// flat JSON object: the data fields plus "success", and "error" when set.
// That serialized form is what gets fed back to the model as the tool
// response.
type Result struct {
	Success bool
	Data    map[string]any
	Error   string
}

// MarshalJSON flattens Data next to the success and error fields.
func (r Result) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Data)+2)
	for k, v := range r.Data {
		m[k] = v
	}
	m["success"] = r.Success
	if r.Error != "" {
		m["error"] = r.Error
	}
	return json.Marshal(m)
}

// failure builds an unsuccessful Result. The model sees the plain message;
// the code stays in the logs.
func failure(err *Error) Result {
	return Result{Success: false, Error: err.Message}
}

// Executor resolves a model-requested invocation against the registry,
// validates its arguments, runs the tool and normalizes the outcome. All
// failures come back as unsuccessful Results, never as panics or errors the
// orchestration loop would have to abort on.
type Executor struct {
	registry *Registry
	logger   logging.Logger
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *Registry, logger logging.Logger) *Executor {
	return &Executor{registry: registry, logger: logging.OrNoOp(logger)}
}

// Execute runs the named tool with the serialized JSON arguments the model
// supplied. State is mutated only by a successful tool execution.
func (e *Executor) Execute(ctx context.Context, name, arguments string, state *core.RunState) Result {
	t, ok := e.registry.Get(name)
	if !ok {
		e.logger.Warn("tool.unknown", "tool", name)
		return failure(NewError(name, fmt.Sprintf("unknown tool: %s", name), CodeUnknown))
	}

	args := map[string]any{}
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			e.logger.Warn("tool.bad_arguments", "tool", name, "error", err.Error())
			return failure(NewError(name, fmt.Sprintf("malformed arguments: %v", err), CodeValidation))
		}
	}

	if err := e.registry.Validate(name, args); err != nil {
		e.logger.Warn("tool.validation_failed", "tool", name, "error", err.Error())
		return failure(NewError(name, fmt.Sprintf("parameter validation failed: %v", err), CodeValidation))
	}

	start := time.Now()
	e.logger.Debug("tool.execute.start", "tool", name)

	data, err := t.Execute(ctx, state, args)
	if err != nil {
		var toolErr *Error
		if !errors.As(err, &toolErr) {
			toolErr = NewError(name, err.Error(), CodeExecution)
		}
		e.logger.Error("tool.execute.error", "tool", name, "code", toolErr.Code, "error", toolErr.Message)
		return failure(toolErr)
	}

	e.logger.Info("tool.execute.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())
	return Result{Success: true, Data: data}
}
