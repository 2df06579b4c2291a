// Package agent implements the orchestration loop at the center of a lab
// report analysis run.
//
// The loop alternates between asking the model for its next action and
// executing the tool invocations it requests, folding every outcome back
// into the conversation and the run state. It terminates normally when the
// model replies with text only, and soft-terminates at the iteration ceiling
// with whatever state has accumulated. Only a failing model call aborts a
// run; every tool-level failure is absorbed as data the model can react to.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nutriscan/labagent/core"
	"github.com/nutriscan/labagent/logging"
	"github.com/nutriscan/labagent/model"
	"github.com/nutriscan/labagent/tool"
)

// DefaultMaxIterations caps the number of provider turns per run. The model
// has no externally enforced stopping rule, so runaway loops must not
// consume unbounded provider calls.
const DefaultMaxIterations = 15

const systemPrompt = `You are an autonomous health analysis assistant.

You have access to tools that let you analyze a patient's lab report PDF and generate personalized nutrition recommendations.

## Your Mission
Analyze the uploaded PDF lab report end-to-end:
1. Extract text from the PDF
2. Parse biomarker values from the text
3. Detect any deficiencies
4. If deficiencies are found, generate explanations and food recommendations
5. Build a grocery shopping cart with the recommended items

## How to Behave
- **Think step by step.** Before each tool call, briefly explain your reasoning.
- **Validate your results.** If extraction confidence is low (<50%), mention it. If very few biomarkers are found, consider if the text quality is sufficient.
- **Self-correct.** If the initial text extraction returns very little text (<50 characters), retry with force_ocr=true.
- **Adapt.** If no deficiencies are detected, skip explanations and food recommendations and just report the good news.
- **Be thorough.** Complete ALL steps, do not stop after extracting biomarkers.
- **Report dietary preferences.** If the user has dietary preferences, pass them to the recommend_foods tool.

## Important Rules
- You are NOT a doctor. Never diagnose conditions.
- Never recommend specific supplement dosages.
- Always encourage consulting a healthcare provider.
- Be clear, actionable, and non-alarmist.

## When You're Done
After completing all steps, provide a brief final summary mentioning:
- How many biomarkers were found
- How many deficiencies were detected
- What food categories were recommended
- That the shopping cart is ready

Keep your final summary to 2-3 sentences.`

// Options configures an Agent.
type Options struct {
	// MaxIterations is the provider-turn ceiling for one run.
	MaxIterations int
	// Logger receives per-iteration debug output.
	Logger logging.Logger
}

// Agent drives one analysis run per Run invocation. The same Agent may
// serve many runs; all per-run state lives in the RunState it is handed.
type Agent struct {
	model    model.Model
	registry *tool.Registry
	executor *tool.Executor
	opts     Options
	logger   logging.Logger
}

// New creates an agent over the given model and tool set.
func New(m model.Model, registry *tool.Registry, executor *tool.Executor, optFns ...func(o *Options)) *Agent {
	opts := Options{MaxIterations: DefaultMaxIterations}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	return &Agent{
		model:    m,
		registry: registry,
		executor: executor,
		opts:     opts,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Run executes the orchestration loop against state, appending every step to
// its reasoning trace and pushing each one to observer when supplied. It
// returns an error only for model failures or caller cancellation; hitting
// the iteration ceiling is a soft stop.
func (a *Agent) Run(ctx context.Context, state *core.RunState, observer core.StepObserver) error {
	contents := []core.Content{
		core.NewTextContent(core.RoleUser, seedMessage(state)),
	}
	tools := a.registry.Definitions()

	for iteration := 1; iteration <= a.opts.MaxIterations; iteration++ {
		// No further iterations once cancellation is observed; in-flight
		// external calls are allowed to run to completion.
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run %s cancelled: %w", state.RunID, err)
		}

		a.logger.Info("agent.iteration", "run_id", state.RunID, "iteration", iteration, "max", a.opts.MaxIterations)

		resp, err := a.model.Converse(ctx, model.Request{
			Instructions: systemPrompt,
			Contents:     contents,
			Tools:        tools,
		})
		if err != nil {
			return fmt.Errorf("model turn %d: %w", iteration, err)
		}

		// One reasoning step per text segment, in emission order.
		for _, text := range resp.Content.TextSegments() {
			if strings.TrimSpace(text) == "" {
				continue
			}
			notify(observer, state.AppendStep(core.ReasoningStep{
				Kind:      core.StepReasoning,
				Reasoning: text,
			}))
		}

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			a.logger.Info("agent.done", "run_id", state.RunID, "iterations", iteration)
			return nil
		}

		contents = append(contents, resp.Content)

		// Sequential by contract: later calls in the same batch may depend on
		// state set by earlier ones.
		responseParts := make([]core.Part, 0, len(calls))
		for _, call := range calls {
			a.logger.Info("agent.tool_call", "run_id", state.RunID, "tool", call.Name)

			result := a.executor.Execute(ctx, call.Name, call.Arguments, state)

			notify(observer, state.AppendStep(core.ReasoningStep{
				Kind:          core.StepToolCall,
				ToolName:      call.Name,
				Reasoning:     "Calling " + call.Name,
				ResultSummary: summarize(call.Name, result),
			}))

			raw, err := json.Marshal(result)
			if err != nil {
				raw = []byte(`{"success": false, "error": "unserializable tool result"}`)
			}
			responseParts = append(responseParts, core.FunctionResponsePart{
				FunctionResponse: core.FunctionResponse{
					ID:       call.ID,
					Name:     call.Name,
					Response: string(raw),
				},
			})
		}

		contents = append(contents, core.Content{Role: core.RoleTool, Parts: responseParts})
	}

	a.logger.Warn("agent.max_iterations", "run_id", state.RunID, "max", a.opts.MaxIterations)
	return nil
}

func notify(observer core.StepObserver, step core.ReasoningStep) {
	if observer != nil {
		observer(step)
	}
}

// seedMessage builds the initial user turn describing the uploaded document.
func seedMessage(state *core.RunState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I've uploaded a lab report PDF (%d bytes). ", len(state.Document))
	sb.WriteString("Please analyze it completely: extract biomarkers, detect deficiencies, " +
		"generate explanations, recommend foods, and build a shopping cart.")
	if len(state.Preferences) > 0 {
		fmt.Fprintf(&sb, "\n\nDietary preferences: %s", strings.Join(state.Preferences, ", "))
	}
	return sb.String()
}
