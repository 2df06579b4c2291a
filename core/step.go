package core

import "time"

// StepKind distinguishes the two kinds of reasoning steps.
type StepKind string

const (
	// StepReasoning is a free-text rationale segment emitted by the model.
	StepReasoning StepKind = "reasoning"
	// StepToolCall is the outcome of one tool invocation.
	StepToolCall StepKind = "tool_call"
)

// ReasoningStep is one atomic, ordered unit of the agent's visible behavior.
// Steps are immutable once appended to a run's trace. Number is 1-based,
// strictly increasing and gap-free within a run, shared across both kinds.
type ReasoningStep struct {
	Number        int       `json:"step_number"`
	Kind          StepKind  `json:"kind"`
	ToolName      string    `json:"tool_name,omitempty"`
	Reasoning     string    `json:"reasoning,omitempty"`
	ResultSummary string    `json:"result_summary,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// StepObserver receives each ReasoningStep synchronously, in trace order,
// before the run proceeds. Implementations must not retain references past
// the callback and should return quickly.
type StepObserver func(ReasoningStep)
