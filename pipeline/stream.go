package pipeline

import (
	"context"

	"github.com/nutriscan/labagent/core"
)

// streamBuffer bounds how far the run may get ahead of a slow consumer
// before step delivery blocks.
const streamBuffer = 64

// Stream is a live view of an in-progress analysis run. Steps must be
// drained; the channel closes when the run finishes. Result blocks until
// then and returns the completed run or its terminal error.
type Stream struct {
	steps  chan core.ReasoningStep
	done   chan struct{}
	result *Result
	err    error
}

// Steps returns the channel of reasoning steps in trace order.
func (s *Stream) Steps() <-chan core.ReasoningStep { return s.steps }

// Result blocks until the run completes.
func (s *Stream) Result() (*Result, error) {
	<-s.done
	return s.result, s.err
}

// AnalyzeStream starts an analysis run in the background and returns a live
// stream of its reasoning steps.
func (p *Pipeline) AnalyzeStream(ctx context.Context, document []byte, preferences []string) *Stream {
	s := &Stream{
		steps: make(chan core.ReasoningStep, streamBuffer),
		done:  make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(s.steps)

		s.result, s.err = p.Analyze(ctx, document, preferences, func(step core.ReasoningStep) {
			s.steps <- step
		})
	}()

	return s
}
