package model

import (
	"context"
	"sync"

	"github.com/nutriscan/labagent/core"
)

// MockModel is a lightweight scripted Model for tests and examples. Turns are
// returned in the order they were enqueued; when the script is exhausted the
// mock answers with a plain text turn so loops terminate, unless RepeatLast
// is set, in which case the final scripted turn is replayed forever.
type MockModel struct {
	mu         sync.Mutex
	info       Info
	turns      []Response
	next       int
	err        error
	requests   []Request
	RepeatLast bool
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: provider, SupportsTools: true},
	}
}

// EnqueueTurn appends a scripted assistant turn built from the given parts.
func (m *MockModel) EnqueueTurn(parts ...core.Part) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, Response{
		Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
		FinishReason: "stop",
	})
}

// FailWith makes every subsequent Converse call return err.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns the requests received so far, in call order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Converse implements Model.
func (m *MockModel) Converse(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.err != nil {
		return Response{}, m.err
	}

	if m.next >= len(m.turns) {
		if m.RepeatLast && len(m.turns) > 0 {
			return m.turns[len(m.turns)-1], nil
		}
		return Response{
			Content:      core.NewTextContent(core.RoleAssistant, "Analysis complete."),
			FinishReason: "stop",
		}, nil
	}

	resp := m.turns[m.next]
	m.next++
	return resp, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
