package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentloop/core"
)

// MockModel is a deterministic, scripted in-memory Model for tests, examples
// and the "mock" provider.
//
// Each Generate call consumes the next scripted step. Once the script is
// exhausted the model answers "Mock response to: <last user text>".
// MockModel is safe for concurrent use.
type MockModel struct {
	info Info

	mu       sync.Mutex
	script   []func(Request) (core.Message, error)
	requests []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: provider, SupportsTools: true}}
}

// Enqueue appends a canned assistant reply.
func (m *MockModel) Enqueue(msg core.Message) *MockModel {
	return m.EnqueueFunc(func(Request) (core.Message, error) { return msg, nil })
}

// EnqueueText appends a plain text assistant reply.
func (m *MockModel) EnqueueText(text string) *MockModel {
	return m.Enqueue(core.NewAssistantMessage(text))
}

// EnqueueToolCalls appends an assistant reply requesting the given tool calls.
func (m *MockModel) EnqueueToolCalls(calls ...core.ToolCall) *MockModel {
	return m.Enqueue(core.NewAssistantMessage("", calls...))
}

// EnqueueError appends a failing step.
func (m *MockModel) EnqueueError(err error) *MockModel {
	return m.EnqueueFunc(func(Request) (core.Message, error) { return core.Message{}, err })
}

// EnqueueFunc appends a step computed from the request.
func (m *MockModel) EnqueueFunc(fn func(Request) (core.Message, error)) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, fn)
	return m
}

// Requests returns a copy of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Remaining returns the number of unconsumed scripted steps.
func (m *MockModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.script)
}

func (m *MockModel) next(req Request) (core.Message, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	var step func(Request) (core.Message, error)
	if len(m.script) > 0 {
		step = m.script[0]
		m.script = m.script[1:]
	}
	m.mu.Unlock()

	if step != nil {
		return step(req)
	}
	return core.NewAssistantMessage(fmt.Sprintf("Mock response to: %s", lastUserText(req.Messages))), nil
}

func lastUserText(msgs []core.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			return msgs[i].Text
		}
	}
	return ""
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}
		msg, err := m.next(req)
		if err != nil {
			errCh <- err
			return
		}
		msg.Role = core.RoleAssistant

		finish := "stop"
		if msg.HasToolCalls() {
			finish = "tool_calls"
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Message: msg, FinishReason: finish}:
		}
	}()
	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
