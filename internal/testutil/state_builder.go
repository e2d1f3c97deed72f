package testutil

import (
	"github.com/hupe1980/agentloop/core"
)

// StateBuilder provides a fluent helper for constructing agent states in
// tests. Example:
//
//	s := NewStateBuilder().System("sys").User("hi").Plan("1. look").Build()
type StateBuilder struct {
	messages    []core.Message
	plan        *string
	steps       []string
	reflections []string
}

// NewStateBuilder creates an empty builder.
func NewStateBuilder() *StateBuilder { return &StateBuilder{} }

// System appends a system message (chainable).
func (b *StateBuilder) System(text string) *StateBuilder {
	b.messages = append(b.messages, core.NewSystemMessage(text))
	return b
}

// User appends a user message (chainable).
func (b *StateBuilder) User(text string) *StateBuilder {
	b.messages = append(b.messages, core.NewUserMessage(text))
	return b
}

// Assistant appends an assistant message with optional tool calls (chainable).
func (b *StateBuilder) Assistant(text string, calls ...core.ToolCall) *StateBuilder {
	b.messages = append(b.messages, core.NewAssistantMessage(text, calls...))
	return b
}

// ToolResult appends a successful tool result for callID (chainable).
func (b *StateBuilder) ToolResult(callID, text string) *StateBuilder {
	b.messages = append(b.messages, core.NewToolResultMessage(callID, text))
	return b
}

// ToolError appends a failed tool result for callID (chainable).
func (b *StateBuilder) ToolError(callID, text string) *StateBuilder {
	b.messages = append(b.messages, core.NewToolErrorMessage(callID, text))
	return b
}

// Plan sets the current plan (chainable).
func (b *StateBuilder) Plan(plan string) *StateBuilder {
	b.plan = &plan
	return b
}

// Step appends entries to StepsTaken (chainable).
func (b *StateBuilder) Step(steps ...string) *StateBuilder {
	b.steps = append(b.steps, steps...)
	return b
}

// Reflection appends entries to Reflections (chainable).
func (b *StateBuilder) Reflection(reflections ...string) *StateBuilder {
	b.reflections = append(b.reflections, reflections...)
	return b
}

// Build returns the state. The builder can be reused; the result shares no
// memory with it.
func (b *StateBuilder) Build() core.AgentState {
	s := core.AgentState{
		Messages:    b.messages,
		Plan:        b.plan,
		StepsTaken:  b.steps,
		Reflections: b.reflections,
	}
	return s.Clone()
}

// Call is shorthand for a tool call without arguments.
func Call(id, name string) core.ToolCall {
	return core.ToolCall{ID: id, Name: name, Arguments: map[string]any{}}
}
