package core

import "strings"

// Role identifies the variant of a Message.
type Role string

const (
	// RoleSystem marks an instruction message.
	RoleSystem Role = "system"
	// RoleUser marks a user-authored message.
	RoleUser Role = "user"
	// RoleAssistant marks a model-authored message (optionally carrying tool calls).
	RoleAssistant Role = "assistant"
	// RoleTool marks the result of a single tool call.
	RoleTool Role = "tool"
)

// ToolCall describes a tool invocation request embedded in an assistant message.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is a role-tagged union. Only the fields relevant to Role are set:
//
//	system    -> Text
//	user      -> Text
//	assistant -> Text, ToolCalls (may be empty)
//	tool      -> CallID, Text, IsError
type Message struct {
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CallID    string     `json:"call_id,omitempty"`
	// IsError is set on tool results produced from a failed invocation. The
	// failure text is still carried in Text so models see it unchanged.
	IsError bool `json:"is_error,omitempty"`
}

// NewSystemMessage creates a system instruction message.
func NewSystemMessage(text string) Message { return Message{Role: RoleSystem, Text: text} }

// NewUserMessage creates a user message.
func NewUserMessage(text string) Message { return Message{Role: RoleUser, Text: text} }

// NewAssistantMessage creates an assistant message with optional tool calls.
func NewAssistantMessage(text string, calls ...ToolCall) Message {
	m := Message{Role: RoleAssistant, Text: text}
	if len(calls) > 0 {
		m.ToolCalls = append([]ToolCall(nil), calls...)
	}
	return m
}

// NewToolResultMessage creates a successful tool result tagged with its originating call id.
func NewToolResultMessage(callID, text string) Message {
	return Message{Role: RoleTool, CallID: callID, Text: text}
}

// NewToolErrorMessage creates a tool result for a failed invocation.
func NewToolErrorMessage(callID, text string) Message {
	return Message{Role: RoleTool, CallID: callID, Text: text, IsError: true}
}

// HasToolCalls reports whether m is an assistant message requesting at least one tool.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// ToolNames returns the names of the requested tools in request order.
func (m Message) ToolNames() []string {
	names := make([]string, 0, len(m.ToolCalls))
	for _, tc := range m.ToolCalls {
		names = append(names, tc.Name)
	}
	return names
}

// Clone returns a deep copy of the message (tool call argument maps are copied shallowly per call).
func (m Message) Clone() Message {
	c := m
	if len(m.ToolCalls) > 0 {
		c.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			args := make(map[string]any, len(tc.Arguments))
			for k, v := range tc.Arguments {
				args[k] = v
			}
			c.ToolCalls[i] = ToolCall{ID: tc.ID, Name: tc.Name, Arguments: args}
		}
	}
	return c
}

// String renders a compact human readable form, used in logs and debugging.
func (m Message) String() string {
	var b strings.Builder
	b.WriteString(string(m.Role))
	b.WriteString(": ")
	b.WriteString(m.Text)
	if len(m.ToolCalls) > 0 {
		b.WriteString(" [calls: ")
		b.WriteString(strings.Join(m.ToolNames(), ", "))
		b.WriteString("]")
	}
	if m.CallID != "" {
		b.WriteString(" [call_id: ")
		b.WriteString(m.CallID)
		b.WriteString("]")
	}
	return b.String()
}

// LastAssistantWithToolCalls returns the index of the most recent assistant
// message carrying tool calls, or -1 when none exists.
func LastAssistantWithToolCalls(messages []Message) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].HasToolCalls() {
			return i
		}
	}
	return -1
}
