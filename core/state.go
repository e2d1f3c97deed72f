package core

import "fmt"

// AgentState is the shared state of a single run. Values are treated as
// immutable: nodes return an Update and the graph executor merges it with
// ReduceState, producing a fresh AgentState.
type AgentState struct {
	// Messages is the conversation so far, including injected instructions.
	Messages []Message
	// Plan is the most recent plan produced by the planner; nil until set.
	Plan *string
	// StepsTaken grows by one entry per completed tool execution.
	StepsTaken []string
	// Reflections grows by one entry per reflector invocation.
	Reflections []string
}

// Update is a partial state update returned by a node. Unset fields leave the
// corresponding state field untouched.
type Update struct {
	Messages    []Message
	Plan        *string
	StepsTaken  []string
	Reflections []string
}

// NewState creates the initial state of a run from the caller's history.
func NewState(messages ...Message) AgentState {
	return AgentState{Messages: AppendMessages(nil, messages)}
}

// PlanText returns the current plan or the empty string.
func (s AgentState) PlanText() string {
	if s.Plan == nil {
		return ""
	}
	return *s.Plan
}

// Clone returns a deep copy of the state.
func (s AgentState) Clone() AgentState {
	c := AgentState{
		StepsTaken:  AppendStrings(nil, s.StepsTaken),
		Reflections: AppendStrings(nil, s.Reflections),
		Plan:        OverwritePlan(nil, s.Plan),
	}
	if s.Messages != nil {
		c.Messages = make([]Message, len(s.Messages))
		for i, m := range s.Messages {
			c.Messages[i] = m.Clone()
		}
	}
	return c
}

// Reducers. Each field of AgentState has exactly one merge rule.

// AppendMessages returns prior followed by update in a newly allocated slice.
func AppendMessages(prior, update []Message) []Message {
	if len(update) == 0 && prior == nil {
		return nil
	}
	out := make([]Message, 0, len(prior)+len(update))
	out = append(out, prior...)
	return append(out, update...)
}

// AppendStrings returns prior followed by update in a newly allocated slice.
func AppendStrings(prior, update []string) []string {
	if len(update) == 0 && prior == nil {
		return nil
	}
	out := make([]string, 0, len(prior)+len(update))
	out = append(out, prior...)
	return append(out, update...)
}

// OverwritePlan implements last-write-wins. A nil update keeps the prior value.
func OverwritePlan(prior, update *string) *string {
	src := prior
	if update != nil {
		src = update
	}
	if src == nil {
		return nil
	}
	v := *src
	return &v
}

// ReduceState merges u into s using the per-field reducers.
func ReduceState(s AgentState, u Update) AgentState {
	return AgentState{
		Messages:    AppendMessages(s.Messages, u.Messages),
		Plan:        OverwritePlan(s.Plan, u.Plan),
		StepsTaken:  AppendStrings(s.StepsTaken, u.StepsTaken),
		Reflections: AppendStrings(s.Reflections, u.Reflections),
	}
}

// IntegrityError reports a tool result that does not answer any tool call of a
// preceding assistant message.
type IntegrityError struct {
	Index  int
	CallID string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("message %d: tool result %q has no matching preceding tool call", e.Index, e.CallID)
}

// CheckToolResultIntegrity verifies that every tool result in messages
// references a call id requested by an earlier assistant message.
func CheckToolResultIntegrity(messages []Message) error {
	requested := make(map[string]struct{})
	for i, m := range messages {
		switch m.Role {
		case RoleAssistant:
			for _, tc := range m.ToolCalls {
				requested[tc.ID] = struct{}{}
			}
		case RoleTool:
			if _, ok := requested[m.CallID]; !ok {
				return &IntegrityError{Index: i, CallID: m.CallID}
			}
		}
	}
	return nil
}
