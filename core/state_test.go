package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestReduceState_AppendsAndOverwrites(t *testing.T) {
	s := NewState(NewUserMessage("hi"))

	s1 := ReduceState(s, Update{Plan: strPtr("P1")})
	assert.Equal(t, "P1", s1.PlanText())
	assert.Len(t, s1.Messages, 1)

	s2 := ReduceState(s1, Update{
		Messages:    []Message{NewAssistantMessage("thinking")},
		StepsTaken:  []string{"Called tool: check_balance"},
		Reflections: []string{"R1"},
	})
	assert.Equal(t, "P1", s2.PlanText(), "nil plan update keeps prior value")
	assert.Len(t, s2.Messages, 2)
	assert.Equal(t, []string{"Called tool: check_balance"}, s2.StepsTaken)
	assert.Equal(t, []string{"R1"}, s2.Reflections)

	s3 := ReduceState(s2, Update{Plan: strPtr("P2"), Reflections: []string{"R2"}})
	assert.Equal(t, "P2", s3.PlanText())
	assert.Equal(t, []string{"R1", "R2"}, s3.Reflections)

	// prior snapshots are untouched
	assert.Equal(t, "P1", s2.PlanText())
	assert.Equal(t, []string{"R1"}, s2.Reflections)
}

func TestReduceState_DoesNotAlias(t *testing.T) {
	prior := make([]string, 1, 8)
	prior[0] = "a"
	s := AgentState{StepsTaken: prior}

	x := ReduceState(s, Update{StepsTaken: []string{"x"}})
	y := ReduceState(s, Update{StepsTaken: []string{"y"}})

	assert.Equal(t, []string{"a", "x"}, x.StepsTaken)
	assert.Equal(t, []string{"a", "y"}, y.StepsTaken)
}

func TestAgentState_Clone(t *testing.T) {
	s := AgentState{
		Messages: []Message{NewAssistantMessage("", ToolCall{ID: "c1", Name: "t", Arguments: map[string]any{"k": "v"}})},
		Plan:     strPtr("plan"),
	}
	c := s.Clone()
	c.Messages[0].ToolCalls[0].Arguments["k"] = "changed"
	*c.Plan = "other"

	assert.Equal(t, "v", s.Messages[0].ToolCalls[0].Arguments["k"])
	assert.Equal(t, "plan", s.PlanText())
}

func TestLastAssistantWithToolCalls(t *testing.T) {
	msgs := []Message{
		NewUserMessage("q"),
		NewAssistantMessage("", ToolCall{ID: "1", Name: "a"}),
		NewToolResultMessage("1", "r"),
		NewAssistantMessage("no calls"),
	}
	assert.Equal(t, 1, LastAssistantWithToolCalls(msgs))
	assert.Equal(t, -1, LastAssistantWithToolCalls(msgs[:1]))
}

func TestCheckToolResultIntegrity(t *testing.T) {
	ok := []Message{
		NewUserMessage("q"),
		NewAssistantMessage("", ToolCall{ID: "1", Name: "a"}, ToolCall{ID: "2", Name: "b"}),
		NewToolResultMessage("1", "r1"),
		NewToolErrorMessage("2", "Error executing tool: x"),
	}
	require.NoError(t, CheckToolResultIntegrity(ok))

	bad := []Message{
		NewToolResultMessage("orphan", "r"),
		NewAssistantMessage("", ToolCall{ID: "orphan", Name: "a"}),
	}
	err := CheckToolResultIntegrity(bad)
	require.Error(t, err)

	var ie *IntegrityError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 0, ie.Index)
	assert.Equal(t, "orphan", ie.CallID)
}

func TestMessage_Helpers(t *testing.T) {
	m := NewAssistantMessage("t", ToolCall{ID: "1", Name: "a"}, ToolCall{ID: "2", Name: "b"})
	assert.True(t, m.HasToolCalls())
	assert.Equal(t, []string{"a", "b"}, m.ToolNames())
	assert.Equal(t, "assistant: t [calls: a, b]", m.String())

	assert.False(t, NewUserMessage("x").HasToolCalls())
	assert.True(t, NewToolErrorMessage("1", "e").IsError)
	assert.False(t, NewToolResultMessage("1", "e").IsError)
}
