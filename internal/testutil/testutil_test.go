package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/tool"
)

func TestStateBuilder(t *testing.T) {
	b := NewStateBuilder().
		System("sys").
		User("hi").
		Assistant("", Call("c1", "a")).
		ToolResult("c1", "ok").
		Plan("P").
		Step("Called tool: a").
		Reflection("fine")

	s := b.Build()
	require.Len(t, s.Messages, 4)
	assert.Equal(t, core.RoleAssistant, s.Messages[2].Role)
	assert.Equal(t, []string{"a"}, s.Messages[2].ToolNames())
	assert.Equal(t, "P", s.PlanText())
	assert.Equal(t, []string{"Called tool: a"}, s.StepsTaken)
	assert.Equal(t, []string{"fine"}, s.Reflections)
	assert.NoError(t, core.CheckToolResultIntegrity(s.Messages))

	s.Messages[0].Text = "changed"
	assert.Equal(t, "sys", b.Build().Messages[0].Text)
}

func TestStubTools(t *testing.T) {
	ctx := context.Background()
	c := tool.MustCatalog(
		TextTool("text", "hello"),
		FailingTool("broken", errors.New("down")),
		SlowTool("slow", "late", time.Hour),
	)

	out, err := c.Call(ctx, "text", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", tool.RenderText(out))

	_, err = c.Call(ctx, "broken", nil)
	require.ErrorContains(t, err, "down")

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.Call(cctx, "slow", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRecordingTool(t *testing.T) {
	r := NewRecordingTool("rec", "ok")
	_, err := r.Call(context.Background(), map[string]any{"n": 1})
	require.NoError(t, err)
	_, err = r.Call(context.Background(), map[string]any{"n": 2})
	require.NoError(t, err)

	calls := r.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 2, calls[1]["n"])
}
