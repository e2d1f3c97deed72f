package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/model"
)

func TestBuildMessages_GroupsToolResults(t *testing.T) {
	msgs := buildMessages([]core.Message{
		core.NewSystemMessage("sys"),
		core.NewUserMessage("hi"),
		core.NewAssistantMessage("", core.ToolCall{ID: "c1", Name: "a"}, core.ToolCall{ID: "c2", Name: "b"}),
		core.NewToolResultMessage("c1", "r1"),
		core.NewToolErrorMessage("c2", "Error executing tool: boom"),
		core.NewAssistantMessage("final"),
	})

	// user, assistant(tool_use x2), user(tool_result x2), assistant
	require.Len(t, msgs, 4)
	assert.Len(t, msgs[1].Content, 2)
	assert.Len(t, msgs[2].Content, 2)
	assert.Len(t, msgs[3].Content, 1)
}

func TestExtractSystem(t *testing.T) {
	blocks := extractSystem([]core.Message{core.NewSystemMessage("a"), core.NewUserMessage("u"), core.NewSystemMessage("")})
	require.Len(t, blocks, 1)
	assert.Equal(t, "a", blocks[0].Text)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "check_balance",
			Description: "Check balances",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"customer_id": map[string]any{"type": "string"}},
				"required":   []any{"customer_id"},
			},
		},
	}})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "check_balance", tools[0].OfTool.Name)
	assert.Equal(t, []string{"customer_id"}, tools[0].OfTool.InputSchema.Required)
}

func TestInfo(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "claude-3-5-sonnet-latest" })
	assert.Equal(t, "anthropic", m.Info().Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", m.Info().Name)
}
