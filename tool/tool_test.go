package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Content Tests --------------------

func TestRenderText(t *testing.T) {
	got := RenderText([]Content{
		TextContent("Balance: "),
		TextContent("$1,000.00"),
		ImageContent([]byte{1, 2}, "image/png"),
		ResourceContent("file:///statement.pdf"),
	})
	assert.Equal(t, "Balance: $1,000.00[Image Content][Resource: file:///statement.pdf]", got)
	assert.Equal(t, "", RenderText(nil))
}

// -------------------- FunctionTool Tests --------------------

func sumParams() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}
}

func TestFunctionTool_Success(t *testing.T) {
	sumTool := NewTextFunctionTool("sum", "Add numbers", sumParams(), func(_ context.Context, args map[string]any) (string, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		if a+b == 5 {
			return "five", nil
		}
		return "other", nil
	})

	result, err := sumTool.Call(context.Background(), map[string]any{"a": 2.0, "b": 3.0})
	require.NoError(t, err)
	assert.Equal(t, []Content{TextContent("five")}, result)
	assert.Equal(t, "sum", sumTool.Name())
	assert.Equal(t, "Add numbers", sumTool.Description())
}

func TestFunctionTool_DefaultsAndIntegers(t *testing.T) {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"limit": map[string]any{"type": "integer", "default": 5},
		},
	}
	var seen map[string]any
	lt := NewFunctionTool("limit", "", params, func(_ context.Context, args map[string]any) ([]Content, error) {
		seen = args
		return nil, nil
	})

	_, err := lt.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 5, seen["limit"])

	_, err = lt.Call(context.Background(), map[string]any{"limit": float64(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, seen["limit"])
}

func TestFunctionTool_ValidationError(t *testing.T) {
	tTool := NewTextFunctionTool("test", "Test", sumParams(), func(context.Context, map[string]any) (string, error) {
		return "", nil
	})

	_, err := tTool.Call(context.Background(), map[string]any{"a": 1.0})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "b", vErr.Field)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	boom := errors.New("boom")
	execTool := NewTextFunctionTool("fail", "Fails", map[string]any{"type": "object"}, func(context.Context, map[string]any) (string, error) {
		return "", boom
	})

	_, err := execTool.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "tool error [EXECUTION_ERROR] in fail: boom", err.Error())
}

func TestFunctionTool_ToolErrorPassThrough(t *testing.T) {
	custom := NewToolError("custom", "account not found", "NOT_FOUND")
	ct := NewTextFunctionTool("custom", "", nil, func(context.Context, map[string]any) (string, error) {
		return "", custom
	})

	_, err := ct.Call(context.Background(), nil)
	assert.Same(t, custom, err)
}

type argsStruct struct {
	CustomerID string `json:"customer_id" description:"Customer ID"`
	Limit      int    `json:"limit" default:"5"`
}

func TestNewFunctionToolFromStruct(t *testing.T) {
	st := NewFunctionToolFromStruct("tx", "Transactions", argsStruct{}, func(_ context.Context, args map[string]any) ([]Content, error) {
		return []Content{TextContent(args["customer_id"].(string))}, nil
	})

	props := st.Parameters()["properties"].(map[string]any)
	assert.Contains(t, props, "customer_id")
	assert.Contains(t, props, "limit")

	_, err := st.Call(context.Background(), map[string]any{})
	require.Error(t, err)

	out, err := st.Call(context.Background(), map[string]any{"customer_id": "C001"})
	require.NoError(t, err)
	assert.Equal(t, "C001", RenderText(out))
}

// -------------------- Catalog Tests --------------------

func TestCatalog(t *testing.T) {
	a := NewTextFunctionTool("a", "first", nil, func(context.Context, map[string]any) (string, error) { return "A", nil })
	b := NewTextFunctionTool("b", "second", nil, func(context.Context, map[string]any) (string, error) { return "B", nil })

	c, err := NewCatalog(b, a)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"b", "a"}, c.Names())
	assert.Equal(t, []string{"a", "b"}, c.SortedNames())

	defs := c.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "b", defs[0].Name)
	assert.Equal(t, "second", defs[0].Description)

	out, err := c.Call(context.Background(), "a", nil)
	require.NoError(t, err)
	assert.Equal(t, "A", RenderText(out))

	_, err = c.Call(context.Background(), "missing", nil)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeNotFound, toolErr.Code)
}

func TestCatalog_Invalid(t *testing.T) {
	a := NewTextFunctionTool("a", "", nil, nil)
	_, err := NewCatalog(a, a)
	assert.ErrorContains(t, err, `duplicate tool "a"`)

	_, err = NewCatalog(nil)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCatalog(a, a) })

	var nilCatalog *Catalog
	assert.Equal(t, 0, nilCatalog.Len())
	_, ok := nilCatalog.Lookup("a")
	assert.False(t, ok)
}
