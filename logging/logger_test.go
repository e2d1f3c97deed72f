package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*StructuredLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
	return l, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"loud", LogLevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestStructuredLogger_KeyValues(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.WithComponent("graph").WithRun("run-1").Info("graph.node.start", "node", "planner")
	l.Debug("hidden")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "graph.node.start", lines[0]["msg"])
	assert.Equal(t, "graph", lines[0]["component"])
	assert.Equal(t, "run-1", lines[0]["run_id"])
	assert.Equal(t, "planner", lines[0]["node"])
}

func TestStructuredLogger_WithDoesNotMutate(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	_ = l.WithAttr("k", "v")
	l.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["k"]
	assert.False(t, ok)
}

func TestStructuredLogger_DomainHelpers(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.LogToolCall("check_balance", time.Millisecond, nil)
	l.LogLLMCall("gpt-4", 42, time.Millisecond, errors.New("rate limited"))
	l.LogNodeExecution("agent", 2, time.Millisecond, nil)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "tool.call.done", lines[0]["msg"])
	assert.Equal(t, "check_balance", lines[0]["tool_name"])
	assert.Equal(t, "llm.call.error", lines[1]["msg"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "rate limited", lines[1]["error"])
	assert.Equal(t, "graph.node.done", lines[2]["msg"])
	assert.Equal(t, float64(2), lines[2]["step"])
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))
	l := NewSlogLogger(LogLevelInfo, "text", false)
	assert.Same(t, l, OrNoOp(l))
}
