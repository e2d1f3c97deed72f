package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/agentloop/tool"
)

var objectSchema = map[string]any{"type": "object", "properties": map[string]any{}}

// TextTool returns a tool that always answers out.
func TextTool(name, out string) tool.Tool {
	return tool.NewTextFunctionTool(name, name+" tool", objectSchema, func(context.Context, map[string]any) (string, error) {
		return out, nil
	})
}

// FailingTool returns a tool that always fails with err.
func FailingTool(name string, err error) tool.Tool {
	return tool.NewTextFunctionTool(name, name+" fails", objectSchema, func(context.Context, map[string]any) (string, error) {
		return "", err
	})
}

// SlowTool answers out after d, or fails when ctx is done first.
func SlowTool(name, out string, d time.Duration) tool.Tool {
	return tool.NewTextFunctionTool(name, name+" is slow", objectSchema, func(ctx context.Context, _ map[string]any) (string, error) {
		select {
		case <-time.After(d):
			return out, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

// RecordingTool records the arguments of every invocation.
type RecordingTool struct {
	*tool.FunctionTool

	mu    sync.Mutex
	calls []map[string]any
}

// NewRecordingTool returns a RecordingTool answering out.
func NewRecordingTool(name, out string) *RecordingTool {
	r := &RecordingTool{}
	r.FunctionTool = tool.NewTextFunctionTool(name, name+" records", objectSchema, func(_ context.Context, args map[string]any) (string, error) {
		r.mu.Lock()
		r.calls = append(r.calls, args)
		r.mu.Unlock()
		return out, nil
	})
	return r
}

// Calls returns the recorded arguments in invocation order.
func (r *RecordingTool) Calls() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]any(nil), r.calls...)
}
