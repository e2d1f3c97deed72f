package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/tool"
)

// toolCallLogger is implemented by loggers offering a dedicated tool call
// record (logging.StructuredLogger).
type toolCallLogger interface {
	LogToolCall(tool string, dur time.Duration, err error)
}

// toolExecutor runs the tool calls of one assistant turn. It never fails:
// every error (unknown tool, validation, execution, panic) becomes an error
// tool result. Results are returned in call order regardless of parallelism.
type toolExecutor struct {
	catalog *tool.Catalog
	opts    Options
}

func newToolExecutor(catalog *tool.Catalog, opts Options) *toolExecutor {
	return &toolExecutor{catalog: catalog, opts: opts}
}

func (e *toolExecutor) execute(ctx context.Context, calls []core.ToolCall) []core.Message {
	n := len(calls)
	results := make([]core.Message, n)
	if n == 0 {
		return results
	}

	// Fast path: single call, execute inline.
	if n == 1 || e.opts.ToolParallelism <= 1 {
		for i, tc := range calls {
			results[i] = e.call(ctx, tc)
		}
		return results
	}

	batchStart := time.Now()
	var g errgroup.Group
	g.SetLimit(e.opts.ToolParallelism)
	for i, tc := range calls {
		g.Go(func() error {
			results[i] = e.call(ctx, tc)
			return nil
		})
	}
	_ = g.Wait()

	e.opts.Logger.Debug("tools.batch.done", "count", n, "parallelism", e.opts.ToolParallelism, "duration_ms", time.Since(batchStart).Milliseconds())
	return results
}

type panicError struct {
	val   any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.val) }

func (e *toolExecutor) call(ctx context.Context, tc core.ToolCall) core.Message {
	e.opts.Logger.Debug("tool.call.start", "tool", tc.Name, "call_id", tc.ID)

	start := time.Now()
	var (
		contents []tool.Content
		err      error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = &panicError{val: r, stack: debug.Stack()}
				e.opts.Logger.Error("tool.call.panic", "tool", tc.Name, "recover", r)
			}
		}()
		contents, err = e.catalog.Call(ctx, tc.Name, tc.Arguments)
	}()
	dur := time.Since(start)

	if l, ok := e.opts.Logger.(toolCallLogger); ok {
		l.LogToolCall(tc.Name, dur, err)
	} else {
		e.opts.Logger.Info("tool.call.done", "tool", tc.Name, "duration_ms", dur.Milliseconds(), "error", err != nil)
	}
	for _, obs := range e.opts.ToolObservers {
		obs.ToolCallFinished(ctx, tc.Name, dur, err)
	}

	if err != nil {
		return core.NewToolErrorMessage(tc.ID, toolErrorPrefix+err.Error())
	}
	return core.NewToolResultMessage(tc.ID, tool.RenderText(contents))
}
