package graph

import (
	"context"
	"fmt"
	"iter"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

// Run executes the graph from its start node. The returned sequence is lazy:
// nothing happens until it is iterated, and breaking out of the loop stops the
// run before the next node. It can be iterated only once; later iterations
// yield ErrAlreadyRun.
func (g *Graph[S, U]) Run(ctx context.Context, initial S) iter.Seq2[Step[S, U], error] {
	var consumed atomic.Bool
	return func(yield func(Step[S, U], error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(Step[S, U]{}, ErrAlreadyRun)
			return
		}
		g.run(ctx, initial, yield)
	}
}

func (g *Graph[S, U]) run(ctx context.Context, state S, yield func(Step[S, U], error) bool) {
	log := g.opts.Logger
	budget := newStepBudget(g.opts.MaxSteps)
	current := g.start
	runStart := time.Now()

	log.Debug("graph.run.start", "start", current, "max_steps", g.opts.MaxSteps)

	for index := 1; ; index++ {
		if err := ctx.Err(); err != nil {
			log.Warn("graph.run.canceled", "node", current, "step", index, "error", err)
			yield(Step[S, U]{}, err)
			return
		}
		if err := budget.take(current); err != nil {
			log.Warn("graph.run.exhausted", "node", current, "max_steps", g.opts.MaxSteps)
			yield(Step[S, U]{}, err)
			return
		}

		nodeCtx, span := g.startNodeSpan(ctx, current, index)
		for _, obs := range g.opts.Observers {
			obs.NodeStarted(nodeCtx, current, index)
		}
		log.Debug("graph.node.start", "node", current, "step", index, "remaining", budget.remaining())

		start := time.Now()
		update, err := g.invoke(nodeCtx, current, state)
		dur := time.Since(start)

		for _, obs := range g.opts.Observers {
			obs.NodeFinished(nodeCtx, current, index, dur, err)
		}

		if err != nil {
			markSpanResult(span, err)
			span.End()
			log.Error("graph.node.error", "node", current, "step", index, "duration", dur, "error", err)
			if pe, ok := err.(*panicError); ok {
				log.Debug("graph.node.panic", "node", current, "stack", string(pe.stack))
			}
			yield(Step[S, U]{}, &NodeError{Node: current, Err: err})
			return
		}

		state = g.reducer(state, update)
		next, routeErr := g.next(current, state)
		if routeErr == nil {
			span.SetAttributes(attribute.String(traceAttrNextNode, string(next)))
		}
		markSpanResult(span, routeErr)
		span.End()
		log.Debug("graph.node.done", "node", current, "step", index, "duration", dur, "next", next)

		if !yield(Step[S, U]{Node: current, Index: index, Update: update, State: state}, nil) {
			return
		}
		if routeErr != nil {
			log.Error("graph.route.error", "node", current, "error", routeErr)
			yield(Step[S, U]{}, routeErr)
			return
		}
		if next == End {
			log.Debug("graph.run.done", "steps", index, "duration", time.Since(runStart))
			return
		}
		current = next
	}
}

// invoke runs a node, converting a panic into an error.
func (g *Graph[S, U]) invoke(ctx context.Context, name NodeName, state S) (update U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	return g.nodes[name](ctx, state)
}
