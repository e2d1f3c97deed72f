package graph

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentloop/logging"
)

// Observer receives node lifecycle notifications. Implementations must be
// safe for concurrent use when a Graph serves concurrent runs.
type Observer interface {
	NodeStarted(ctx context.Context, node NodeName, step int)
	NodeFinished(ctx context.Context, node NodeName, step int, dur time.Duration, err error)
}

// Options configures a compiled Graph.
type Options struct {
	// MaxSteps bounds the number of node invocations per run. 0 means unbounded.
	MaxSteps int
	// Logger receives graph.* records.
	Logger logging.Logger
	// Observers are notified around every node invocation.
	Observers []Observer
	// Tracer creates one span per node. Defaults to the global otel tracer.
	Tracer trace.Tracer
}

func defaultOptions() Options {
	return Options{Logger: logging.NoOpLogger{}}
}

// WithMaxSteps bounds the number of node invocations per run.
func WithMaxSteps(n int) func(o *Options) {
	return func(o *Options) { o.MaxSteps = n }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logging.OrNoOp(l) }
}

// WithObserver adds an observer.
func WithObserver(obs Observer) func(o *Options) {
	return func(o *Options) {
		if obs != nil {
			o.Observers = append(o.Observers, obs)
		}
	}
}

// WithTracer sets the tracer used for node spans.
func WithTracer(t trace.Tracer) func(o *Options) {
	return func(o *Options) { o.Tracer = t }
}
