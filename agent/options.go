package agent

import (
	"context"
	"time"

	"github.com/hupe1980/agentloop/graph"
	"github.com/hupe1980/agentloop/logging"
)

// ToolObserver is notified after every tool invocation.
type ToolObserver interface {
	ToolCallFinished(ctx context.Context, tool string, dur time.Duration, err error)
}

// Options configures the nodes and the compiled graph.
type Options struct {
	Logger logging.Logger

	// ToolParallelism bounds concurrent tool calls of one assistant turn.
	// Values < 1 mean sequential execution.
	ToolParallelism int

	// RecordAllToolNames makes the reflector record every tool name of the
	// turn ("Called tool: a, b") instead of only the first one.
	RecordAllToolNames bool

	// MaxSteps bounds node invocations per run; 0 means unbounded.
	MaxSteps int

	// Temperature overrides the model default for every node when set.
	Temperature *float64

	// Observers receive graph node lifecycle notifications.
	Observers []graph.Observer

	// ToolObservers receive tool invocation notifications.
	ToolObservers []ToolObserver
}

func defaultOptions() Options {
	return Options{
		Logger:          logging.NoOpLogger{},
		ToolParallelism: 4,
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logging.OrNoOp(l) }
}

// WithToolParallelism bounds concurrent tool calls.
func WithToolParallelism(n int) func(o *Options) {
	return func(o *Options) { o.ToolParallelism = n }
}

// WithRecordAllToolNames toggles recording of every tool name per step.
func WithRecordAllToolNames(all bool) func(o *Options) {
	return func(o *Options) { o.RecordAllToolNames = all }
}

// WithMaxSteps sets the step budget of a run.
func WithMaxSteps(n int) func(o *Options) {
	return func(o *Options) { o.MaxSteps = n }
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) func(o *Options) {
	return func(o *Options) { o.Temperature = &t }
}

// WithObserver adds a graph observer.
func WithObserver(obs graph.Observer) func(o *Options) {
	return func(o *Options) {
		if obs != nil {
			o.Observers = append(o.Observers, obs)
		}
	}
}

// WithToolObserver adds a tool observer.
func WithToolObserver(obs ToolObserver) func(o *Options) {
	return func(o *Options) {
		if obs != nil {
			o.ToolObservers = append(o.ToolObservers, obs)
		}
	}
}
