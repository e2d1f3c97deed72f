package runner

import (
	"context"
	"time"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/logging"
)

// RunObserver is notified when runs start and finish.
type RunObserver interface {
	RunStarted(ctx context.Context)
	RunFinished(ctx context.Context, outcome Outcome, dur time.Duration)
}

// Options configures a Runner.
type Options struct {
	// MaxConcurrentRuns bounds the number of runs executing at once. Callers
	// beyond the limit wait for a free slot or their context. Zero means
	// unbounded.
	MaxConcurrentRuns int
	// SystemPrompt is the template of the system message; see
	// DefaultSystemPrompt.
	SystemPrompt string
	// AgentOptions are applied to the agent graph of every run.
	AgentOptions []func(o *agent.Options)
	// Observers receive run lifecycle notifications.
	Observers []RunObserver
	// Logger receives run logs. A *logging.StructuredLogger is scoped to the
	// run id.
	Logger logging.Logger
}

func defaultOptions() Options {
	return Options{
		MaxConcurrentRuns: 10,
		SystemPrompt:      DefaultSystemPrompt,
		Logger:            logging.NoOpLogger{},
	}
}

// WithMaxConcurrentRuns sets the concurrent run limit.
func WithMaxConcurrentRuns(n int) func(o *Options) {
	return func(o *Options) { o.MaxConcurrentRuns = n }
}

// WithSystemPrompt replaces the system prompt template.
func WithSystemPrompt(tmpl string) func(o *Options) {
	return func(o *Options) { o.SystemPrompt = tmpl }
}

// WithAgentOptions appends agent options applied to every run.
func WithAgentOptions(optFns ...func(o *agent.Options)) func(o *Options) {
	return func(o *Options) { o.AgentOptions = append(o.AgentOptions, optFns...) }
}

// WithObserver registers a run observer.
func WithObserver(obs RunObserver) func(o *Options) {
	return func(o *Options) {
		if obs != nil {
			o.Observers = append(o.Observers, obs)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}
