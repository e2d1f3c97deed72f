package runner

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"text/template"
	"time"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/graph"
	"github.com/hupe1980/agentloop/internal/util"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// CatalogSource provides the tool catalog for one run. It is called once per
// run, so a source may open a fresh connection or session for each request.
// ctx is canceled when the run ends.
type CatalogSource func(ctx context.Context) (*tool.Catalog, error)

// StaticCatalog returns a source that always yields c.
func StaticCatalog(c *tool.Catalog) CatalogSource {
	return func(context.Context) (*tool.Catalog, error) { return c, nil }
}

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeCanceled  Outcome = "canceled"
)

// OutcomeOf classifies the terminal error of a run.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeCompleted
	case errors.Is(err, graph.ErrExhausted):
		return OutcomeExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}

// Runner executes chat requests against a model and a tool catalog. Public
// methods are safe for concurrent use; runs share nothing but the model and
// the catalog source.
type Runner struct {
	llm      model.Model
	catalogs CatalogSource
	prompt   *template.Template
	sem      chan struct{}
	opts     Options
}

// New creates a Runner.
func New(llm model.Model, catalogs CatalogSource, optFns ...func(o *Options)) (*Runner, error) {
	if llm == nil {
		return nil, errors.New("runner: model is required")
	}
	if catalogs == nil {
		catalogs = StaticCatalog(nil)
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	prompt, err := util.ParseTemplate("system", opts.SystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	r := &Runner{
		llm:      llm,
		catalogs: catalogs,
		prompt:   prompt,
		opts:     opts,
	}
	if opts.MaxConcurrentRuns > 0 {
		r.sem = make(chan struct{}, opts.MaxConcurrentRuns)
	}
	return r, nil
}

// Mermaid renders the agent topology.
func (r *Runner) Mermaid() (string, error) {
	g, err := agent.NewGraph(r.llm, nil, r.opts.AgentOptions...)
	if err != nil {
		return "", err
	}
	return g.Mermaid(), nil
}

// Stream executes req and yields its events: zero or more status events
// followed by exactly one final or error event. The run starts when the
// sequence is iterated; stopping the iteration early abandons the run before
// its next node.
func (r *Runner) Stream(ctx context.Context, req Request) iter.Seq[core.Event] {
	return func(yield func(core.Event) bool) {
		// Resources bound to the run context, such as a per-run tool session,
		// are released when the run ends.
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		runID := core.NewID()
		log := r.runLogger(runID)

		if err := r.acquire(ctx); err != nil {
			log.Warn("runner.run.rejected", "error", err)
			yield(core.NewErrorEvent(err.Error()))
			return
		}
		defer r.release()

		start := time.Now()
		for _, obs := range r.opts.Observers {
			obs.RunStarted(ctx)
		}
		log.Info("runner.run.start", "customer_id", req.Customer(), "history", len(req.History))

		err := r.run(ctx, req, log, yield)

		outcome := OutcomeOf(err)
		if errors.Is(err, errStopped) {
			outcome = OutcomeCanceled
		}
		dur := time.Since(start)
		for _, obs := range r.opts.Observers {
			obs.RunFinished(ctx, outcome, dur)
		}
		if err != nil {
			log.Warn("runner.run.done", "outcome", outcome, "duration_ms", dur.Milliseconds(), "error", err)
			return
		}
		log.Info("runner.run.done", "outcome", outcome, "duration_ms", dur.Milliseconds())
	}
}

// errStopped reports that the consumer stopped iterating.
var errStopped = errors.New("runner: consumer stopped")

func (r *Runner) run(ctx context.Context, req Request, log logging.Logger, yield func(core.Event) bool) error {
	em := newEmitter()
	fail := func(err error) error {
		yield(em.finish(err))
		return err
	}

	log.Debug("runner.tools.discover")
	catalog, err := r.catalogs(ctx)
	if err != nil {
		return fail(fmt.Errorf("tool discovery failed: %w", err))
	}

	agentOpts := append([]func(o *agent.Options){agent.WithLogger(log)}, r.opts.AgentOptions...)
	g, err := agent.NewGraph(r.llm, catalog, agentOpts...)
	if err != nil {
		return fail(err)
	}

	system, err := util.ExecuteTemplate(r.prompt, promptData{CustomerID: req.Customer()})
	if err != nil {
		return fail(err)
	}
	initial := core.NewState(req.messages(system)...)

	for step, err := range g.Run(ctx, initial) {
		if err != nil {
			return fail(err)
		}
		log.Debug("runner.node.complete", "node", step.Node, "step", step.Index)
		if ev, ok := em.observe(step); ok {
			if !yield(ev) {
				return errStopped
			}
		}
	}

	if !yield(em.finish(nil)) {
		return errStopped
	}
	return nil
}

// Collect runs req and returns all its events.
func (r *Runner) Collect(ctx context.Context, req Request) []core.Event {
	var events []core.Event
	for ev := range r.Stream(ctx, req) {
		events = append(events, ev)
	}
	return events
}

func (r *Runner) runLogger(runID string) logging.Logger {
	if sl, ok := r.opts.Logger.(*logging.StructuredLogger); ok {
		return sl.WithComponent("runner").WithRun(runID)
	}
	return r.opts.Logger
}

func (r *Runner) acquire(ctx context.Context) error {
	if r.sem == nil {
		return ctx.Err()
	}
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) release() {
	if r.sem != nil {
		<-r.sem
	}
}
