// Package metrics exports Prometheus collectors for runs, graph nodes and
// tool calls. A *Metrics plugs into the graph, the agent and the runner as an
// observer.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/graph"
	"github.com/hupe1980/agentloop/runner"
)

const namespace = "agentloop"

const (
	statusOK    = "ok"
	statusError = "error"
)

var (
	_ graph.Observer     = (*Metrics)(nil)
	_ agent.ToolObserver = (*Metrics)(nil)
	_ runner.RunObserver = (*Metrics)(nil)
)

// Metrics holds the collectors. A nil *Metrics is a valid no-op observer.
type Metrics struct {
	nodeDuration *prometheus.HistogramVec
	nodeFailures *prometheus.CounterVec
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runsActive   prometheus.Gauge
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg (the default
// registerer when nil). Collectors already registered under the same name are
// reused, so New may be called more than once per registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		nodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "node_duration_seconds",
			Help:      "Duration of graph node invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node", "status"}),
		nodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "node_failures_total",
			Help:      "Number of graph node invocations that returned an error.",
		}, []string{"node"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "runs_total",
			Help:      "Number of finished runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "run_duration_seconds",
			Help:      "Wall time of finished runs by outcome.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"outcome"}),
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "runner",
			Name:      "runs_active",
			Help:      "Number of runs currently executing.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "calls_total",
			Help:      "Number of tool calls by tool and status.",
		}, []string{"tool", "status"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tool",
			Name:      "call_duration_seconds",
			Help:      "Duration of tool calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}

	var err error
	if m.nodeDuration, err = register(reg, m.nodeDuration); err != nil {
		return nil, err
	}
	if m.nodeFailures, err = register(reg, m.nodeFailures); err != nil {
		return nil, err
	}
	if m.runs, err = register(reg, m.runs); err != nil {
		return nil, err
	}
	if m.runDuration, err = register(reg, m.runDuration); err != nil {
		return nil, err
	}
	if m.runsActive, err = register(reg, m.runsActive); err != nil {
		return nil, err
	}
	if m.toolCalls, err = register(reg, m.toolCalls); err != nil {
		return nil, err
	}
	if m.toolDuration, err = register(reg, m.toolDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew is like New but panics on error.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

// register registers c, returning the existing collector of the same type
// when one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("register collector: %w", err)
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusOK
}

// NodeStarted implements graph.Observer.
func (m *Metrics) NodeStarted(context.Context, graph.NodeName, int) {}

// NodeFinished implements graph.Observer.
func (m *Metrics) NodeFinished(_ context.Context, node graph.NodeName, _ int, dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.nodeDuration.WithLabelValues(string(node), status(err)).Observe(dur.Seconds())
	if err != nil {
		m.nodeFailures.WithLabelValues(string(node)).Inc()
	}
}

// ToolCallFinished implements agent.ToolObserver.
func (m *Metrics) ToolCallFinished(_ context.Context, tool string, dur time.Duration, err error) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status(err)).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(dur.Seconds())
}

// RunStarted implements runner.RunObserver.
func (m *Metrics) RunStarted(context.Context) {
	if m == nil {
		return
	}
	m.runsActive.Inc()
}

// RunFinished implements runner.RunObserver.
func (m *Metrics) RunFinished(_ context.Context, outcome runner.Outcome, dur time.Duration) {
	if m == nil {
		return
	}
	m.runsActive.Dec()
	m.runs.WithLabelValues(string(outcome)).Inc()
	m.runDuration.WithLabelValues(string(outcome)).Observe(dur.Seconds())
}
