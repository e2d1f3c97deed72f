package graph

import (
	"errors"
	"fmt"
)

// Builder accumulates nodes and edges. Structural problems are collected and
// reported together by Compile.
type Builder[S, U any] struct {
	reducer     Reducer[S, U]
	start       NodeName
	order       []NodeName
	nodes       map[NodeName]NodeFunc[S, U]
	edges       map[NodeName]transition[S]
	buildErrors []error
}

// NewBuilder creates a Builder that merges node updates with reducer.
func NewBuilder[S, U any](reducer Reducer[S, U]) *Builder[S, U] {
	b := &Builder[S, U]{
		reducer: reducer,
		nodes:   make(map[NodeName]NodeFunc[S, U]),
		edges:   make(map[NodeName]transition[S]),
	}
	if reducer == nil {
		b.buildErrors = append(b.buildErrors, errors.New("reducer must not be nil"))
	}
	return b
}

// AddNode registers a node.
func (b *Builder[S, U]) AddNode(name NodeName, fn NodeFunc[S, U]) *Builder[S, U] {
	switch {
	case name == "":
		b.buildErrors = append(b.buildErrors, errors.New("node name must not be empty"))
	case name == End:
		b.buildErrors = append(b.buildErrors, fmt.Errorf("node name %q is reserved", End))
	case fn == nil:
		b.buildErrors = append(b.buildErrors, fmt.Errorf("node %q: function must not be nil", name))
	default:
		if _, exists := b.nodes[name]; exists {
			b.buildErrors = append(b.buildErrors, fmt.Errorf("duplicate node %q", name))
			break
		}
		b.nodes[name] = fn
		b.order = append(b.order, name)
	}
	return b
}

// AddEdge declares a static transition from -> to.
func (b *Builder[S, U]) AddEdge(from, to NodeName) *Builder[S, U] {
	if to == "" {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("edge from %q: target must not be empty", from))
		return b
	}
	b.setTransition(from, transition[S]{static: to})
	return b
}

// AddConditionalEdge declares a routed transition. The router result must be
// one of targets at run time, otherwise the run fails with *UnknownRouteError.
func (b *Builder[S, U]) AddConditionalEdge(from NodeName, router RouterFunc[S], targets ...NodeName) *Builder[S, U] {
	if router == nil {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("conditional edge from %q: router must not be nil", from))
		return b
	}
	if len(targets) == 0 {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("conditional edge from %q: no targets declared", from))
		return b
	}
	b.setTransition(from, transition[S]{router: router, targets: append([]NodeName(nil), targets...)})
	return b
}

func (b *Builder[S, U]) setTransition(from NodeName, t transition[S]) {
	if from == "" || from == End {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("invalid edge source %q", from))
		return
	}
	if _, exists := b.edges[from]; exists {
		b.buildErrors = append(b.buildErrors, fmt.Errorf("node %q already has an outgoing transition", from))
		return
	}
	b.edges[from] = t
}

// SetStart sets the entry node.
func (b *Builder[S, U]) SetStart(name NodeName) *Builder[S, U] {
	b.start = name
	return b
}

// Compile validates the topology and returns an executable Graph.
func (b *Builder[S, U]) Compile(optFns ...func(o *Options)) (*Graph[S, U], error) {
	errs := append([]error(nil), b.buildErrors...)

	known := func(n NodeName) bool {
		_, ok := b.nodes[n]
		return ok || n == End
	}

	switch {
	case b.start == "":
		errs = append(errs, errors.New("start node not set"))
	case b.start == End:
		errs = append(errs, errors.New("start node must not be End"))
	case !known(b.start):
		errs = append(errs, fmt.Errorf("start node %q is not registered", b.start))
	}

	for _, name := range b.order {
		if _, ok := b.edges[name]; !ok {
			errs = append(errs, fmt.Errorf("node %q has no outgoing transition", name))
		}
	}

	for from, t := range b.edges {
		if _, ok := b.nodes[from]; !ok {
			errs = append(errs, fmt.Errorf("edge source %q is not registered", from))
		}
		targets := t.targets
		if !t.conditional() {
			targets = []NodeName{t.static}
		}
		for _, to := range targets {
			if !known(to) {
				errs = append(errs, fmt.Errorf("edge %q -> %q: target is not registered", from, to))
			}
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("graph: invalid topology: %w", errors.Join(errs...))
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxSteps < 0 {
		return nil, fmt.Errorf("graph: max steps must be >= 0, got %d", opts.MaxSteps)
	}

	g := &Graph[S, U]{
		start:   b.start,
		order:   append([]NodeName(nil), b.order...),
		nodes:   make(map[NodeName]NodeFunc[S, U], len(b.nodes)),
		edges:   make(map[NodeName]transition[S], len(b.edges)),
		reducer: b.reducer,
		opts:    opts,
	}
	for k, v := range b.nodes {
		g.nodes[k] = v
	}
	for k, v := range b.edges {
		g.edges[k] = v
	}
	return g, nil
}
