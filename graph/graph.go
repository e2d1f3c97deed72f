package graph

import (
	"context"
	"errors"
	"fmt"
)

// NodeName identifies a node. The set of names is fixed at Compile time.
type NodeName string

// End is the terminal sentinel. Routing to End completes a run.
const End NodeName = "__end__"

// NodeFunc is the behaviour of a node: read the state, return a partial update.
type NodeFunc[S, U any] func(ctx context.Context, state S) (U, error)

// RouterFunc selects the successor of a node from the freshly merged state.
type RouterFunc[S any] func(state S) NodeName

// Reducer merges a partial update into a state, returning a new state.
type Reducer[S, U any] func(state S, update U) S

// Step is one completed node invocation.
type Step[S, U any] struct {
	// Node that ran.
	Node NodeName
	// Index is the 1-based position of the step within the run.
	Index int
	// Update returned by the node.
	Update U
	// State after the update was merged.
	State S
}

// ErrAlreadyRun is yielded when a run sequence is iterated a second time.
var ErrAlreadyRun = errors.New("graph: run sequence already consumed")

// ErrExhausted matches every *ExhaustedError.
var ErrExhausted = errors.New("graph: step budget exhausted")

// NodeError reports a failure returned (or panicked) by a node. The failing
// node's update is discarded.
type NodeError struct {
	Node NodeName
	Err  error
}

func (e *NodeError) Error() string { return fmt.Sprintf("node %q failed: %v", e.Node, e.Err) }

// Unwrap returns the node's error.
func (e *NodeError) Unwrap() error { return e.Err }

// UnknownRouteError reports a router result outside its declared target set.
type UnknownRouteError struct {
	From  NodeName
	Route NodeName
}

func (e *UnknownRouteError) Error() string {
	return fmt.Sprintf("router of node %q returned undeclared target %q", e.From, e.Route)
}

// ExhaustedError reports that a run needed more node invocations than allowed.
type ExhaustedError struct {
	MaxSteps int
	// Node is the node that would have run next.
	Node NodeName
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("step budget of %d exhausted before node %q", e.MaxSteps, e.Node)
}

// Is reports whether target is ErrExhausted.
func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// transition is the single outgoing declaration of a node.
type transition[S any] struct {
	static  NodeName
	router  RouterFunc[S]
	targets []NodeName
}

func (t transition[S]) conditional() bool { return t.router != nil }

func (t transition[S]) allows(n NodeName) bool {
	for _, target := range t.targets {
		if target == n {
			return true
		}
	}
	return false
}

// Graph is a compiled, immutable topology. It is safe for concurrent use;
// every call to Run starts an independent execution.
type Graph[S, U any] struct {
	start   NodeName
	order   []NodeName
	nodes   map[NodeName]NodeFunc[S, U]
	edges   map[NodeName]transition[S]
	reducer Reducer[S, U]
	opts    Options
}

// Start returns the entry node.
func (g *Graph[S, U]) Start() NodeName { return g.start }

// Nodes returns the node names in registration order.
func (g *Graph[S, U]) Nodes() []NodeName { return append([]NodeName(nil), g.order...) }

// Successors returns the possible successors of a node in declaration order.
func (g *Graph[S, U]) Successors(n NodeName) []NodeName {
	t, ok := g.edges[n]
	if !ok {
		return nil
	}
	if t.conditional() {
		return append([]NodeName(nil), t.targets...)
	}
	return []NodeName{t.static}
}

// next resolves the successor of from against the merged state.
func (g *Graph[S, U]) next(from NodeName, state S) (NodeName, error) {
	t := g.edges[from]
	if !t.conditional() {
		return t.static, nil
	}
	route := t.router(state)
	if !t.allows(route) {
		return "", &UnknownRouteError{From: from, Route: route}
	}
	return route, nil
}
