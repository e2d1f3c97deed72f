// Package graph implements a small generic state-machine executor.
//
// A Graph is a closed set of named nodes connected by static edges or by
// conditional edges whose router picks the successor from a declared target
// set. Every node receives the current state and returns a partial update; the
// executor merges updates with a caller supplied Reducer and is the only place
// where state changes.
//
// Execution is exposed as a lazy, single-use sequence of completed steps:
//
//	g, err := graph.NewBuilder[State, Update](reduce).
//	    AddNode("plan", plan).
//	    AddNode("act", act).
//	    AddEdge("plan", "act").
//	    AddConditionalEdge("act", route, "act", graph.End).
//	    SetStart("plan").
//	    Compile()
//
//	for step, err := range g.Run(ctx, initial) {
//	    ...
//	}
//
// The sequence ends after the step that routes to End, or with exactly one
// error (*NodeError, *UnknownRouteError, *ExhaustedError or the context error).
package graph
