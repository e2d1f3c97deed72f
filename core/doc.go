// Package core provides the foundational domain types threaded through a
// Plan-Execute-Reflect run:
//
//   - Message (role-tagged union of system, user, assistant and tool result turns)
//   - AgentState / Update with named per-field reducers
//   - Event and StepEntry (the records streamed to callers)
//
// The package has no knowledge of graphs, models or transports. Higher layers
// (graph, agent, runner) build on these values and never mutate them in place.
package core
