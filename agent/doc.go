// Package agent wires the Plan-Execute-Reflect loop on top of the graph
// executor.
//
// Topology:
//
//	planner -> agent -> {tools | END}
//	tools -> reflector -> agent
//
// The four nodes only read the shared core.AgentState and return
// core.Update values; they never call each other. The model is consulted by
// the planner (no tools), the agent (with the tool catalog) and the
// reflector (no tools). The tool executor invokes the catalog and turns every
// failure into a textual tool result so the loop can recover.
package agent
