package agent

import (
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/graph"
)

// Node names of the Plan-Execute-Reflect topology.
const (
	NodePlanner   graph.NodeName = "planner"
	NodeAgent     graph.NodeName = "agent"
	NodeTools     graph.NodeName = "tools"
	NodeReflector graph.NodeName = "reflector"
)

// DecideAfterAgent routes to the tool executor when the newest message is an
// assistant message requesting tools, and ends the run otherwise.
func DecideAfterAgent(s core.AgentState) graph.NodeName {
	if n := len(s.Messages); n > 0 && s.Messages[n-1].HasToolCalls() {
		return NodeTools
	}
	return graph.End
}

// AfterReflection always loops back to the agent.
func AfterReflection(core.AgentState) graph.NodeName {
	return NodeAgent
}
