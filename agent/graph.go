package agent

import (
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/graph"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// Graph is the compiled Plan-Execute-Reflect state machine.
type Graph = graph.Graph[core.AgentState, core.Update]

// Step is one completed node invocation of a Graph run.
type Step = graph.Step[core.AgentState, core.Update]

// NewGraph compiles the loop for llm and catalog. The catalog may be nil (no
// tools offered).
func NewGraph(llm model.Model, catalog *tool.Catalog, optFns ...func(o *Options)) (*Graph, error) {
	nodes := NewNodes(llm, catalog, optFns...)
	return nodes.Compile()
}

// Compile builds the graph from the node set.
func (n *Nodes) Compile() (*Graph, error) {
	gopts := []func(o *graph.Options){
		graph.WithLogger(n.opts.Logger),
		graph.WithMaxSteps(n.opts.MaxSteps),
	}
	for _, obs := range n.opts.Observers {
		gopts = append(gopts, graph.WithObserver(obs))
	}

	return graph.NewBuilder(core.ReduceState).
		AddNode(NodePlanner, n.Planner).
		AddNode(NodeAgent, n.Agent).
		AddNode(NodeTools, n.Tools).
		AddNode(NodeReflector, n.Reflector).
		SetStart(NodePlanner).
		AddEdge(NodePlanner, NodeAgent).
		AddConditionalEdge(NodeAgent, DecideAfterAgent, NodeTools, graph.End).
		AddEdge(NodeTools, NodeReflector).
		AddConditionalEdge(NodeReflector, AfterReflection, NodeAgent).
		Compile(gopts...)
}
