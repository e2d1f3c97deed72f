package graph

import (
	"fmt"
	"strings"
)

const mermaidStart = "__start__"

// Mermaid renders the topology as a Mermaid flowchart. Static edges are solid,
// conditional edges are dotted.
func (g *Graph[S, U]) Mermaid() string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	fmt.Fprintf(&b, "    %s([start])\n", mermaidStart)
	for _, n := range g.order {
		fmt.Fprintf(&b, "    %s[%s]\n", n, n)
	}
	fmt.Fprintf(&b, "    %s([end])\n", End)

	fmt.Fprintf(&b, "    %s --> %s\n", mermaidStart, g.start)
	for _, n := range g.order {
		t := g.edges[n]
		if !t.conditional() {
			fmt.Fprintf(&b, "    %s --> %s\n", n, t.static)
			continue
		}
		for _, target := range t.targets {
			fmt.Fprintf(&b, "    %s -.-> %s\n", n, target)
		}
	}
	return b.String()
}
