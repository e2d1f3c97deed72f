package graph

// stepBudget enforces a maximum number of node invocations per run.
// A run is driven by a single goroutine, so no locking is needed.
type stepBudget struct {
	max   int
	count int
}

func newStepBudget(max int) *stepBudget {
	return &stepBudget{max: max}
}

// take reserves one invocation for node. It fails once max is reached.
func (b *stepBudget) take(node NodeName) error {
	if b.max > 0 && b.count >= b.max {
		return &ExhaustedError{MaxSteps: b.max, Node: node}
	}
	b.count++
	return nil
}

// remaining returns how many invocations are left, or -1 when unbounded.
func (b *stepBudget) remaining() int {
	if b.max == 0 {
		return -1
	}
	return b.max - b.count
}
