package runner

import (
	"errors"

	"github.com/hupe1980/agentloop/agent"
	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/graph"
)

// Status texts emitted per completed node.
const (
	statusPlanned      = "Created execution plan"
	statusToolCall     = "Decided to call "
	statusToolExecuted = "Executed banking tool"
	statusReflecting   = "Reflecting: "
)

const (
	stepTitlePlanning   = "Planning"
	stepTitleReflection = "Reflection"
)

// emitter translates completed graph steps into status events and collects
// the step log and final answer for the terminal event.
type emitter struct {
	steps []core.StepEntry
	final string
}

func newEmitter() *emitter {
	return &emitter{steps: []core.StepEntry{}}
}

// observe returns the status event for step, if any.
func (e *emitter) observe(step agent.Step) (core.Event, bool) {
	u := step.Update

	switch step.Node {
	case agent.NodePlanner:
		plan := ""
		if u.Plan != nil {
			plan = *u.Plan
		}
		e.steps = append(e.steps, core.StepEntry{Title: stepTitlePlanning, Content: plan, Kind: core.StepPlan})
		return core.NewStatusEvent(statusPlanned), true

	case agent.NodeAgent:
		if len(u.Messages) == 0 {
			return core.Event{}, false
		}
		msg := u.Messages[len(u.Messages)-1]
		if msg.HasToolCalls() {
			return core.NewStatusEvent(statusToolCall + msg.ToolCalls[0].Name), true
		}
		e.final = msg.Text
		return core.Event{}, false

	case agent.NodeTools:
		return core.NewStatusEvent(statusToolExecuted), true

	case agent.NodeReflector:
		var stepText, reflection string
		if len(u.StepsTaken) > 0 {
			stepText = u.StepsTaken[0]
		}
		if len(u.Reflections) > 0 {
			reflection = u.Reflections[0]
		}
		e.steps = append(e.steps, core.StepEntry{
			Title:   stepTitleReflection,
			Content: stepText + "\n\n" + reflection,
			Kind:    core.StepReflection,
		})
		return core.NewStatusEvent(statusReflecting + stepText), true
	}
	return core.Event{}, false
}

// finish builds the terminal event. A non-nil err always wins over a
// captured final answer.
func (e *emitter) finish(err error) core.Event {
	if err != nil {
		return core.NewErrorEvent(errorText(err))
	}
	return core.NewFinalEvent(e.final, e.steps)
}

// errorText is the content of an error event. Model failures carry only the
// provider's message and other node failures drop the node prefix; the full
// chain is logged by the runner.
func errorText(err error) string {
	var llmErr *agent.LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Err.Error()
	}
	var nodeErr *graph.NodeError
	if errors.As(err, &nodeErr) {
		return nodeErr.Err.Error()
	}
	return err.Error()
}
