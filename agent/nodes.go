package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentloop/core"
	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/model"
	"github.com/hupe1980/agentloop/tool"
)

// llmCallLogger is implemented by loggers offering a dedicated LLM call record
// (logging.StructuredLogger).
type llmCallLogger interface {
	LogLLMCall(model string, tokens int, dur time.Duration, err error)
}

// errNoToolCall is returned by the reflector when no assistant message with
// tool calls exists. It cannot happen under the standard topology.
var errNoToolCall = errors.New("reflector: no assistant message with tool calls in history")

// LLMError reports a failed model call inside a node. Err is the provider's
// error.
type LLMError struct {
	Node string
	Err  error
}

func (e *LLMError) Error() string { return fmt.Sprintf("%s: llm call failed: %v", e.Node, e.Err) }

// Unwrap returns the provider's error.
func (e *LLMError) Unwrap() error { return e.Err }

// Nodes holds the collaborators shared by the four node functions of a run.
type Nodes struct {
	llm     model.Model
	catalog *tool.Catalog
	tools   []model.ToolDefinition
	exec    *toolExecutor
	opts    Options
}

// NewNodes creates the node set for one model and tool catalog.
func NewNodes(llm model.Model, catalog *tool.Catalog, optFns ...func(o *Options)) *Nodes {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	return &Nodes{
		llm:     llm,
		catalog: catalog,
		tools:   model.ToolDefinitions(catalog.Definitions()),
		exec:    newToolExecutor(catalog, opts),
		opts:    opts,
	}
}

func (n *Nodes) generate(ctx context.Context, node string, msgs []core.Message, tools []model.ToolDefinition) (core.Message, error) {
	start := time.Now()
	resp, err := model.Invoke(ctx, n.llm, model.Request{
		Messages:    msgs,
		Tools:       tools,
		Temperature: n.opts.Temperature,
	})
	dur := time.Since(start)

	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	if l, ok := n.opts.Logger.(llmCallLogger); ok {
		l.LogLLMCall(n.llm.Info().Name, tokens, dur, err)
	} else {
		n.opts.Logger.Debug("llm.call.done", "node", node, "duration", dur, "tokens", tokens, "error", err)
	}
	if err != nil {
		return core.Message{}, &LLMError{Node: node, Err: err}
	}
	return resp.Message, nil
}

// Planner asks the model for a step-by-step plan for the conversation so far.
func (n *Nodes) Planner(ctx context.Context, s core.AgentState) (core.Update, error) {
	msgs := make([]core.Message, 0, len(s.Messages)+1)
	msgs = append(msgs, core.NewSystemMessage(plannerPrompt))
	msgs = append(msgs, s.Messages...)

	resp, err := n.generate(ctx, string(NodePlanner), msgs, nil)
	if err != nil {
		return core.Update{}, err
	}
	plan := resp.Text
	return core.Update{Plan: &plan}, nil
}

// Agent decides the next action given the plan, the steps taken and the
// reflections. The model may request tools from the catalog.
func (n *Nodes) Agent(ctx context.Context, s core.AgentState) (core.Update, error) {
	prompt, err := renderAgentPrompt(s.PlanText(), s.StepsTaken, s.Reflections)
	if err != nil {
		return core.Update{}, err
	}

	msgs := make([]core.Message, 0, len(s.Messages)+1)
	msgs = append(msgs, core.NewSystemMessage(prompt))
	msgs = append(msgs, s.Messages...)

	resp, err := n.generate(ctx, string(NodeAgent), msgs, n.tools)
	if err != nil {
		return core.Update{}, err
	}
	resp.Role = core.RoleAssistant
	return core.Update{Messages: []core.Message{resp}}, nil
}

// Tools executes every tool call of the most recent assistant message and
// returns one tool result per call in call order.
func (n *Nodes) Tools(ctx context.Context, s core.AgentState) (core.Update, error) {
	idx := core.LastAssistantWithToolCalls(s.Messages)
	if idx < 0 {
		n.opts.Logger.Warn("tools.no_calls")
		return core.Update{}, nil
	}
	return core.Update{Messages: n.exec.execute(ctx, s.Messages[idx].ToolCalls)}, nil
}

// Reflector asks the model to assess the latest tool output and records the
// executed step.
func (n *Nodes) Reflector(ctx context.Context, s core.AgentState) (core.Update, error) {
	idx := core.LastAssistantWithToolCalls(s.Messages)
	if idx < 0 {
		return core.Update{}, errNoToolCall
	}

	window := s.Messages[idx:]
	msgs := make([]core.Message, 0, len(window)+1)
	msgs = append(msgs, core.NewSystemMessage(reflectionPrompt))
	msgs = append(msgs, window...)

	resp, err := n.generate(ctx, string(NodeReflector), msgs, nil)
	if err != nil {
		return core.Update{}, err
	}

	return core.Update{
		Reflections: []string{resp.Text},
		StepsTaken:  []string{stepText(s.Messages[idx].ToolNames(), n.opts.RecordAllToolNames)},
	}, nil
}
