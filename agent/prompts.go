package agent

import (
	"strings"

	"github.com/hupe1980/agentloop/internal/util"
)

const plannerPrompt = "Based on the user's request and history, create a concise step-by-step plan to resolve the query. Identify specific tools likely needed."

const reflectionPrompt = "Analyze the recent tool output. Determine if it satisfies the sub-query/plan step and if further tools are needed. Provide a brief reflection."

var agentPromptTmpl = util.MustParseTemplate("agent", `Current Plan: {{.Plan}}
Steps Taken: {{join "\n" .Steps}}
Recent Reflections: {{join "\n" .Reflections}}

Decide the next action. If the plan is fulfilled, provide the final answer.`)

type agentPromptData struct {
	Plan        string
	Steps       []string
	Reflections []string
}

func renderAgentPrompt(plan string, steps, reflections []string) (string, error) {
	return util.ExecuteTemplate(agentPromptTmpl, agentPromptData{
		Plan:        plan,
		Steps:       steps,
		Reflections: reflections,
	})
}

const stepPrefix = "Called tool: "

func stepText(names []string, all bool) string {
	if len(names) == 0 {
		return stepPrefix
	}
	if !all {
		return stepPrefix + names[0]
	}
	return stepPrefix + strings.Join(names, ", ")
}

const toolErrorPrefix = "Error executing tool: "
