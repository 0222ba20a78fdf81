package agent

import (
	"context"
	"strings"

	"github.com/gmargetis/kimi/llm"
)

// planTriggerWords are verbs that suggest a multi-step task worth planning.
var planTriggerWords = map[string]bool{
	"build": true, "create": true, "refactor": true, "implement": true,
	"develop": true, "redesign": true, "migrate": true, "rewrite": true,
	"setup": true, "configure": true, "deploy": true, "integrate": true,
}

const plannerSystemPrompt = "You are a task planner. Given the user's request, " +
	"output ONLY a concise numbered plan (3-7 steps) of what you will do. " +
	"No code yet, just the plan. Be specific and actionable."

// ShouldPlan reports whether the input looks like a task worth a planning
// round-trip: long, or containing a construction verb.
func ShouldPlan(input string) bool {
	if len(input) > 100 {
		return true
	}
	for _, word := range strings.Fields(strings.ToLower(input)) {
		if planTriggerWords[word] {
			return true
		}
	}
	return false
}

// BuildPlan makes a single planning round-trip and returns the plan text.
// The plan is advisory: any failure degrades to an empty plan rather than
// blocking the task.
func BuildPlan(ctx context.Context, client *llm.Client, model, input string) (string, llm.Usage) {
	resp, err := client.Complete(ctx, llm.Request{
		Model: model,
		Messages: []llm.Message{
			llm.SystemMessage(plannerSystemPrompt),
			llm.UserMessage(input),
		},
		MaxTokens: 512,
	})
	if err != nil {
		return "", llm.Usage{}
	}
	return strings.TrimSpace(resp.Text()), resp.Usage
}
