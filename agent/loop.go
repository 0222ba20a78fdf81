// Package agent implements the agentic loop: model round-trips, tool
// dispatch, planning, and session checkpointing.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gmargetis/kimi/llm"
	"github.com/gmargetis/kimi/sessions"
)

// DefaultMaxIterations caps model round-trips per user input.
const DefaultMaxIterations = 20

// maxIterationsNotice is appended to the conversation when the round-trip
// cap forces the turn to end.
const maxIterationsNotice = "Stopped: maximum tool iterations reached for this input. " +
	"The task may be incomplete; ask me to continue if needed."

// Config holds everything an Agent needs to run.
type Config struct {
	Client        *llm.Client
	Model         string
	Registry      *Registry
	Store         *sessions.Store
	SessionName   string
	SystemPrompt  string
	MaxIterations int
	Planner       bool
	// LoadExisting loads any prior conversation saved under SessionName.
	// When false the agent starts fresh but still checkpoints under
	// SessionName; the previous file survives until the first save.
	LoadExisting bool
	Logger       *slog.Logger
}

// Agent owns one conversation and drives it through the loop: call the
// model, dispatch any tool calls in order, feed results back, repeat until
// the model answers without tool calls or the iteration cap is hit.
//
// An Agent is not safe for concurrent use; it is owned by a single caller.
type Agent struct {
	client      *llm.Client
	model       string
	registry    *Registry
	store       *sessions.Store
	sessionName string
	system      string
	maxIter     int
	planner     bool
	logger      *slog.Logger

	messages  []llm.Message
	emitter   *EventEmitter
	usage     llm.Usage
	turnUsage llm.Usage
}

// New creates an agent and loads any prior conversation for the configured
// session name.
func New(cfg Config) *Agent {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &Agent{
		client:      cfg.Client,
		model:       cfg.Model,
		registry:    cfg.Registry,
		store:       cfg.Store,
		sessionName: cfg.SessionName,
		system:      cfg.SystemPrompt,
		maxIter:     maxIter,
		planner:     cfg.Planner,
		logger:      logger,
		emitter:     NewEventEmitter(256),
	}
	if a.sessionName == "" {
		a.sessionName = sessions.DefaultName
	}
	if a.store != nil && cfg.LoadExisting {
		a.messages = a.store.Load(a.sessionName)
	}
	return a
}

// Events returns the event channel for the host application.
func (a *Agent) Events() <-chan Event { return a.emitter.Events() }

// Messages returns the conversation so far.
func (a *Agent) Messages() []llm.Message { return a.messages }

// Usage returns cumulative token usage for the whole session.
func (a *Agent) Usage() llm.Usage { return a.usage }

// TurnUsage returns token usage for the most recent Run call.
func (a *Agent) TurnUsage() llm.Usage { return a.turnUsage }

// Model returns the model identifier in use.
func (a *Agent) Model() string { return a.model }

// SessionName returns the active session identity.
func (a *Agent) SessionName() string { return a.sessionName }

// Clear discards the conversation, in memory and on disk.
func (a *Agent) Clear() error {
	a.messages = nil
	a.usage = llm.Usage{}
	a.turnUsage = llm.Usage{}
	if a.store != nil {
		return a.store.Delete(a.sessionName)
	}
	return nil
}

// Close shuts down the event channel.
func (a *Agent) Close() { a.emitter.Close() }

// Run processes one user input through the loop and returns the final
// assistant text. Attachments (images) are added to the user message.
// Transport errors abort the turn without a checkpoint; tool failures are
// fed back to the model and never abort.
func (a *Agent) Run(ctx context.Context, input string, attachments ...llm.ContentPart) (string, error) {
	a.turnUsage = llm.Usage{}
	a.emitter.Emit(EventUserInput, map[string]interface{}{"content": input})

	if a.planner && ShouldPlan(input) {
		plan, usage := BuildPlan(ctx, a.client, a.model, input)
		a.usage = a.usage.Add(usage)
		a.turnUsage = a.turnUsage.Add(usage)
		if plan != "" {
			a.emitter.Emit(EventPlanCreated, map[string]interface{}{"plan": plan})
		}
	}

	userMsg := llm.UserMessage(input)
	userMsg.Content = append(userMsg.Content, attachments...)
	a.messages = append(a.messages, userMsg)

	for round := 0; round < a.maxIter; round++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		response, err := a.streamOnce(ctx)
		if err != nil {
			a.emitter.Emit(EventError, map[string]interface{}{"error": err.Error()})
			return "", fmt.Errorf("model call failed: %w", err)
		}
		a.usage = a.usage.Add(response.Usage)
		a.turnUsage = a.turnUsage.Add(response.Usage)

		text := response.Text()
		toolCalls := response.ToolCallsFromResponse()
		a.messages = append(a.messages, assistantMessage(text, toolCalls))
		a.emitter.Emit(EventTextEnd, map[string]interface{}{"text": text})

		if len(toolCalls) == 0 {
			a.checkpoint()
			a.emitter.Emit(EventTurnDone, nil)
			return text, nil
		}

		// Tool calls run sequentially, in the order the model issued them,
		// and every call gets a result before the next model call.
		for _, call := range toolCalls {
			a.emitter.Emit(EventToolCallStart, map[string]interface{}{
				"tool_name": call.Name,
				"call_id":   call.ID,
				"args":      a.displayArgs(call),
			})
			result := a.registry.Dispatch(ctx, call)
			result.Content = truncateOutput(result.Content, call.Name)
			a.messages = append(a.messages, llm.ToolResultMessage(result.ToolCallID, result.Content, result.IsError))
			a.emitter.Emit(EventToolCallEnd, map[string]interface{}{
				"tool_name": call.Name,
				"call_id":   call.ID,
				"output":    result.Content,
				"is_error":  result.IsError,
			})
		}
		a.checkpoint()
	}

	a.emitter.Emit(EventTurnLimit, map[string]interface{}{"max": a.maxIter})
	a.messages = append(a.messages, llm.AssistantMessage(maxIterationsNotice))
	a.checkpoint()
	a.emitter.Emit(EventTurnDone, nil)
	return maxIterationsNotice, nil
}

// streamOnce performs one model call, surfacing text deltas as events and
// returning the complete response.
func (a *Agent) streamOnce(ctx context.Context) (*llm.Response, error) {
	request := llm.Request{
		Model:    a.model,
		Messages: append([]llm.Message{llm.SystemMessage(a.system)}, a.messages...),
		ToolDefs: a.registry.Definitions(),
	}

	events, err := a.client.Stream(ctx, request)
	if err != nil {
		return nil, err
	}
	for event := range events {
		switch event.Type {
		case llm.StreamTextDelta:
			a.emitter.Emit(EventTextDelta, map[string]interface{}{"delta": event.Delta})
		case llm.StreamError:
			return nil, event.Err
		case llm.StreamFinish:
			return event.Response, nil
		}
	}
	return nil, fmt.Errorf("stream ended without a finish event")
}

// checkpoint persists the conversation. Failures are warnings, never
// fatal: a full disk must not kill the turn.
func (a *Agent) checkpoint() {
	if a.store == nil {
		return
	}
	if err := a.store.Save(a.sessionName, a.messages); err != nil {
		a.logger.Warn("session checkpoint failed", "session", a.sessionName, "error", err)
		a.emitter.Emit(EventWarning, map[string]interface{}{
			"message": fmt.Sprintf("session checkpoint failed: %v", err),
		})
	}
}

// displayArgs renders tool arguments for the event stream, applying the
// tool's sanitizer so secrets never reach logs or the terminal.
func (a *Agent) displayArgs(call llm.ToolCall) string {
	args, err := parseArguments(call.Arguments)
	if err != nil {
		return string(call.Arguments)
	}
	if tool := a.registry.Get(call.Name); tool != nil && tool.Sanitize != nil {
		args = tool.Sanitize(args)
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		s := fmt.Sprintf("%v", args[k])
		if len(s) > 60 {
			s = s[:60] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, s))
	}
	return strings.Join(parts, ", ")
}

func assistantMessage(text string, toolCalls []llm.ToolCall) llm.Message {
	msg := llm.Message{Role: llm.RoleAssistant}
	if text != "" {
		msg.Content = append(msg.Content, llm.TextPart(text))
	}
	for _, tc := range toolCalls {
		msg.Content = append(msg.Content, llm.ToolCallPart(tc.ID, tc.Name, tc.Arguments))
	}
	return msg
}
