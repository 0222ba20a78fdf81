package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/gmargetis/kimi/llm"
)

// ToolHandler executes a tool call with parsed arguments.
type ToolHandler func(ctx context.Context, args map[string]interface{}) (string, error)

// Tool pairs a tool definition with its handler and the argument keys that
// must be present before the handler runs.
type Tool struct {
	Definition llm.ToolDefinition
	Required   []string
	Handler    ToolHandler
	// Sanitize, if set, rewrites arguments for display so secrets never
	// reach logs or the terminal.
	Sanitize func(map[string]interface{}) map[string]interface{}
}

// Registry manages tool registration, validation, and dispatch.
type Registry struct {
	tools map[string]*Tool
	mu    sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds or replaces a tool in the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Definition.Name] = &tool
}

// Get returns a registered tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Definitions returns all tool definitions in name order, for sending to
// the model.
func (r *Registry) Definitions() []llm.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Dispatch runs a single tool call through lookup, validation, and
// execution. Every failure mode returns an error-flagged ToolResult rather
// than a Go error: tool failures are fed back to the model, never fatal.
func (r *Registry) Dispatch(ctx context.Context, call llm.ToolCall) llm.ToolResult {
	tool := r.Get(call.Name)
	if tool == nil {
		return llm.ToolResult{
			ToolCallID: call.ID,
			Content:    fmt.Sprintf("Unknown tool: %s", call.Name),
			IsError:    true,
		}
	}

	args, err := parseArguments(call.Arguments)
	if err != nil {
		return llm.ToolResult{
			ToolCallID: call.ID,
			Content:    fmt.Sprintf("Tool %s: %v", call.Name, err),
			IsError:    true,
		}
	}

	// Validation happens before the handler runs so a malformed call never
	// causes a side effect.
	for _, key := range tool.Required {
		if _, ok := args[key]; !ok {
			return llm.ToolResult{
				ToolCallID: call.ID,
				Content:    fmt.Sprintf("Tool %s: missing required argument %q", call.Name, key),
				IsError:    true,
			}
		}
	}

	output, err := tool.Handler(ctx, args)
	if err != nil {
		return llm.ToolResult{
			ToolCallID: call.ID,
			Content:    fmt.Sprintf("Tool error (%s): %v", call.Name, err),
			IsError:    true,
		}
	}
	return llm.ToolResult{ToolCallID: call.ID, Content: output}
}

func parseArguments(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}

// StringArg extracts a string argument from parsed tool arguments.
func StringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// IntArg extracts an integer argument from parsed tool arguments.
func IntArg(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// BoolArg extracts a boolean argument from parsed tool arguments.
func BoolArg(args map[string]interface{}, key string) (bool, bool) {
	v, ok := args[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
