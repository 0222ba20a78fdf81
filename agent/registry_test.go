package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gmargetis/kimi/llm"
)

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry()
	result := r.Dispatch(context.Background(), llm.ToolCall{ID: "c1", Name: "ghost"})
	if !result.IsError {
		t.Error("expected error result")
	}
	if !strings.Contains(result.Content, "ghost") {
		t.Errorf("result should name the tool: %q", result.Content)
	}
	if result.ToolCallID != "c1" {
		t.Errorf("result must carry the call id: %q", result.ToolCallID)
	}
}

func TestDispatchMalformedArguments(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{
		Definition: llm.ToolDefinition{Name: "echo"},
		Handler: func(_ context.Context, _ map[string]interface{}) (string, error) {
			t.Fatal("handler must not run on malformed args")
			return "", nil
		},
	})
	result := r.Dispatch(context.Background(), llm.ToolCall{
		ID: "c1", Name: "echo", Arguments: json.RawMessage(`{broken`),
	})
	if !result.IsError {
		t.Error("expected error result")
	}
}

func TestDispatchHandlerError(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{
		Definition: llm.ToolDefinition{Name: "boom"},
		Handler: func(_ context.Context, _ map[string]interface{}) (string, error) {
			return "", context.DeadlineExceeded
		},
	})
	result := r.Dispatch(context.Background(), llm.ToolCall{ID: "c1", Name: "boom", Arguments: json.RawMessage(`{}`)})
	if !result.IsError {
		t.Error("handler error should become an error result, not a panic or fatal")
	}
}

func TestDispatchEmptyArgumentsAllowed(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{
		Definition: llm.ToolDefinition{Name: "noargs"},
		Handler: func(_ context.Context, args map[string]interface{}) (string, error) {
			if args == nil {
				t.Error("args should never be nil")
			}
			return "ok", nil
		},
	})
	result := r.Dispatch(context.Background(), llm.ToolCall{ID: "c1", Name: "noargs"})
	if result.IsError {
		t.Errorf("unexpected error: %s", result.Content)
	}
}

func TestDefinitionsSortedByName(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		r.Register(Tool{Definition: llm.ToolDefinition{Name: name}})
	}
	defs := r.Definitions()
	if len(defs) != 3 || defs[0].Name != "alpha" || defs[2].Name != "zeta" {
		t.Errorf("definitions not sorted: %v", defs)
	}
}

func TestArgHelpers(t *testing.T) {
	args := map[string]interface{}{
		"s": "text",
		"n": float64(42),
		"b": true,
	}
	if v, ok := StringArg(args, "s"); !ok || v != "text" {
		t.Errorf("StringArg: %q %v", v, ok)
	}
	if v, ok := IntArg(args, "n"); !ok || v != 42 {
		t.Errorf("IntArg: %d %v", v, ok)
	}
	if v, ok := BoolArg(args, "b"); !ok || !v {
		t.Errorf("BoolArg: %v %v", v, ok)
	}
	if _, ok := StringArg(args, "missing"); ok {
		t.Error("missing key should report !ok")
	}
	if _, ok := IntArg(args, "s"); ok {
		t.Error("wrong type should report !ok")
	}
}
