package llm

import (
	"encoding/json"
	"testing"
)

func TestToolResultMessageTextContent(t *testing.T) {
	msg := ToolResultMessage("c1", "file written", false)
	if got := msg.TextContent(); got != "file written" {
		t.Errorf("tool message text = %q, want the result content", got)
	}
}

func TestTextContentMixedParts(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: []ContentPart{
		TextPart("hello "),
		ImageURLPart("https://example.com/x.png", "image/png"),
		TextPart("world"),
	}}
	if got := msg.TextContent(); got != "hello world" {
		t.Errorf("text = %q", got)
	}
}

func TestToolMessageJSONRoundTrip(t *testing.T) {
	original := ToolResultMessage("call_42", "exit code 0", true)
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}
	var restored Message
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatal(err)
	}
	if restored.Role != RoleTool || restored.ToolCallID != "call_42" {
		t.Errorf("message identity lost: %+v", restored)
	}
	if restored.TextContent() != "exit code 0" {
		t.Errorf("content lost: %q", restored.TextContent())
	}
	if len(restored.Content) != 1 || restored.Content[0].ToolResult == nil || !restored.Content[0].ToolResult.IsError {
		t.Error("tool result part lost its error flag")
	}
}

func TestUsageAdd(t *testing.T) {
	sum := Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}.
		Add(Usage{InputTokens: 3, OutputTokens: 2, TotalTokens: 5})
	if sum.InputTokens != 13 || sum.OutputTokens != 7 || sum.TotalTokens != 20 {
		t.Errorf("unexpected sum: %+v", sum)
	}
}

func TestResponseToolCallExtraction(t *testing.T) {
	resp := Response{Message: Message{Role: RoleAssistant, Content: []ContentPart{
		TextPart("working on it"),
		ToolCallPart("c1", "read_file", json.RawMessage(`{"path":"a.txt"}`)),
		ToolCallPart("c2", "run_command", json.RawMessage(`{"command":"ls"}`)),
	}}}
	calls := resp.ToolCallsFromResponse()
	if len(calls) != 2 || calls[0].Name != "read_file" || calls[1].ID != "c2" {
		t.Errorf("unexpected calls: %+v", calls)
	}
	if resp.Text() != "working on it" {
		t.Errorf("text = %q", resp.Text())
	}
}
