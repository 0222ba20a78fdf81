package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gmargetis/kimi/agent"
	"github.com/gmargetis/kimi/llm"
)

func TestRegisterAllWiresFullSurface(t *testing.T) {
	reg := agent.NewRegistry()
	RegisterAll(reg, newTestToolkit(t))

	expected := []string{
		"read_file", "write_file", "edit_file", "run_command", "list_files",
		"search_in_files", "edit_files_glob", "git_command", "fetch_url",
		"docker", "db_query", "read_env", "write_env",
		"ssh_run", "ssh_upload", "ssh_download", "ssh_read_file", "ssh_write_file",
	}
	if reg.Count() != len(expected) {
		t.Errorf("expected %d tools, got %d", len(expected), reg.Count())
	}
	for _, name := range expected {
		if reg.Get(name) == nil {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestRegisteredToolValidation(t *testing.T) {
	reg := agent.NewRegistry()
	RegisterAll(reg, newTestToolkit(t))

	result := reg.Dispatch(context.Background(), llm.ToolCall{
		ID: "c1", Name: "edit_file", Arguments: json.RawMessage(`{"path":"x.txt"}`),
	})
	if !result.IsError {
		t.Error("missing old_text/new_text should fail validation")
	}
	if !strings.Contains(result.Content, "old_text") {
		t.Errorf("validation error should name the missing key: %q", result.Content)
	}
}

func TestRegisteredToolEndToEnd(t *testing.T) {
	reg := agent.NewRegistry()
	kit := newTestToolkit(t)
	RegisterAll(reg, kit)

	write := reg.Dispatch(context.Background(), llm.ToolCall{
		ID: "c1", Name: "write_file",
		Arguments: json.RawMessage(`{"path":"hello.txt","content":"hi there"}`),
	})
	if write.IsError {
		t.Fatalf("write failed: %s", write.Content)
	}

	read := reg.Dispatch(context.Background(), llm.ToolCall{
		ID: "c2", Name: "read_file",
		Arguments: json.RawMessage(`{"path":"hello.txt"}`),
	})
	if read.IsError || read.Content != "hi there" {
		t.Errorf("read after write: %q (err=%v)", read.Content, read.IsError)
	}
}

func TestWriteEnvSanitizerAttached(t *testing.T) {
	reg := agent.NewRegistry()
	RegisterAll(reg, newTestToolkit(t))
	tool := reg.Get("write_env")
	if tool == nil || tool.Sanitize == nil {
		t.Fatal("write_env must carry a sanitizer")
	}
	out := tool.Sanitize(map[string]interface{}{
		"values": map[string]interface{}{"DB_PASSWORD": "hunter2"},
	})
	values := out["values"].(map[string]interface{})
	if values["DB_PASSWORD"] != "***" {
		t.Error("sanitizer did not mask the secret")
	}
}
