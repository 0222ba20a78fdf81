package agent

import (
	"strings"
	"testing"
)

func TestTruncateOutputShortPassesThrough(t *testing.T) {
	out := truncateOutput("short output", "run_command")
	if out != "short output" {
		t.Errorf("short output must be untouched: %q", out)
	}
}

func TestTruncateOutputLongAnnotated(t *testing.T) {
	long := strings.Repeat("a", 40000)
	out := truncateOutput(long, "run_command")
	if len(out) >= len(long) {
		t.Error("output not truncated")
	}
	if !strings.Contains(out, "Output truncated") {
		t.Error("truncation not annotated")
	}
	// Head and tail both survive.
	if !strings.HasPrefix(out, "aaaa") || !strings.HasSuffix(out, "aaaa") {
		t.Error("head/tail split broken")
	}
}

func TestTruncateOutputUnknownToolUsesDefault(t *testing.T) {
	long := strings.Repeat("b", defaultOutputCap+1000)
	out := truncateOutput(long, "some_future_tool")
	if len(out) >= len(long) {
		t.Error("default cap not applied")
	}
}
