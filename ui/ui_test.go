package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gmargetis/kimi/llm"
)

func TestCostLine(t *testing.T) {
	usage := llm.Usage{InputTokens: 2000, OutputTokens: 1000}
	line := CostLine(usage, 0.015, 0.060)
	if !strings.Contains(line, "2000 in / 1000 out") {
		t.Errorf("token counts missing: %q", line)
	}
	// 2.0 * 0.015 + 1.0 * 0.060 = 0.09
	if !strings.Contains(line, "$0.0900") {
		t.Errorf("cost wrong: %q", line)
	}
}

func TestStreamDeltaAndEnd(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.StreamDelta("hel")
	p.StreamDelta("lo")
	p.EndStream()
	p.EndStream() // idempotent
	if buf.String() != "hello\n" {
		t.Errorf("unexpected stream output: %q", buf.String())
	}
}

func TestToolResultAbbreviated(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.ToolResult(strings.Repeat("x", 500), false)
	out := buf.String()
	if !strings.Contains(out, "...") {
		t.Errorf("long result not abbreviated: %d bytes", len(out))
	}
}
