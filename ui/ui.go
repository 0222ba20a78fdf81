// Package ui renders agent activity to the terminal: styled status lines,
// streamed assistant text, tool call traces, and markdown.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/gmargetis/kimi/llm"
)

var (
	planStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	toolStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Faint(true)
	resultStyle  = lipgloss.NewStyle().Faint(true).PaddingLeft(3)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	costStyle    = lipgloss.NewStyle().Faint(true)
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
)

// Printer writes agent output to a terminal.
type Printer struct {
	out      io.Writer
	renderer *glamour.TermRenderer
	// streaming tracks whether a partial assistant line is on screen.
	streaming bool
}

// NewPrinter creates a printer targeting out. Markdown rendering degrades
// to plain text when a terminal renderer cannot be built.
func NewPrinter(out io.Writer) *Printer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		renderer = nil
	}
	return &Printer{out: out, renderer: renderer}
}

// StreamDelta writes a chunk of streamed assistant text.
func (p *Printer) StreamDelta(delta string) {
	p.streaming = true
	fmt.Fprint(p.out, delta)
}

// EndStream terminates a streamed block with a newline if one is open.
func (p *Printer) EndStream() {
	if p.streaming {
		fmt.Fprintln(p.out)
		p.streaming = false
	}
}

// Markdown renders assistant markdown. Used for the final response in
// one-shot mode where streaming already printed the raw text.
func (p *Printer) Markdown(text string) {
	if p.renderer != nil {
		if rendered, err := p.renderer.Render(text); err == nil {
			fmt.Fprint(p.out, rendered)
			return
		}
	}
	fmt.Fprintln(p.out, text)
}

// Plan prints an advisory task plan.
func (p *Printer) Plan(plan string) {
	p.EndStream()
	fmt.Fprintln(p.out, planStyle.Render("Plan:"))
	fmt.Fprintln(p.out, plan)
	fmt.Fprintln(p.out)
}

// ToolCall prints a tool invocation line.
func (p *Printer) ToolCall(name, args string) {
	p.EndStream()
	fmt.Fprintln(p.out, toolStyle.Render(fmt.Sprintf("-> %s(%s)", name, args)))
}

// ToolResult prints an abbreviated tool result.
func (p *Printer) ToolResult(output string, isError bool) {
	short := output
	if len(short) > 200 {
		short = short[:200] + "..."
	}
	short = strings.ReplaceAll(short, "\n", " ")
	if isError {
		fmt.Fprintln(p.out, resultStyle.Render(errorStyle.Render(short)))
		return
	}
	fmt.Fprintln(p.out, resultStyle.Render(short))
}

// Warning prints a warning line.
func (p *Printer) Warning(message string) {
	p.EndStream()
	fmt.Fprintln(p.out, warningStyle.Render("! "+message))
}

// Error prints an error line.
func (p *Printer) Error(message string) {
	p.EndStream()
	fmt.Fprintln(p.out, errorStyle.Render("error: "+message))
}

// Info prints a plain status line.
func (p *Printer) Info(message string) {
	p.EndStream()
	fmt.Fprintln(p.out, message)
}

// Prompt prints the interactive input prompt.
func (p *Printer) Prompt() {
	fmt.Fprint(p.out, promptStyle.Render("kimi> "))
}

// CostLine formats the session token and cost summary.
func CostLine(usage llm.Usage, perKInput, perKOutput float64) string {
	cost := float64(usage.InputTokens)/1000*perKInput + float64(usage.OutputTokens)/1000*perKOutput
	return fmt.Sprintf("Session: %d in / %d out tokens, ~$%.4f",
		usage.InputTokens, usage.OutputTokens, cost)
}

// Cost prints the session cost summary.
func (p *Printer) Cost(usage llm.Usage, perKInput, perKOutput float64) {
	p.EndStream()
	fmt.Fprintln(p.out, costStyle.Render(CostLine(usage, perKInput, perKOutput)))
}
