package sessions

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gmargetis/kimi/llm"
)

// ExportMarkdown writes the conversation to a timestamped markdown file in
// dir and returns the file path.
func ExportMarkdown(dir string, messages []llm.Message) (string, error) {
	path := fmt.Sprintf("%s/kimi-session-%s.md", dir, time.Now().Format("20060102-150405"))
	var b strings.Builder
	b.WriteString("# Kimi Session\n\n")
	b.WriteString(fmt.Sprintf("Exported %s\n\n", time.Now().Format(time.RFC1123)))
	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleUser:
			b.WriteString("## You\n\n")
			b.WriteString(msg.TextContent())
			b.WriteString("\n\n")
		case llm.RoleAssistant:
			b.WriteString("## Assistant\n\n")
			if text := msg.TextContent(); text != "" {
				b.WriteString(text)
				b.WriteString("\n\n")
			}
			for _, tc := range msg.ToolCalls() {
				b.WriteString(fmt.Sprintf("*Called tool `%s`*\n\n", tc.Name))
			}
		case llm.RoleTool:
			content := msg.TextContent()
			if len(content) > 500 {
				content = content[:500] + "\n... (truncated)"
			}
			b.WriteString("```\n")
			b.WriteString(content)
			b.WriteString("\n```\n\n")
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
