package agent

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// projectIndicators maps marker files to a human-readable project type for
// the system prompt.
var projectIndicators = map[string]string{
	"package.json":     "Node.js",
	"requirements.txt": "Python",
	"pyproject.toml":   "Python",
	"Cargo.toml":       "Rust",
	"go.mod":           "Go",
	"pom.xml":          "Java (Maven)",
	"composer.json":    "PHP",
	"build.gradle":     "Java (Gradle)",
}

// contextFiles are read (truncated) into the project context block.
var contextFiles = []string{
	"README.md", "README.txt", "package.json", "pyproject.toml", "Cargo.toml", "go.mod",
}

const maxContextFileBytes = 2000

// BuildSystemPrompt assembles the system prompt for a working directory:
// the agent identity and workflow, an environment block, and any detected
// project context.
func BuildSystemPrompt(workdir string) string {
	abs, err := filepath.Abs(workdir)
	if err != nil {
		abs = workdir
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `You are Kimi, an expert coding assistant. Working directory: %s

You have tools to: read/write/edit files, run shell commands, list directories,
search in files, run git commands, fetch URLs, run docker, query databases,
manage .env files, operate remote hosts over SSH, and edit multiple files at once.

Workflow:
1. Explore first (list_files, read_file key files)
2. Make precise, targeted edits
3. Run tests/builds to verify
4. Report clearly what changed and why

Be concise. Show diffs when editing. Verify your changes work.`, abs)

	sb.WriteString("\n\n")
	sb.WriteString(buildEnvironmentContext(abs))

	if ctx := LoadProjectContext(abs); ctx != "" {
		sb.WriteString("\n\n## Project Context\n")
		sb.WriteString(ctx)
	}
	return sb.String()
}

// buildEnvironmentContext generates the structured environment block.
func buildEnvironmentContext(workdir string) string {
	var sb strings.Builder
	sb.WriteString("<environment>\n")
	fmt.Fprintf(&sb, "Working directory: %s\n", workdir)
	fmt.Fprintf(&sb, "Is git repository: %v\n", isGitRepository(workdir))
	if branch := gitBranch(workdir); branch != "" {
		fmt.Fprintf(&sb, "Git branch: %s\n", branch)
	}
	fmt.Fprintf(&sb, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&sb, "Today's date: %s\n", time.Now().Format("2006-01-02"))
	sb.WriteString("</environment>")
	return sb.String()
}

// LoadProjectContext detects the project type from marker files and inlines
// excerpts of key context files. Returns "" when nothing is recognized.
func LoadProjectContext(workdir string) string {
	var parts []string
	var detected []string
	for fname, projType := range projectIndicators {
		if _, err := os.Stat(filepath.Join(workdir, fname)); err == nil {
			detected = append(detected, projType)
		}
	}
	if len(detected) > 0 {
		parts = append(parts, "### Detected Project Type\n"+strings.Join(dedupe(detected), ", "))
	}

	for _, fname := range contextFiles {
		data, err := os.ReadFile(filepath.Join(workdir, fname))
		if err != nil {
			continue
		}
		content := string(data)
		if len(content) > maxContextFileBytes {
			content = content[:maxContextFileBytes]
		}
		parts = append(parts, fmt.Sprintf("### %s\n%s", fname, content))
	}
	return strings.Join(parts, "\n\n")
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func isGitRepository(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

func gitBranch(dir string) string {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
