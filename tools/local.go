package tools

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ReadFile returns file contents, optionally sliced to a 1-based inclusive
// line range.
func (k *Toolkit) ReadFile(path string, linesFrom, linesTo int) (string, error) {
	data, err := os.ReadFile(k.resolvePath(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if linesFrom == 0 && linesTo == 0 {
		return string(data), nil
	}
	lines := strings.Split(string(data), "\n")
	start := 0
	if linesFrom > 0 {
		start = linesFrom - 1
	}
	if start >= len(lines) {
		return "", nil
	}
	end := len(lines)
	if linesTo > 0 && linesTo < end {
		end = linesTo
	}
	return strings.Join(lines[start:end], "\n"), nil
}

// WriteFile creates or replaces a file, recording the prior state first.
func (k *Toolkit) WriteFile(path, content string) (string, error) {
	resolved := k.resolvePath(path)
	if err := k.Ledger.RecordFile(resolved, "write_file"); err != nil {
		return "", fmt.Errorf("record undo state for %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return fmt.Sprintf("Written %d chars to %s", len(content), path), nil
}

// EditFile replaces the first occurrence of oldText with newText and
// returns a short diff preview of the change.
func (k *Toolkit) EditFile(path, oldText, newText string) (string, error) {
	resolved := k.resolvePath(path)
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	content := string(data)
	if !strings.Contains(content, oldText) {
		return "", fmt.Errorf("text not found in %s", path)
	}
	if err := k.Ledger.RecordFile(resolved, "edit_file"); err != nil {
		return "", fmt.Errorf("record undo state for %s: %w", path, err)
	}
	updated := strings.Replace(content, oldText, newText, 1)
	if err := os.WriteFile(resolved, []byte(updated), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return fmt.Sprintf("Edited %s\n%s", path, DiffPreview(oldText, newText)), nil
}

// DiffPreview renders a compact line diff between two text fragments,
// capped to the first few changed lines.
func DiffPreview(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	const maxLines = 5
	var sb strings.Builder
	shown := 0
	total := 0
	for _, d := range diffs {
		prefix := ""
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		default:
			continue
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			total++
			if shown < maxLines {
				sb.WriteString(prefix + line + "\n")
				shown++
			}
		}
	}
	if total > shown {
		fmt.Fprintf(&sb, "... (%d changed lines total)\n", total)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// ListFiles lists files under path, optionally recursively and filtered by
// a glob pattern on the base name.
func (k *Toolkit) ListFiles(path string, recursive bool, pattern string) (string, error) {
	root := k.resolvePath(path)
	if pattern == "" {
		pattern = "*"
	}
	var files []string
	if recursive {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entries are skipped, not fatal
			}
			if d.IsDir() {
				return nil
			}
			if ok, _ := filepath.Match(pattern, d.Name()); ok {
				rel, relErr := filepath.Rel(root, p)
				if relErr != nil {
					rel = p
				}
				files = append(files, rel)
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("list %s: %w", path, err)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return "", fmt.Errorf("list %s: %w", path, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if ok, _ := filepath.Match(pattern, e.Name()); ok {
				files = append(files, e.Name())
			}
		}
	}
	if len(files) == 0 {
		return "(empty)", nil
	}
	sort.Strings(files)
	return strings.Join(files, "\n"), nil
}

// EditFilesGlob replaces all occurrences of oldText across every file
// matching the glob pattern. Each changed file gets its own undo record.
func (k *Toolkit) EditFilesGlob(pattern, oldText, newText string) (string, error) {
	matches, err := filepath.Glob(k.resolvePath(pattern))
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}
	var changed, errors []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(match)
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", match, err))
			continue
		}
		content := string(data)
		if !strings.Contains(content, oldText) {
			continue
		}
		if err := k.Ledger.RecordFile(match, "edit_files_glob"); err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", match, err))
			continue
		}
		updated := strings.ReplaceAll(content, oldText, newText)
		if err := os.WriteFile(match, []byte(updated), 0644); err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", match, err))
			continue
		}
		changed = append(changed, match)
	}
	if len(changed) == 0 && len(errors) == 0 {
		return fmt.Sprintf("No files matched pattern %q or text not found", pattern), nil
	}
	result := fmt.Sprintf("Changed %d files:\n%s", len(changed), strings.Join(changed, "\n"))
	if len(errors) > 0 {
		result += "\nErrors:\n" + strings.Join(errors, "\n")
	}
	return result, nil
}
