package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// secretKeywords flag env keys whose values must never appear in output.
var secretKeywords = []string{
	"key", "secret", "password", "passwd", "token", "api", "auth", "credential",
}

// IsSecretKey reports whether an env key looks like it holds a secret.
func IsSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range secretKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MaskSecrets returns a copy of values with secret-looking keys masked.
func MaskSecrets(values map[string]string) map[string]string {
	masked := make(map[string]string, len(values))
	for k, v := range values {
		if IsSecretKey(k) {
			masked[k] = "***"
		} else {
			masked[k] = v
		}
	}
	return masked
}

// SanitizeEnvArgs rewrites write_env tool arguments for display, masking
// secret values.
func SanitizeEnvArgs(args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = v
	}
	values, ok := args["values"].(map[string]interface{})
	if !ok {
		return out
	}
	masked := make(map[string]interface{}, len(values))
	for k, v := range values {
		if IsSecretKey(k) {
			masked[k] = "***"
		} else {
			masked[k] = v
		}
	}
	out["values"] = masked
	return out
}

// ReadEnv parses a .env file and returns its keys as JSON with secret
// values masked.
func (k *Toolkit) ReadEnv(path string) (string, error) {
	if path == "" {
		path = ".env"
	}
	data, err := os.ReadFile(k.resolvePath(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	values := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			values[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	out, err := json.MarshalIndent(MaskSecrets(values), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode env: %w", err)
	}
	return string(out), nil
}

// WriteEnv updates or appends key-value pairs in a .env file, preserving
// comments and unrelated lines. The prior file state is recorded for undo.
func (k *Toolkit) WriteEnv(values map[string]string, path string) (string, error) {
	if path == "" {
		path = ".env"
	}
	resolved := k.resolvePath(path)
	if err := k.Ledger.RecordFile(resolved, "write_env"); err != nil {
		return "", fmt.Errorf("record undo state for %s: %w", path, err)
	}

	var lines []string
	lineFor := map[string]int{}
	if data, err := os.ReadFile(resolved); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		for i, line := range lines {
			stripped := strings.TrimSpace(line)
			if stripped == "" || strings.HasPrefix(stripped, "#") {
				continue
			}
			if key, _, ok := strings.Cut(stripped, "="); ok {
				lineFor[strings.TrimSpace(key)] = i
			}
		}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry := key + "=" + values[key]
		if i, ok := lineFor[key]; ok {
			lines[i] = entry
		} else {
			lines = append(lines, entry)
		}
	}
	if err := os.WriteFile(resolved, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	var maskedKeys []string
	for _, key := range keys {
		if IsSecretKey(key) {
			maskedKeys = append(maskedKeys, key)
		}
	}
	if len(maskedKeys) > 0 {
		return fmt.Sprintf("Written to %s (secret keys masked: %s)", path, strings.Join(maskedKeys, ", ")), nil
	}
	return fmt.Sprintf("Written %d keys to %s", len(values), path), nil
}
