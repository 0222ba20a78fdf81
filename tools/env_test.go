package tools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsSecretKey(t *testing.T) {
	cases := map[string]bool{
		"API_KEY":       true,
		"DB_PASSWORD":   true,
		"GITHUB_TOKEN":  true,
		"AUTH_HEADER":   true,
		"MY_SECRET":     true,
		"PASSWD":        true,
		"DB_CREDENTIAL": true,
		"PORT":          false,
		"DEBUG":         false,
		"DATABASE_URL":  false,
	}
	for key, want := range cases {
		if got := IsSecretKey(key); got != want {
			t.Errorf("IsSecretKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestReadEnvMasksSecrets(t *testing.T) {
	k := newTestToolkit(t)
	env := "# comment\nAPI_KEY=sk-12345\nPORT=8080\n\nDEBUG=true\n"
	if err := os.WriteFile(filepath.Join(k.Workdir, ".env"), []byte(env), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := k.ReadEnv("")
	if err != nil {
		t.Fatal(err)
	}
	var parsed map[string]string
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if parsed["API_KEY"] != "***" {
		t.Errorf("secret not masked: %q", parsed["API_KEY"])
	}
	if parsed["PORT"] != "8080" {
		t.Errorf("non-secret mangled: %q", parsed["PORT"])
	}
	if strings.Contains(out, "sk-12345") {
		t.Error("secret value leaked into output")
	}
}

func TestWriteEnvUpdatesAndAppends(t *testing.T) {
	k := newTestToolkit(t)
	path := filepath.Join(k.Workdir, ".env")
	if err := os.WriteFile(path, []byte("# keep me\nPORT=8080\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := k.WriteEnv(map[string]string{"PORT": "9090", "API_KEY": "sk-x"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "API_KEY") || strings.Contains(out, "sk-x") {
		t.Errorf("secret key should be named but value hidden: %q", out)
	}
	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "# keep me") {
		t.Error("comment lost")
	}
	if !strings.Contains(content, "PORT=9090") || strings.Contains(content, "PORT=8080") {
		t.Errorf("existing key not updated in place: %q", content)
	}
	if !strings.Contains(content, "API_KEY=sk-x") {
		t.Errorf("new key not appended: %q", content)
	}
}

func TestWriteEnvRecordsUndo(t *testing.T) {
	k := newTestToolkit(t)
	if _, err := k.WriteEnv(map[string]string{"A": "1"}, ""); err != nil {
		t.Fatal(err)
	}
	rec, ok := k.Ledger.Peek()
	if !ok || rec.Tool != "write_env" {
		t.Errorf("expected write_env undo record, got %+v (ok=%v)", rec, ok)
	}
}

func TestSanitizeEnvArgs(t *testing.T) {
	args := map[string]interface{}{
		"path": ".env",
		"values": map[string]interface{}{
			"API_KEY": "sk-secret",
			"PORT":    "8080",
		},
	}
	out := SanitizeEnvArgs(args)
	values := out["values"].(map[string]interface{})
	if values["API_KEY"] != "***" {
		t.Errorf("secret not masked: %v", values["API_KEY"])
	}
	if values["PORT"] != "8080" {
		t.Errorf("non-secret mangled: %v", values["PORT"])
	}
	// Original untouched.
	orig := args["values"].(map[string]interface{})
	if orig["API_KEY"] != "sk-secret" {
		t.Error("sanitizer mutated the original arguments")
	}
}
