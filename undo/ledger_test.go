package undo

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestUndoEmptyLedger(t *testing.T) {
	l := NewLedger()
	if _, err := l.UndoLast(); err != ErrNothingToUndo {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestUndoRestoresPriorContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "original")

	l := NewLedger()
	if err := l.RecordFile(path, "write_file"); err != nil {
		t.Fatalf("record: %v", err)
	}
	writeFile(t, path, "mutated")

	r, err := l.UndoLast()
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if r.Target != path {
		t.Errorf("expected target %s, got %s", path, r.Target)
	}
	if got := readFile(t, path); got != "original" {
		t.Errorf("expected restored content %q, got %q", "original", got)
	}
}

func TestUndoDeletesCreatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "new.txt")

	l := NewLedger()
	if err := l.RecordFile(path, "write_file"); err != nil {
		t.Fatalf("record: %v", err)
	}
	writeFile(t, path, "created by tool")

	if _, err := l.UndoLast(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be deleted, stat err = %v", path, err)
	}
}

func TestUndoReverseChronologicalOrder(t *testing.T) {
	dir := t.TempDir()
	l := NewLedger()

	paths := make([]string, 5)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("f%d.txt", i))
		writeFile(t, paths[i], fmt.Sprintf("v0-%d", i))
		if err := l.RecordFile(paths[i], "write_file"); err != nil {
			t.Fatalf("record: %v", err)
		}
		writeFile(t, paths[i], fmt.Sprintf("v1-%d", i))
	}

	// Undoing walks backwards: f4 first, f0 last.
	for i := len(paths) - 1; i >= 0; i-- {
		r, err := l.UndoLast()
		if err != nil {
			t.Fatalf("undo %d: %v", i, err)
		}
		if r.Target != paths[i] {
			t.Errorf("undo order: expected %s, got %s", paths[i], r.Target)
		}
	}
	for i, p := range paths {
		if got := readFile(t, p); got != fmt.Sprintf("v0-%d", i) {
			t.Errorf("file %d: expected v0, got %q", i, got)
		}
	}
}

func TestCapacityEviction(t *testing.T) {
	dir := t.TempDir()
	l := NewLedger()

	n := Capacity + 5
	paths := make([]string, n)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("f%d.txt", i))
		writeFile(t, paths[i], fmt.Sprintf("v0-%d", i))
		if err := l.RecordFile(paths[i], "write_file"); err != nil {
			t.Fatalf("record: %v", err)
		}
		writeFile(t, paths[i], fmt.Sprintf("v1-%d", i))
	}

	if l.Len() != Capacity {
		t.Fatalf("expected ledger len %d, got %d", Capacity, l.Len())
	}

	// All Capacity undos succeed, newest first.
	for i := n - 1; i >= n-Capacity; i-- {
		r, err := l.UndoLast()
		if err != nil {
			t.Fatalf("undo: %v", err)
		}
		if r.Target != paths[i] {
			t.Errorf("expected %s, got %s", paths[i], r.Target)
		}
	}

	// The 21st undo fails; the evicted files keep their mutated content.
	if _, err := l.UndoLast(); err != ErrNothingToUndo {
		t.Errorf("expected ErrNothingToUndo after %d undos, got %v", Capacity, err)
	}
	for i := 0; i < n-Capacity; i++ {
		if got := readFile(t, paths[i]); got != fmt.Sprintf("v1-%d", i) {
			t.Errorf("evicted file %d should keep mutated content, got %q", i, got)
		}
	}
}

func TestUndoLastWriterWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "original")

	l := NewLedger()
	if err := l.RecordFile(path, "edit_file"); err != nil {
		t.Fatalf("record: %v", err)
	}
	writeFile(t, path, "tool edit")
	// External modification after the tracked mutation.
	writeFile(t, path, "external edit")

	if _, err := l.UndoLast(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := readFile(t, path); got != "original" {
		t.Errorf("snapshot should be applied verbatim, got %q", got)
	}
}

func TestRecordRemoteCustomRestorer(t *testing.T) {
	l := NewLedger()
	restored := ""
	l.RecordRemote("pi:/etc/motd", "old motd", "ssh_write_file", true, func(r Record) error {
		restored = r.Prior
		return nil
	})

	r, err := l.UndoLast()
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if r.Target != "pi:/etc/motd" {
		t.Errorf("unexpected target %s", r.Target)
	}
	if restored != "old motd" {
		t.Errorf("custom restorer not invoked, restored=%q", restored)
	}
}

func TestFailedUndoKeepsRecord(t *testing.T) {
	l := NewLedger()
	l.RecordRemote("host:/f", "x", "ssh_write_file", true, func(Record) error {
		return fmt.Errorf("connection refused")
	})

	if _, err := l.UndoLast(); err == nil {
		t.Fatal("expected error")
	}
	if l.Len() != 1 {
		t.Errorf("failed undo must not pop the record, len=%d", l.Len())
	}
}
