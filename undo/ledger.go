// Package undo implements the bounded mutation ledger that makes
// file-modifying tools reversible. Every mutating tool records the target's
// prior state before writing; the interactive `undo` command walks the
// ledger backwards, most recent mutation first.
package undo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Capacity is the maximum number of mutations the ledger retains. When a
// 21st mutation is recorded, the oldest record is evicted and becomes
// permanently unrecoverable.
const Capacity = 20

// ErrNothingToUndo is returned by UndoLast when the ledger is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

// RestoreFunc applies a record's prior content back to its target resource.
// Local files use the default restorer; remote-capable tools supply their
// own (e.g. scp the prior content back).
type RestoreFunc func(r Record) error

// Record captures the pre-mutation state of a single resource.
type Record struct {
	// Target identifies the mutated resource: a local path, or a
	// "host:path" form for remote files.
	Target string
	// Prior is the content the resource held before the mutation.
	// Meaningless when Existed is false.
	Prior string
	// Existed is false when the mutation created the resource; undo then
	// deletes it instead of rewriting it.
	Existed bool
	// Tool names the tool that performed the mutation.
	Tool string
	// Time is when the record was pushed.
	Time time.Time

	restore RestoreFunc
}

// Ledger is a fixed-capacity ring of the most recent mutations, ordered
// globally (not per resource). It is owned by a single agent and is not
// safe for concurrent use.
type Ledger struct {
	records [Capacity]Record
	start   int // index of the oldest record
	count   int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Len returns the number of undoable records.
func (l *Ledger) Len() int { return l.count }

// Record pushes a mutation record. If the ledger is full the oldest record
// is dropped. Callers must push before mutating the resource so an
// interrupted mutation still leaves the prior state recorded.
func (l *Ledger) Record(r Record) {
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	if r.restore == nil {
		r.restore = restoreLocalFile
	}
	if l.count < Capacity {
		l.records[(l.start+l.count)%Capacity] = r
		l.count++
		return
	}
	// Full: overwrite the oldest slot and advance the ring start.
	l.records[l.start] = r
	l.start = (l.start + 1) % Capacity
}

// RecordFile captures a local file's current state ahead of a mutation.
func (l *Ledger) RecordFile(path, tool string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		l.Record(Record{Target: path, Existed: false, Tool: tool})
		return nil
	}
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	l.Record(Record{Target: path, Prior: string(data), Existed: true, Tool: tool})
	return nil
}

// RecordRemote captures a remote resource's prior state with a custom
// restorer. Used by tools whose targets are not local files.
func (l *Ledger) RecordRemote(target, prior, tool string, existed bool, restore RestoreFunc) {
	l.Record(Record{Target: target, Prior: prior, Existed: existed, Tool: tool, restore: restore})
}

// UndoLast pops the most recent record and applies its prior content back
// to the target, verbatim. The ledger is state-unaware: if something else
// modified the target since the mutation, the snapshot still wins.
func (l *Ledger) UndoLast() (Record, error) {
	if l.count == 0 {
		return Record{}, ErrNothingToUndo
	}
	idx := (l.start + l.count - 1) % Capacity
	r := l.records[idx]
	if err := r.restore(r); err != nil {
		// The record stays on the ledger so the user can retry.
		return Record{}, fmt.Errorf("undo %s: %w", r.Target, err)
	}
	l.records[idx] = Record{}
	l.count--
	return r, nil
}

// Peek returns the most recent record without removing it.
func (l *Ledger) Peek() (Record, bool) {
	if l.count == 0 {
		return Record{}, false
	}
	return l.records[(l.start+l.count-1)%Capacity], true
}

func restoreLocalFile(r Record) error {
	if !r.Existed {
		if err := os.Remove(r.Target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.Target), 0755); err != nil {
		return err
	}
	return os.WriteFile(r.Target, []byte(r.Prior), 0644)
}
