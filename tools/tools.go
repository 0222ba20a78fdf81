// Package tools implements the concrete tool surface the agent exposes to
// the model: filesystem edits, shell and git commands, SSH remotes, docker,
// SQL queries, .env management, and URL fetching. Mutating tools record
// prior state on the undo ledger before touching anything.
package tools

import (
	"log/slog"
	"path/filepath"

	"github.com/gmargetis/kimi/config"
	"github.com/gmargetis/kimi/undo"
)

// Toolkit carries the shared state every tool handler needs.
type Toolkit struct {
	Workdir string
	Ledger  *undo.Ledger
	Config  *config.Config
	Logger  *slog.Logger
}

// NewToolkit creates a toolkit rooted at workdir.
func NewToolkit(workdir string, ledger *undo.Ledger, cfg *config.Config, logger *slog.Logger) *Toolkit {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Toolkit{Workdir: workdir, Ledger: ledger, Config: cfg, Logger: logger}
}

// resolvePath anchors relative paths at the working directory.
func (k *Toolkit) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(k.Workdir, path)
}
