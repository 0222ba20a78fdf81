package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	commandTimeout = 120 * time.Second
	gitTimeout     = 60 * time.Second
)

// SearchInFiles greps for a pattern under path, filtered by an optional
// file glob, capped at 50 matches.
func (k *Toolkit) SearchInFiles(ctx context.Context, pattern, path, filePattern string) (string, error) {
	if path == "" {
		path = "."
	}
	include := filePattern
	if include == "" {
		include = "*"
	}
	args := []string{"-rn", "--include=" + include, pattern, k.resolvePath(path)}
	cmd := exec.CommandContext(ctx, "grep", args...)
	cmd.Dir = k.Workdir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	_ = cmd.Run() // grep exits 1 on no matches
	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "(no matches)", nil
	}
	lines := strings.Split(out, "\n")
	if len(lines) > 50 {
		lines = lines[:50]
	}
	return strings.Join(lines, "\n"), nil
}

// RunCommand executes a shell command with a 120 second timeout. Stderr
// and a nonzero exit code are folded into the output rather than returned
// as errors, so the model sees what happened.
func (k *Toolkit) RunCommand(ctx context.Context, command, workdir string) (string, error) {
	return k.shell(ctx, command, workdir, commandTimeout)
}

// GitCommand runs `git <args>` with a 60 second timeout.
func (k *Toolkit) GitCommand(ctx context.Context, gitArgs, workdir string) (string, error) {
	return k.shell(ctx, "git "+gitArgs, workdir, gitTimeout)
}

func (k *Toolkit) shell(ctx context.Context, command, workdir string, timeout time.Duration) (string, error) {
	if workdir == "" {
		workdir = k.Workdir
	} else {
		workdir = k.resolvePath(workdir)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "/bin/bash", "-c", command)
	cmd.Dir = workdir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out (%s)", timeout)
	}

	combined := strings.TrimSpace(stdout.String())
	if errOut := strings.TrimSpace(stderr.String()); errOut != "" {
		combined += "\n[stderr] " + errOut
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			combined += fmt.Sprintf("\n[exit code: %d]", exitErr.ExitCode())
		} else {
			return "", fmt.Errorf("run command: %w", err)
		}
	}
	combined = strings.TrimSpace(combined)
	if combined == "" {
		return "(no output)", nil
	}
	return combined, nil
}

// runExternal runs a binary directly (no shell) and returns combined
// output. A nonzero exit is an error carrying the stderr text; a timeout
// surfaces as a context error.
func runExternal(ctx context.Context, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%s timed out", name)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return strings.TrimSpace(stdout.String()), fmt.Errorf("%s: %s", name, msg)
	}
	out := strings.TrimSpace(stdout.String())
	if errOut := strings.TrimSpace(stderr.String()); errOut != "" {
		out += "\n[stderr] " + errOut
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "(no output)", nil
	}
	return out, nil
}
