package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gmargetis/kimi/undo"
)

const (
	sshTimeout = 60 * time.Second
	scpTimeout = 120 * time.Second
)

// sshOpts are the non-interactive connection options applied to every ssh
// and scp invocation.
var sshOpts = []string{
	"-o", "StrictHostKeyChecking=no",
	"-o", "ConnectTimeout=10",
	"-o", "BatchMode=yes",
}

// SSHRun executes a command on a remote host. The host may be an alias
// from the config or a literal user@host.
func (k *Toolkit) SSHRun(ctx context.Context, host, command string) (string, error) {
	target := k.Config.ResolveSSHHost(strings.ToLower(host))
	args := append(append([]string{}, sshOpts...), target, command)
	ctx, cancel := context.WithTimeout(ctx, sshTimeout)
	defer cancel()
	return runExternal(ctx, "ssh", args)
}

// SSHUpload copies a local file to a remote path with scp.
func (k *Toolkit) SSHUpload(ctx context.Context, host, localPath, remotePath string) (string, error) {
	target := k.Config.ResolveSSHHost(strings.ToLower(host))
	args := append(append([]string{}, sshOpts...), k.resolvePath(localPath), target+":"+remotePath)
	ctx, cancel := context.WithTimeout(ctx, scpTimeout)
	defer cancel()
	if _, err := runExternal(ctx, "scp", args); err != nil {
		return "", fmt.Errorf("upload %s to %s: %w", localPath, target, err)
	}
	return fmt.Sprintf("Uploaded %s -> %s:%s", localPath, target, remotePath), nil
}

// SSHDownload copies a remote file to a local path with scp.
func (k *Toolkit) SSHDownload(ctx context.Context, host, remotePath, localPath string) (string, error) {
	target := k.Config.ResolveSSHHost(strings.ToLower(host))
	local := k.resolvePath(localPath)
	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", localPath, err)
	}
	args := append(append([]string{}, sshOpts...), target+":"+remotePath, local)
	ctx, cancel := context.WithTimeout(ctx, scpTimeout)
	defer cancel()
	if _, err := runExternal(ctx, "scp", args); err != nil {
		return "", fmt.Errorf("download %s:%s: %w", target, remotePath, err)
	}
	return fmt.Sprintf("Downloaded %s:%s -> %s", target, remotePath, localPath), nil
}

// SSHReadFile reads a remote file over ssh.
func (k *Toolkit) SSHReadFile(ctx context.Context, host, path string) (string, error) {
	return k.SSHRun(ctx, host, fmt.Sprintf("cat %q", path))
}

// SSHWriteFile writes content to a remote file. The prior remote content
// is captured first and recorded with a restorer, so undo works on remote
// targets the same way it does locally.
func (k *Toolkit) SSHWriteFile(ctx context.Context, host, path, content string) (string, error) {
	target := k.Config.ResolveSSHHost(strings.ToLower(host))

	// The snapshot goes over scp, not cat: the ledger needs the file's
	// exact bytes, and command output gets trimmed and annotated.
	snapCtx, cancelSnap := context.WithTimeout(ctx, scpTimeout)
	prior, priorErr := k.downloadContent(snapCtx, target, path)
	cancelSnap()
	existed := priorErr == nil

	restore := func(rec undo.Record) error {
		ctx, cancel := context.WithTimeout(context.Background(), scpTimeout)
		defer cancel()
		if !rec.Existed {
			_, err := runExternal(ctx, "ssh",
				append(append([]string{}, sshOpts...), target, fmt.Sprintf("rm -f %q", path)))
			return err
		}
		return k.uploadContent(ctx, target, path, rec.Prior)
	}
	if existed {
		k.Ledger.RecordRemote(target+":"+path, prior, "ssh_write_file", true, restore)
	} else {
		k.Ledger.RecordRemote(target+":"+path, "", "ssh_write_file", false, restore)
	}

	ctx, cancel := context.WithTimeout(ctx, scpTimeout)
	defer cancel()
	if err := k.uploadContent(ctx, target, path, content); err != nil {
		return "", fmt.Errorf("write %s:%s: %w", target, path, err)
	}
	return fmt.Sprintf("Written %d chars to %s:%s", len(content), target, path), nil
}

// downloadContent copies a remote file into a temp file and returns its
// exact bytes.
func (k *Toolkit) downloadContent(ctx context.Context, target, remotePath string) (string, error) {
	tmp, err := os.CreateTemp("", "kimi-ssh-*.tmp")
	if err != nil {
		return "", fmt.Errorf("stage download: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)
	args := append(append([]string{}, sshOpts...), target+":"+remotePath, tmpName)
	if _, err := runExternal(ctx, "scp", args); err != nil {
		return "", err
	}
	data, err := os.ReadFile(tmpName)
	if err != nil {
		return "", fmt.Errorf("read download: %w", err)
	}
	return string(data), nil
}

// uploadContent stages content in a temp file and scp's it to the remote.
func (k *Toolkit) uploadContent(ctx context.Context, target, remotePath, content string) error {
	tmp, err := os.CreateTemp("", "kimi-ssh-*.tmp")
	if err != nil {
		return fmt.Errorf("stage upload: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("stage upload: %w", err)
	}
	tmp.Close()
	args := append(append([]string{}, sshOpts...), tmp.Name(), target+":"+remotePath)
	_, err = runExternal(ctx, "scp", args)
	return err
}
