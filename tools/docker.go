package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

const dockerStopTimeout = 10 // seconds

// DockerOptions carries the arguments of one docker tool call.
type DockerOptions struct {
	Container string
	Image     string
	Name      string
	Ports     []string // "host:container" specs for run
	Cmd       []string // command for exec
	Tail      string   // log tail count
}

// Docker performs a container action. With a host set, the action is
// delegated to the docker CLI on the remote over SSH; locally it goes
// through the Docker API.
func (k *Toolkit) Docker(ctx context.Context, action, host string, opts DockerOptions) (string, error) {
	if host != "" {
		return k.SSHRun(ctx, host, "docker "+remoteDockerCommand(action, opts))
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return "", fmt.Errorf("creating docker client: %w", err)
	}
	defer cli.Close()

	switch action {
	case "ps":
		return dockerPS(ctx, cli)
	case "images":
		return dockerImages(ctx, cli)
	case "pull":
		return dockerPull(ctx, cli, opts.Image)
	case "run":
		return dockerRun(ctx, cli, opts)
	case "stop":
		return dockerStop(ctx, cli, opts.Container)
	case "rm":
		return dockerRemove(ctx, cli, opts.Container)
	case "logs":
		return dockerLogs(ctx, cli, opts.Container, opts.Tail)
	case "exec":
		return dockerExec(ctx, cli, opts.Container, opts.Cmd)
	default:
		return "", fmt.Errorf("unknown docker action %q (want ps, images, pull, run, stop, rm, logs, or exec)", action)
	}
}

// remoteDockerCommand renders an action as a docker CLI invocation for the
// remote host.
func remoteDockerCommand(action string, opts DockerOptions) string {
	parts := []string{action}
	switch action {
	case "ps":
		parts = append(parts, "-a")
	case "pull":
		parts = append(parts, opts.Image)
	case "run":
		parts = append(parts, "-d")
		if opts.Name != "" {
			parts = append(parts, "--name", opts.Name)
		}
		for _, p := range opts.Ports {
			parts = append(parts, "-p", p)
		}
		parts = append(parts, opts.Image)
	case "stop", "rm":
		parts = append(parts, opts.Container)
	case "logs":
		tail := opts.Tail
		if tail == "" {
			tail = "100"
		}
		parts = append(parts, "--tail", tail, opts.Container)
	case "exec":
		parts = append(parts, opts.Container)
		parts = append(parts, opts.Cmd...)
	}
	return strings.Join(parts, " ")
}

func dockerPS(ctx context.Context, cli *client.Client) (string, error) {
	containers, err := cli.ContainerList(ctx, types.ContainerListOptions{All: true})
	if err != nil {
		return "", fmt.Errorf("listing containers: %w", err)
	}
	if len(containers) == 0 {
		return "(no containers)", nil
	}
	var sb strings.Builder
	sb.WriteString("ID | IMAGE | STATUS | NAMES\n")
	for _, c := range containers {
		id := c.ID
		if len(id) > 12 {
			id = id[:12]
		}
		names := strings.TrimPrefix(strings.Join(c.Names, ","), "/")
		fmt.Fprintf(&sb, "%s | %s | %s | %s\n", id, c.Image, c.Status, names)
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func dockerImages(ctx context.Context, cli *client.Client) (string, error) {
	images, err := cli.ImageList(ctx, types.ImageListOptions{})
	if err != nil {
		return "", fmt.Errorf("listing images: %w", err)
	}
	if len(images) == 0 {
		return "(no images)", nil
	}
	var lines []string
	for _, img := range images {
		tags := img.RepoTags
		if len(tags) == 0 {
			tags = []string{"<none>"}
		}
		for _, tag := range tags {
			lines = append(lines, fmt.Sprintf("%s (%d MB)", tag, img.Size/1024/1024))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func dockerPull(ctx context.Context, cli *client.Client, image string) (string, error) {
	if image == "" {
		return "", fmt.Errorf("pull requires an image")
	}
	reader, err := cli.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return "", fmt.Errorf("pulling %s: %w", image, err)
	}
	defer reader.Close()
	// Drain the progress stream; the tool reports only the outcome.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", fmt.Errorf("pulling %s: %w", image, err)
	}
	return fmt.Sprintf("Pulled %s", image), nil
}

func dockerRun(ctx context.Context, cli *client.Client, opts DockerOptions) (string, error) {
	if opts.Image == "" {
		return "", fmt.Errorf("run requires an image")
	}
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, spec := range opts.Ports {
		hostPort, containerPort, ok := strings.Cut(spec, ":")
		if !ok {
			return "", fmt.Errorf("invalid port spec %q (want host:container)", spec)
		}
		port, err := nat.NewPort("tcp", containerPort)
		if err != nil {
			return "", fmt.Errorf("invalid port spec %q: %w", spec, err)
		}
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostPort: hostPort}}
	}

	cfg := &container.Config{Image: opts.Image, ExposedPorts: exposed}
	hostCfg := &container.HostConfig{PortBindings: bindings}
	resp, err := cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, opts.Name)
	if err != nil {
		return "", fmt.Errorf("creating container: %w", err)
	}
	if err := cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		return "", fmt.Errorf("starting container: %w", err)
	}
	return fmt.Sprintf("Started container %s from %s", resp.ID[:12], opts.Image), nil
}

func dockerStop(ctx context.Context, cli *client.Client, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("stop requires a container")
	}
	timeout := dockerStopTimeout
	if err := cli.ContainerStop(ctx, name, container.StopOptions{Timeout: &timeout}); err != nil {
		return "", fmt.Errorf("stopping %s: %w", name, err)
	}
	return fmt.Sprintf("Stopped %s", name), nil
}

func dockerRemove(ctx context.Context, cli *client.Client, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("rm requires a container")
	}
	if err := cli.ContainerRemove(ctx, name, types.ContainerRemoveOptions{Force: true}); err != nil {
		return "", fmt.Errorf("removing %s: %w", name, err)
	}
	return fmt.Sprintf("Removed %s", name), nil
}

func dockerLogs(ctx context.Context, cli *client.Client, name, tail string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("logs requires a container")
	}
	if tail == "" {
		tail = "100"
	}
	reader, err := cli.ContainerLogs(ctx, name, types.ContainerLogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       tail,
	})
	if err != nil {
		return "", fmt.Errorf("logs for %s: %w", name, err)
	}
	defer reader.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return "", fmt.Errorf("reading logs for %s: %w", name, err)
	}
	out := strings.TrimSpace(stdout.String())
	if errOut := strings.TrimSpace(stderr.String()); errOut != "" {
		out += "\n[stderr] " + errOut
	}
	if out == "" {
		return "(no logs)", nil
	}
	return out, nil
}

func dockerExec(ctx context.Context, cli *client.Client, name string, cmd []string) (string, error) {
	if name == "" || len(cmd) == 0 {
		return "", fmt.Errorf("exec requires a container and a command")
	}
	execID, err := cli.ContainerExecCreate(ctx, name, types.ExecConfig{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", fmt.Errorf("exec create in %s: %w", name, err)
	}
	attach, err := cli.ContainerExecAttach(ctx, execID.ID, types.ExecStartCheck{})
	if err != nil {
		return "", fmt.Errorf("exec attach in %s: %w", name, err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader)
		done <- err
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("exec output in %s: %w", name, err)
		}
	case <-time.After(2 * time.Minute):
		return "", fmt.Errorf("exec in %s timed out", name)
	}

	out := strings.TrimSpace(stdout.String())
	if errOut := strings.TrimSpace(stderr.String()); errOut != "" {
		out += "\n[stderr] " + errOut
	}
	if out == "" {
		return "(no output)", nil
	}
	return strings.TrimSpace(out), nil
}
