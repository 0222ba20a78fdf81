package tools

import (
	"context"
	"fmt"

	"github.com/gmargetis/kimi/agent"
	"github.com/gmargetis/kimi/llm"
)

// RegisterAll wires every tool into the registry against this toolkit.
func RegisterAll(reg *agent.Registry, k *Toolkit) {
	hostHint := "Host alias"
	if len(k.Config.SSHHosts) > 0 {
		hostHint += " (known: "
		first := true
		for alias := range k.Config.SSHHosts {
			if !first {
				hostHint += ", "
			}
			hostHint += alias
			first = false
		}
		hostHint += ")"
	}
	hostHint += " or user@host"

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "read_file",
			Description: "Read the contents of a file",
			Parameters: objectSchema(map[string]interface{}{
				"path":       prop("string", ""),
				"lines_from": prop("integer", "Start line (1-indexed, optional)"),
				"lines_to":   prop("integer", "End line (optional)"),
			}, "path"),
		},
		Required: []string{"path"},
		Handler: func(_ context.Context, args map[string]interface{}) (string, error) {
			path, _ := agent.StringArg(args, "path")
			from, _ := agent.IntArg(args, "lines_from")
			to, _ := agent.IntArg(args, "lines_to")
			return k.ReadFile(path, from, to)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "write_file",
			Description: "Write content to a file (creates or overwrites). Supports undo.",
			Parameters: objectSchema(map[string]interface{}{
				"path":    prop("string", ""),
				"content": prop("string", ""),
			}, "path", "content"),
		},
		Required: []string{"path", "content"},
		Handler: func(_ context.Context, args map[string]interface{}) (string, error) {
			path, _ := agent.StringArg(args, "path")
			content, _ := agent.StringArg(args, "content")
			return k.WriteFile(path, content)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "edit_file",
			Description: "Replace specific text in a file (shows diff before applying). Supports undo.",
			Parameters: objectSchema(map[string]interface{}{
				"path":     prop("string", ""),
				"old_text": prop("string", "Exact text to find"),
				"new_text": prop("string", "Replacement text"),
			}, "path", "old_text", "new_text"),
		},
		Required: []string{"path", "old_text", "new_text"},
		Handler: func(_ context.Context, args map[string]interface{}) (string, error) {
			path, _ := agent.StringArg(args, "path")
			oldText, _ := agent.StringArg(args, "old_text")
			newText, _ := agent.StringArg(args, "new_text")
			return k.EditFile(path, oldText, newText)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "run_command",
			Description: "Run a shell command and return output",
			Parameters: objectSchema(map[string]interface{}{
				"command": prop("string", ""),
				"workdir": prop("string", "Working directory (optional)"),
			}, "command"),
		},
		Required: []string{"command"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			command, _ := agent.StringArg(args, "command")
			workdir, _ := agent.StringArg(args, "workdir")
			return k.RunCommand(ctx, command, workdir)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "list_files",
			Description: "List files in a directory",
			Parameters: objectSchema(map[string]interface{}{
				"path":      prop("string", "Directory (default: .)"),
				"recursive": prop("boolean", ""),
				"pattern":   prop("string", "Glob pattern (e.g. *.go)"),
			}),
		},
		Handler: func(_ context.Context, args map[string]interface{}) (string, error) {
			path, ok := agent.StringArg(args, "path")
			if !ok {
				path = "."
			}
			recursive, _ := agent.BoolArg(args, "recursive")
			pattern, _ := agent.StringArg(args, "pattern")
			return k.ListFiles(path, recursive, pattern)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "search_in_files",
			Description: "Search for text/pattern across files (grep)",
			Parameters: objectSchema(map[string]interface{}{
				"pattern":      prop("string", "Text or regex to search"),
				"path":         prop("string", "Directory to search in (default: .)"),
				"file_pattern": prop("string", "File filter e.g. *.go"),
			}, "pattern"),
		},
		Required: []string{"pattern"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			pattern, _ := agent.StringArg(args, "pattern")
			path, _ := agent.StringArg(args, "path")
			filePattern, _ := agent.StringArg(args, "file_pattern")
			return k.SearchInFiles(ctx, pattern, path, filePattern)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "edit_files_glob",
			Description: "Replace text in ALL files matching a glob pattern. Returns list of changed files.",
			Parameters: objectSchema(map[string]interface{}{
				"pattern":  prop("string", "Glob pattern, e.g. 'src/*.go' or '*.js'"),
				"old_text": prop("string", "Exact text to find"),
				"new_text": prop("string", "Replacement text"),
			}, "pattern", "old_text", "new_text"),
		},
		Required: []string{"pattern", "old_text", "new_text"},
		Handler: func(_ context.Context, args map[string]interface{}) (string, error) {
			pattern, _ := agent.StringArg(args, "pattern")
			oldText, _ := agent.StringArg(args, "old_text")
			newText, _ := agent.StringArg(args, "new_text")
			return k.EditFilesGlob(pattern, oldText, newText)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "git_command",
			Description: "Run git commands (status, diff, log, commit, push, branch, checkout, etc.) in the working directory",
			Parameters: objectSchema(map[string]interface{}{
				"command": prop("string", "Git subcommand and args, e.g. 'status', 'diff HEAD', 'log --oneline -5'"),
				"workdir": prop("string", "Working directory (default: cwd)"),
			}, "command"),
		},
		Required: []string{"command"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			command, _ := agent.StringArg(args, "command")
			workdir, _ := agent.StringArg(args, "workdir")
			return k.GitCommand(ctx, command, workdir)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "fetch_url",
			Description: "Fetch a URL and return readable text content (HTML tags stripped)",
			Parameters: objectSchema(map[string]interface{}{
				"url": prop("string", "HTTP/HTTPS URL to fetch"),
			}, "url"),
		},
		Required: []string{"url"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			url, _ := agent.StringArg(args, "url")
			return k.FetchURL(ctx, url)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name: "docker",
			Description: "Manage containers locally via the Docker API, or on a remote host via SSH. " +
				"Actions: ps, images, pull, run, stop, rm, logs, exec",
			Parameters: objectSchema(map[string]interface{}{
				"action":    prop("string", "One of: ps, images, pull, run, stop, rm, logs, exec"),
				"host":      prop("string", "Optional SSH host alias or user@host for remote execution"),
				"container": prop("string", "Container name or ID (stop, rm, logs, exec)"),
				"image":     prop("string", "Image reference (pull, run)"),
				"name":      prop("string", "Container name for run"),
				"ports": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Port bindings for run, host:container e.g. '8080:80'",
				},
				"cmd": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Command for exec, e.g. ['ls', '-la']",
				},
				"tail": prop("string", "Log line count for logs (default 100)"),
			}, "action"),
		},
		Required: []string{"action"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			action, _ := agent.StringArg(args, "action")
			host, _ := agent.StringArg(args, "host")
			opts := DockerOptions{}
			opts.Container, _ = agent.StringArg(args, "container")
			opts.Image, _ = agent.StringArg(args, "image")
			opts.Name, _ = agent.StringArg(args, "name")
			opts.Tail, _ = agent.StringArg(args, "tail")
			opts.Ports = stringSlice(args["ports"])
			opts.Cmd = stringSlice(args["cmd"])
			return k.Docker(ctx, action, host, opts)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "db_query",
			Description: "Execute SQL on a SQLite database (file path or :memory:)",
			Parameters: objectSchema(map[string]interface{}{
				"connection": prop("string", "SQLite file path or :memory:"),
				"sql":        prop("string", "SQL to execute"),
				"params": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Optional query parameters",
				},
			}, "connection", "sql"),
		},
		Required: []string{"connection", "sql"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			connection, _ := agent.StringArg(args, "connection")
			query, _ := agent.StringArg(args, "sql")
			var params []interface{}
			if raw, ok := args["params"].([]interface{}); ok {
				params = raw
			}
			return k.DBQuery(ctx, connection, query, params)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "read_env",
			Description: "Read a .env file and return key-value pairs (secret values are masked)",
			Parameters: objectSchema(map[string]interface{}{
				"path": prop("string", ".env file path (default: .env)"),
			}),
		},
		Handler: func(_ context.Context, args map[string]interface{}) (string, error) {
			path, _ := agent.StringArg(args, "path")
			return k.ReadEnv(path)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "write_env",
			Description: "Write key-value pairs to a .env file. Supports undo.",
			Parameters: objectSchema(map[string]interface{}{
				"path":   prop("string", ".env file path (default: .env)"),
				"values": map[string]interface{}{"type": "object", "description": "Key-value pairs to write/update"},
			}, "values"),
		},
		Required: []string{"values"},
		Sanitize: SanitizeEnvArgs,
		Handler: func(_ context.Context, args map[string]interface{}) (string, error) {
			path, _ := agent.StringArg(args, "path")
			raw, ok := args["values"].(map[string]interface{})
			if !ok {
				return "", fmt.Errorf("values must be an object of key-value pairs")
			}
			values := make(map[string]string, len(raw))
			for key, v := range raw {
				values[key] = fmt.Sprintf("%v", v)
			}
			return k.WriteEnv(values, path)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "ssh_run",
			Description: "Run a command on a remote host via SSH",
			Parameters: objectSchema(map[string]interface{}{
				"host":    prop("string", hostHint),
				"command": prop("string", "Shell command to run remotely"),
			}, "host", "command"),
		},
		Required: []string{"host", "command"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			host, _ := agent.StringArg(args, "host")
			command, _ := agent.StringArg(args, "command")
			return k.SSHRun(ctx, host, command)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "ssh_upload",
			Description: "Upload a local file to a remote host via SCP",
			Parameters: objectSchema(map[string]interface{}{
				"host":        prop("string", hostHint),
				"local_path":  prop("string", "Local file path"),
				"remote_path": prop("string", "Remote destination path"),
			}, "host", "local_path", "remote_path"),
		},
		Required: []string{"host", "local_path", "remote_path"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			host, _ := agent.StringArg(args, "host")
			localPath, _ := agent.StringArg(args, "local_path")
			remotePath, _ := agent.StringArg(args, "remote_path")
			return k.SSHUpload(ctx, host, localPath, remotePath)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "ssh_download",
			Description: "Download a file from a remote host via SCP",
			Parameters: objectSchema(map[string]interface{}{
				"host":        prop("string", hostHint),
				"remote_path": prop("string", "Remote file path"),
				"local_path":  prop("string", "Local destination path"),
			}, "host", "remote_path", "local_path"),
		},
		Required: []string{"host", "remote_path", "local_path"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			host, _ := agent.StringArg(args, "host")
			remotePath, _ := agent.StringArg(args, "remote_path")
			localPath, _ := agent.StringArg(args, "local_path")
			return k.SSHDownload(ctx, host, remotePath, localPath)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "ssh_read_file",
			Description: "Read a file from a remote host",
			Parameters: objectSchema(map[string]interface{}{
				"host": prop("string", hostHint),
				"path": prop("string", "Remote file path"),
			}, "host", "path"),
		},
		Required: []string{"host", "path"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			host, _ := agent.StringArg(args, "host")
			path, _ := agent.StringArg(args, "path")
			return k.SSHReadFile(ctx, host, path)
		},
	})

	reg.Register(agent.Tool{
		Definition: llm.ToolDefinition{
			Name:        "ssh_write_file",
			Description: "Write a file on a remote host. Supports undo.",
			Parameters: objectSchema(map[string]interface{}{
				"host":    prop("string", hostHint),
				"path":    prop("string", "Remote file path"),
				"content": prop("string", "File content"),
			}, "host", "path", "content"),
		},
		Required: []string{"host", "path", "content"},
		Handler: func(ctx context.Context, args map[string]interface{}) (string, error) {
			host, _ := agent.StringArg(args, "host")
			path, _ := agent.StringArg(args, "path")
			content, _ := agent.StringArg(args, "content")
			return k.SSHWriteFile(ctx, host, path, content)
		},
	})
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func prop(typ, description string) map[string]interface{} {
	p := map[string]interface{}{"type": typ}
	if description != "" {
		p["description"] = description
	}
	return p
}

func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
