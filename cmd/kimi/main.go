// Command kimi is an agentic coding assistant for the terminal. It runs a
// single task from the command line or an interactive session, giving the
// model tools to read and edit files, run commands, and operate remote
// hosts, with a bounded undo ledger over every mutation.
package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gmargetis/kimi/agent"
	"github.com/gmargetis/kimi/config"
	"github.com/gmargetis/kimi/llm"
	"github.com/gmargetis/kimi/sessions"
	"github.com/gmargetis/kimi/tools"
	"github.com/gmargetis/kimi/ui"
	"github.com/gmargetis/kimi/undo"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type options struct {
	workdir string
	model   string
	session string
	image   string
	resume  bool
	noPlan  bool
	clear   bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "kimi [task]",
		Short: "Agentic coding assistant",
		Long: "Kimi is a coding agent for the terminal. Give it a task as an argument\n" +
			"for one-shot mode, or run it bare for an interactive session.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVarP(&opts.workdir, "workdir", "w", ".", "working directory for the agent")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "model alias or full model name")
	cmd.Flags().StringVarP(&opts.session, "session", "s", "", "named session to load and save")
	cmd.Flags().StringVarP(&opts.image, "image", "i", "", "attach an image (file path or URL) to the first message")
	cmd.Flags().BoolVarP(&opts.resume, "resume", "r", false, "resume the last conversation")
	cmd.Flags().BoolVar(&opts.noPlan, "no-plan", false, "skip the planning round-trip for complex tasks")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "clear the session history and exit")
	return cmd
}

func run(ctx context.Context, opts *options, task string) error {
	logger := newLogger()
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return err
	}

	workdir, err := filepath.Abs(opts.workdir)
	if err != nil {
		return fmt.Errorf("resolve workdir: %w", err)
	}

	model := cfg.ResolveModel(opts.model)
	adapter, err := newAdapter(cfg, model)
	if err != nil {
		return err
	}
	client := llm.NewClient(llm.WithProvider(cfg.Provider, adapter))
	defer client.Close()

	// Session identity: explicit name > resume > fresh default. A fresh
	// start without --resume begins empty but still checkpoints to "last";
	// the prior file stays on disk until the first save overwrites it.
	store := sessions.NewStore(cfg.SessionsDir, logger)
	sessionName := sessions.DefaultName
	if opts.session != "" {
		sessionName = opts.session
	}

	ledger := undo.NewLedger()
	kit := tools.NewToolkit(workdir, ledger, cfg, logger)
	registry := agent.NewRegistry()
	tools.RegisterAll(registry, kit)

	ag := agent.New(agent.Config{
		Client:        client,
		Model:         model,
		Registry:      registry,
		Store:         store,
		SessionName:   sessionName,
		SystemPrompt:  agent.BuildSystemPrompt(workdir),
		MaxIterations: cfg.MaxIterations,
		Planner:       !opts.noPlan,
		LoadExisting:  opts.resume || opts.session != "",
		Logger:        logger,
	})
	defer ag.Close()

	printer := ui.NewPrinter(os.Stdout)

	// --clear wipes the session and exits; it does not start a run.
	if opts.clear {
		if err := ag.Clear(); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		printer.Info(fmt.Sprintf("session %q cleared", sessionName))
		return nil
	}

	go consumeEvents(ag.Events(), printer)

	var attachments []llm.ContentPart
	if opts.image != "" {
		part, err := imagePart(opts.image)
		if err != nil {
			return err
		}
		attachments = append(attachments, part)
	}

	if task != "" {
		return runOneShot(ctx, ag, printer, cfg, task, attachments)
	}
	return runInteractive(ctx, ag, printer, cfg, kit, attachments)
}

func runOneShot(ctx context.Context, ag *agent.Agent, printer *ui.Printer, cfg *config.Config, task string, attachments []llm.ContentPart) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := ag.Run(ctx, task, attachments...); err != nil {
		if ctx.Err() != nil {
			printer.Warning("interrupted")
			return nil
		}
		return err
	}
	printer.EndStream()
	printer.Cost(ag.Usage(), cfg.CostPer1KInput, cfg.CostPer1KOutput)
	return nil
}

func runInteractive(ctx context.Context, ag *agent.Agent, printer *ui.Printer, cfg *config.Config, kit *tools.Toolkit, attachments []llm.ContentPart) error {
	printer.Info(fmt.Sprintf("kimi (%s) in %s (type 'exit' to quit)", ag.Model(), kit.Workdir))
	if n := len(ag.Messages()); n > 0 {
		printer.Info(fmt.Sprintf("resumed session %q with %d messages", ag.SessionName(), n))
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		printer.Prompt()
		if !scanner.Scan() {
			printer.Info("")
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "exit", "quit":
			printer.Cost(ag.Usage(), cfg.CostPer1KInput, cfg.CostPer1KOutput)
			return nil
		case "clear":
			if err := ag.Clear(); err != nil {
				printer.Error(err.Error())
			} else {
				printer.Info("conversation cleared")
			}
			continue
		case "undo":
			rec, err := kit.Ledger.UndoLast()
			if err != nil {
				printer.Warning(err.Error())
			} else {
				printer.Info(fmt.Sprintf("restored %s (from %s)", rec.Target, rec.Tool))
			}
			continue
		case "save":
			path, err := sessions.ExportMarkdown(kit.Workdir, ag.Messages())
			if err != nil {
				printer.Error(err.Error())
			} else {
				printer.Info("exported " + path)
			}
			continue
		case "sessions":
			printSessions(printer, cfg)
			continue
		}

		// One turn. SIGINT aborts the turn, not the program; the session
		// keeps its previous checkpoint.
		turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		_, err := ag.Run(turnCtx, input, attachments...)
		stop()
		attachments = nil // the image rides only the first message
		printer.EndStream()
		if err != nil {
			if turnCtx.Err() != nil {
				printer.Warning("turn interrupted")
				continue
			}
			printer.Error(err.Error())
			continue
		}
		printer.Cost(ag.TurnUsage(), cfg.CostPer1KInput, cfg.CostPer1KOutput)
	}
}

func printSessions(printer *ui.Printer, cfg *config.Config) {
	store := sessions.NewStore(cfg.SessionsDir, nil)
	infos, err := store.List()
	if err != nil {
		printer.Error(err.Error())
		return
	}
	if len(infos) == 0 {
		printer.Info("no saved sessions")
		return
	}
	for _, info := range infos {
		printer.Info(fmt.Sprintf("  %-20s %3d messages  %s",
			info.Name, info.Messages, info.Modified.Format("2006-01-02 15:04")))
	}
}

// consumeEvents drives the printer from the agent's event stream.
func consumeEvents(events <-chan agent.Event, printer *ui.Printer) {
	for event := range events {
		switch event.Kind {
		case agent.EventPlanCreated:
			printer.Plan(str(event.Data, "plan"))
		case agent.EventTextDelta:
			printer.StreamDelta(str(event.Data, "delta"))
		case agent.EventTextEnd:
			printer.EndStream()
		case agent.EventToolCallStart:
			printer.ToolCall(str(event.Data, "tool_name"), str(event.Data, "args"))
		case agent.EventToolCallEnd:
			isError, _ := event.Data["is_error"].(bool)
			printer.ToolResult(str(event.Data, "output"), isError)
		case agent.EventTurnLimit:
			printer.Warning("maximum tool iterations reached")
		case agent.EventWarning:
			printer.Warning(str(event.Data, "message"))
		}
	}
}

func str(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

// imagePart turns a local path or URL into an image content part. Local
// files are inlined as data URLs.
func imagePart(ref string) (llm.ContentPart, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return llm.ImageURLPart(ref, ""), nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return llm.ContentPart{}, fmt.Errorf("read image %s: %w", ref, err)
	}
	mediaType := mime.TypeByExtension(filepath.Ext(ref))
	if mediaType == "" {
		mediaType = "image/png"
	}
	url := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return llm.ImageURLPart(url, mediaType), nil
}

func newAdapter(cfg *config.Config, model string) (llm.ProviderAdapter, error) {
	apiKey := os.Getenv("KIMI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key: set KIMI_API_KEY or OPENAI_API_KEY")
	}
	return llm.NewGollmAdapter(cfg.Provider,
		llm.WithAPIKey(apiKey),
		llm.WithModel(model),
	)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("KIMI_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
