package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/FellowTraveler/opengpts/agent"
	"github.com/FellowTraveler/opengpts/agent/terminal"
	"github.com/FellowTraveler/opengpts/checkpoint"
	"github.com/FellowTraveler/opengpts/config"
	"github.com/FellowTraveler/opengpts/errors"
	"github.com/FellowTraveler/opengpts/llm"
	"github.com/FellowTraveler/opengpts/session"
	"github.com/FellowTraveler/opengpts/tools"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for database/sql
)

func main() {
	// Define flags
	modeFlag := flag.String("m", "prompt", "Execution mode: 'auto' or 'prompt'")
	sessionFlag := flag.String("s", "", "Conversation id to create or continue")
	toolsetFlag := flag.String("t", "default", "Toolset to use")
	resumeFlag := flag.String("r", "", "Resume a conversation stopped on a tool call")
	toolVerbosityFlag := flag.String("tool-verbosity", "none", "Tool verbosity level: 'none', 'info', or 'all'")
	debugFlag := flag.Bool("debug", false, "Log agent steps to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *debugFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, options{
		mode:          *modeFlag,
		conversation:  *sessionFlag,
		toolset:       *toolsetFlag,
		resume:        *resumeFlag,
		toolVerbosity: *toolVerbosityFlag,
		prompt:        strings.Join(flag.Args(), " "),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

type options struct {
	mode          string
	conversation  string
	toolset       string
	resume        string
	toolVerbosity string
	prompt        string
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	mode, err := terminal.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	verbosity, err := terminal.ParseVerbosity(opts.toolVerbosity)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return errors.Wrapf(err, "error loading configuration")
	}

	client, err := llm.NewClient(ctx, cfg.LLMClient, cfg.Model)
	if err != nil {
		return errors.Wrapf(err, "error initializing %s client", cfg.LLMClient)
	}

	registry, err := tools.NewToolRegistry(ctx, cfg, logger)
	if err != nil {
		return errors.Wrapf(err, "error initializing tools")
	}
	defer registry.Close()

	toolset, err := cfg.GetToolset(opts.toolset)
	if err != nil {
		return err
	}
	catalog, err := registry.GetActiveTools(toolset)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg.Checkpoint)
	if err != nil {
		return errors.Wrapf(err, "error opening checkpoint store")
	}
	defer closeStore()

	template, err := cfg.LoadPromptTemplate()
	if err != nil {
		return err
	}

	exec, err := agent.Run(catalog, client, cfg.SystemMessage, store,
		agent.WithLogger(logger),
		agent.WithMaxSteps(cfg.MaxSteps),
		agent.WithTemplate(template),
	)
	if err != nil {
		return errors.Wrapf(err, "error initializing agent")
	}

	id := opts.conversation
	if opts.resume != "" {
		id = opts.resume
	}
	if id == "" {
		id = defaultConversationID()
	}

	term := terminal.New(exec, id, mode, verbosity, os.Stdin, os.Stdout)
	if opts.resume != "" {
		if _, err := exec.Conversation(ctx, id); err != nil {
			return errors.Wrapf(err, "error resuming conversation '%s'", id)
		}
		fmt.Printf("Resuming conversation: %s\n", id)
		term.Resume(ctx)
	} else {
		fmt.Printf("Conversation: %s\n", id)
	}

	fmt.Println("OpenGPTs is ready. Type your prompt.")
	if err := term.Run(ctx, opts.prompt); err != nil {
		return errors.Wrapf(err, "agent stopped with an error")
	}
	return nil
}

// openStore opens the configured checkpoint backend. The returned func
// releases whatever the backend holds open.
func openStore(cfg config.Checkpoint) (checkpoint.Store, func(), error) {
	if cfg.Backend != "sqlite" {
		store, err := checkpoint.Open(cfg, nil)
		return store, func() {}, err
	}

	path := cfg.Path
	if path == "" {
		path = filepath.Join(config.Dir, "checkpoints.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open %s", path)
	}
	store, err := checkpoint.Open(cfg, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

func defaultConversationID() string {
	wd, err := os.Getwd()
	if err != nil {
		return session.NewID()
	}
	return conversationID(wd, time.Now())
}

// conversationID names a conversation after the directory it was started
// in. Names a checkpoint store would reject, such as "/" or dot-prefixed
// directories, fall back to a generated id.
func conversationID(dir string, now time.Time) string {
	name := strings.Trim(filepath.Base(dir), `./\`)
	if name == "" {
		return session.NewID()
	}
	return fmt.Sprintf("%s_%s", name, now.Format("2006-01-02_15-04-05"))
}
