// Pratham AI - a terminal client for the Pratham AI chat assistant.
//
// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/cli"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/clipboard"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/config"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/server"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/session"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/speech"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/store"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/chat"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
	server.Version = Version
}

// programRef lets store listeners reach the running program.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		cli.PrintUsage(os.Stderr)
		os.Exit(cli.GetExitCode(err))
	}

	switch cmd {
	case cli.CmdHelp:
		cli.HandleHelp()
		return
	case cli.CmdVersion:
		cli.HandleVersion()
		return
	}

	cfg, cfgPath, err := loadConfig(args)
	if err != nil {
		exitWith(err)
	}

	switch cmd {
	case cli.CmdServe:
		err = runServe(cfg)
	case cli.CmdREPL:
		err = runREPL(cfg, args)
	case cli.CmdLogout:
		err = runLogout(cfg)
	default:
		err = runTUI(cfg, cfgPath, args)
	}
	logging.Close()
	if err != nil {
		exitWith(err)
	}
}

func exitWith(err error) {
	cli.DisplayError(os.Stderr, err)
	os.Exit(cli.GetExitCode(err))
}

// =============================================================================
// SETUP
// =============================================================================

// loadConfig reads the config file and applies command-line overrides. It
// returns the path that was read so the TUI can watch it.
func loadConfig(args cli.Args) (*config.Config, string, error) {
	path := args.ConfigPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return nil, "", err
		}
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, "", err
	}

	if args.APIURL != "" {
		cfg.API.BaseURL = args.APIURL
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	if args.Addr != "" {
		cfg.Server.Addr = args.Addr
	}
	if args.DBPath != "" {
		cfg.Server.DBPath = args.DBPath
	}
	return cfg, path, nil
}

// initLogging starts the logger. The TUI owns the terminal and the REPL owns
// stdout, so both log to the configured file; serve logs to stderr.
func initLogging(cfg *config.Config, toFile bool) error {
	opts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if toFile {
		opts.File = cfg.Log.File
	}
	return logging.Init(opts)
}

// openStore opens the persisted identity and the conversation store in
// front of the backend.
func openStore(cfg *config.Config) (*store.Store, *session.Store, error) {
	sess, err := session.Open(cfg.Session.File)
	if err != nil {
		return nil, nil, err
	}
	client := api.NewClient(cfg.API.BaseURL)
	logging.Debugf("backend: %s", cfg.API.BaseURL)
	return store.New(client, sess), sess, nil
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(cfg *config.Config, cfgPath string, args cli.Args) error {
	if err := initLogging(cfg, true); err != nil {
		return err
	}
	st, sess, err := openStore(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if args.User != "" {
		signInCtx, stop := context.WithTimeout(ctx, cli.DefaultOperationTimeout)
		err := st.SignIn(signInCtx, args.User)
		stop()
		if err != nil {
			return cli.NewCommandError("tui", "sign in", api.UserMessage(err, store.MsgLoginFailed), err)
		}
	}
	username, _ := sess.Active()

	watcher, err := config.Watch(ctx, cfgPath,
		func(c *config.Config) {
			logging.SetLevel(c.Log.Level)
			logging.Infof("config reloaded from %s", cfgPath)
		},
		func(err error) {
			logging.Warnf("config reload failed: %v", err)
		})
	if err != nil {
		logging.Warnf("config watch disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	opts := AppOptions{
		Theme:     styles.NewTheme(cfg.UI.Theme),
		Store:     st,
		Clipboard: clipboard.New(),
		Markdown:  cfg.UI.Markdown,
		Username:  username,
	}
	if len(cfg.Speech.Command) > 0 {
		command := cfg.Speech.Command
		opts.Speech = func() *speech.Capture {
			return speech.NewCapture(speech.NewExecRecognizer(command))
		}
	}
	m := NewModel(opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	unsubscribe := st.Subscribe(func() {
		sendToProgram(chat.StoreChangedMsg{})
	})
	defer unsubscribe()

	final, err := p.Run()

	programMu.Lock()
	programRef = nil
	programMu.Unlock()

	if fm, ok := final.(Model); ok {
		fm.Close()
	}
	if err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

// =============================================================================
// REPL
// =============================================================================

func runREPL(cfg *config.Config, args cli.Args) error {
	if err := initLogging(cfg, cfg.Log.File != ""); err != nil {
		return err
	}
	st, sess, err := openStore(cfg)
	if err != nil {
		return err
	}

	historyFile := ""
	if dir, err := config.Dir(); err == nil {
		historyFile = filepath.Join(dir, "repl_history")
	}
	editor := cli.NewLineEditor(historyFile)
	defer editor.Close()

	repl := cli.NewREPL(cli.REPLOptions{
		Store:       st,
		Session:     sess,
		Input:       editor,
		Output:      os.Stdout,
		Copier:      clipboard.New(),
		Renderer:    cli.NewRenderer(cli.RenderOptions{Markdown: cfg.UI.Markdown && cli.IsStdoutTTY()}),
		User:        args.User,
		Yes:         args.Yes,
		Interactive: cli.IsTTY(),
	})
	return repl.Run(context.Background())
}

// =============================================================================
// SERVE
// =============================================================================

func runServe(cfg *config.Config) error {
	if err := initLogging(cfg, false); err != nil {
		return err
	}

	storage, err := server.OpenStorage(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer storage.Close()

	srv := server.New(storage, server.CannedResponder{}, server.Options{
		Addr:      cfg.Server.Addr,
		RateLimit: cfg.Server.RateLimit,
		Burst:     cfg.Server.Burst,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Serving the Pratham AI API on http://%s (Ctrl+C to stop)\n", cfg.Server.Addr)
	return srv.ListenAndServe(ctx)
}

// =============================================================================
// LOGOUT
// =============================================================================

func runLogout(cfg *config.Config) error {
	sess, err := session.Open(cfg.Session.File)
	if err != nil {
		return err
	}
	name, ok := sess.Active()
	if !ok {
		fmt.Println(cli.DimStyle.Render("Not signed in."))
		return nil
	}
	if err := sess.Logout(); err != nil {
		return err
	}
	fmt.Println(cli.SuccessStyle.Render("Signed out " + name + "."))
	return nil
}
