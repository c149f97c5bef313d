// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing for pratham.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdREPL
	CmdServe
	CmdLogout
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdREPL:
		return "repl"
	case CmdServe:
		return "serve"
	case CmdLogout:
		return "logout"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "tui"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string // --config: config file instead of ~/.pratham/config.toml
	APIURL     string // --api: backend base URL override
	User       string // --user: sign in as this identity
	Yes        bool   // --yes: skip confirmation prompts
	Verbose    bool   // --verbose: debug logging

	// serve
	Addr   string // --addr: listen address
	DBPath string // --db: SQLite file

	// Raw holds the arguments after the command name that were not flags.
	Raw []string
}

// boolFlags never take a value.
var boolFlags = []string{"yes", "y", "verbose", "v", "help", "h", "version"}

const usageText = `pratham - terminal client for Pratham AI

Usage:
  pratham                    Start the chat TUI (default)
  pratham repl               Line-mode chat with slash commands (alias: chat)
  pratham serve              Run the development backend
  pratham logout             Forget the signed-in identity
  pratham version            Show version information
  pratham help               Show this help

Global Flags:
  --config PATH              Config file (default ~/.pratham/config.toml)
  --api URL                  Backend base URL
  --user NAME                Sign in as NAME without the login screen
  -y, --yes                  Do not ask before deleting all chats
  -v, --verbose              Debug logging

Serve Flags:
  --addr HOST:PORT           Listen address (default from config)
  --db PATH                  SQLite database file

REPL Commands:
  /new                       Start a new chat
  /list                      List chats
  /switch N                  Switch to chat N from /list
  /history                   Show the current chat
  /delete [N]                Delete the current chat, or chat N
  /delete-all                Delete every chat
  /shorten, /expand          Rewrite the last reply
  /copy                      Copy the last reply
  /logout                    Sign out and leave
  /help, /quit

Environment:
  PRATHAM_API_URL, PRATHAM_LOG_LEVEL and friends override the config file.
  A .env file in the working directory is read first.

Version: %s
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "pratham version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments (without the program name) and returns
// the command and args. Unknown commands are usage errors.
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlags...)

	args := Args{
		ConfigPath: p.Flag("config"),
		APIURL:     p.Flag("api"),
		User:       strings.TrimSpace(p.Flag("user")),
		Yes:        p.BoolFlag("yes") || p.BoolFlag("y"),
		Verbose:    p.BoolFlag("verbose") || p.BoolFlag("v"),
		Addr:       p.Flag("addr"),
		DBPath:     p.Flag("db"),
		Raw:        p.PositionalFrom(1),
	}

	if p.BoolFlag("help") || p.BoolFlag("h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") {
		return CmdVersion, args, nil
	}

	if p.HasFlag("user") && args.User == "" {
		return CmdHelp, args, NewValidationError("--user", "", "username is required")
	}

	switch strings.ToLower(p.Subcommand()) {
	case "", "tui":
		return CmdTUI, args, nil
	case "repl", "chat":
		return CmdREPL, args, nil
	case "serve", "server":
		return CmdServe, args, nil
	case "logout":
		return CmdLogout, args, nil
	case "version":
		return CmdVersion, args, nil
	case "help":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, NewValidationErrorWithExample(
			"command", p.Subcommand(), "unknown command", "pratham repl")
	}
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion(os.Stdout)
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage(os.Stdout)
}
