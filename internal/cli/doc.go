// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the line-mode front end for
// pratham.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed global flags and the remaining arguments
//   - REPL: Line-editing chat client over the shared chat store
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdTUI:
//	    // start the Bubble Tea program
//	case cli.CmdREPL:
//	    repl := cli.NewREPL(cli.REPLOptions{Store: st, Session: sess})
//	    return repl.Run(ctx)
//	}
//
// # Commands Overview
//
//   - (none), tui: Full-screen chat client
//   - repl, chat: Line-mode chat with slash commands
//   - serve: Development backend
//   - logout: Forget the stored identity
//   - version, help
package cli
