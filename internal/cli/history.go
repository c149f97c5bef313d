// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"os"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/util"
)

// ErrAborted is returned by a LineReader when the user presses Ctrl+C at
// the prompt.
var ErrAborted = errors.New("prompt aborted")

// LineReader reads one edited line per prompt.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// =============================================================================
// LINE EDITOR
// =============================================================================

// LineEditor is a LineReader backed by liner with history persisted to a
// file and slash command completion.
type LineEditor struct {
	line        *liner.State
	historyFile string
}

// NewLineEditor creates an editor. An empty historyFile keeps history in
// memory only.
func NewLineEditor(historyFile string) *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(CompleteCommand)

	e := &LineEditor{line: line, historyFile: historyFile}
	e.LoadHistory()
	return e
}

// LoadHistory reads the history file, if any.
func (e *LineEditor) LoadHistory() {
	if e.historyFile == "" {
		return
	}
	f, err := os.Open(e.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := e.line.ReadHistory(f); err != nil {
		logging.Debugf("read history: %v", err)
	}
}

// Prompt shows prompt and reads a line.
func (e *LineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrAborted
	}
	return input, err
}

// AppendHistory adds a non-blank line to history.
func (e *LineEditor) AppendHistory(item string) {
	if strings.TrimSpace(item) != "" {
		e.line.AppendHistory(item)
	}
}

// SaveHistory writes history with mode 0600.
func (e *LineEditor) SaveHistory() error {
	if e.historyFile == "" {
		return nil
	}
	var buf bytes.Buffer
	if _, err := e.line.WriteHistory(&buf); err != nil {
		return err
	}
	return util.AtomicWriteFile(e.historyFile, buf.Bytes(), 0600)
}

// Close saves history and restores the terminal.
func (e *LineEditor) Close() error {
	if err := e.SaveHistory(); err != nil {
		logging.Warnf("save history: %v", err)
	}
	return e.line.Close()
}

// =============================================================================
// COMPLETION
// =============================================================================

// slashCommands lists the REPL commands offered for completion.
var slashCommands = []string{
	"/copy", "/delete", "/delete-all", "/expand", "/help", "/history",
	"/list", "/logout", "/new", "/quit", "/shorten", "/switch",
}

// CompleteCommand completes a slash command prefix. Lines that are not a
// bare command prefix get no completions.
func CompleteCommand(line string) []string {
	if !strings.HasPrefix(line, "/") || strings.ContainsAny(line, " \t") {
		return nil
	}
	var out []string
	for _, c := range slashCommands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
