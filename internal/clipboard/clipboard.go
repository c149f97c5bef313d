// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clipboard copies text to the system clipboard, falling back to the
// terminal's OSC 52 escape sequence when no clipboard tool is available (for
// example over SSH).
package clipboard

import (
	"errors"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/muesli/termenv"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
)

// Method reports which path performed the copy.
type Method int

const (
	MethodNone Method = iota
	MethodSystem
	MethodTerminal
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodSystem:
		return "system clipboard"
	case MethodTerminal:
		return "terminal (OSC 52)"
	default:
		return "none"
	}
}

// ErrEmpty is returned when there is nothing to copy.
var ErrEmpty = errors.New("nothing to copy")

// Copier writes text to a clipboard.
type Copier struct {
	// system writes to the OS clipboard; nil disables it.
	system func(string) error
	// terminal receives the OSC 52 sequence; nil disables the fallback.
	terminal io.Writer
}

// New returns a Copier using the OS clipboard and stdout for OSC 52.
func New() *Copier {
	c := &Copier{terminal: os.Stdout}
	if !clipboard.Unsupported {
		c.system = clipboard.WriteAll
	}
	return c
}

// NewWith returns a Copier with explicit backends. Either may be nil.
func NewWith(system func(string) error, terminal io.Writer) *Copier {
	return &Copier{system: system, terminal: terminal}
}

// Copy writes text and returns the method that succeeded.
func (c *Copier) Copy(text string) (Method, error) {
	if text == "" {
		return MethodNone, ErrEmpty
	}

	var sysErr error
	if c.system != nil {
		if sysErr = c.system(text); sysErr == nil {
			return MethodSystem, nil
		}
		logging.Debugf("system clipboard failed, trying OSC 52: %v", sysErr)
	}

	if c.terminal != nil {
		termenv.NewOutput(c.terminal).Copy(text)
		return MethodTerminal, nil
	}

	if sysErr != nil {
		return MethodNone, sysErr
	}
	return MethodNone, errors.New("no clipboard available")
}
