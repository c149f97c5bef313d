// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive actions.
//
// One pattern for every destructive action:
//  1. If --yes was given, proceed without prompting
//  2. If input is not interactive, refuse (can't prompt)
//  3. Otherwise ask "[y/N]"; anything but y/yes cancels

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrConfirmationRequired is returned when a prompt is needed but input is
// not a terminal.
var ErrConfirmationRequired = errors.New("confirmation required but stdin is not a terminal; use --yes")

// AskFunc shows prompt and returns the line the user typed.
type AskFunc func(prompt string) (string, error)

// ConfirmationOptions controls RequireConfirmation.
type ConfirmationOptions struct {
	// Yes skips the prompt (--yes).
	Yes bool
	// Interactive reports whether a prompt can be answered.
	Interactive bool
}

// RequireConfirmation asks whether to perform action.
//
// Example:
//
//	ok, err := RequireConfirmation("delete all chats", opts, ask)
//	if err != nil || !ok {
//	    return err
//	}
func RequireConfirmation(action string, opts ConfirmationOptions, ask AskFunc) (bool, error) {
	if opts.Yes {
		return true, nil
	}
	if !opts.Interactive || ask == nil {
		return false, ErrConfirmationRequired
	}

	answer, err := ask(fmt.Sprintf("Are you sure you want to %s? [y/N]: ", action))
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return IsYes(answer), nil
}

// IsYes reports whether answer is y or yes, ignoring case and spaces.
func IsYes(answer string) bool {
	response := strings.ToLower(strings.TrimSpace(answer))
	return response == "y" || response == "yes"
}

// ReaderAsk returns an AskFunc that writes the prompt to out and reads one
// line from in.
func ReaderAsk(in io.Reader, out io.Writer) AskFunc {
	reader := bufio.NewReader(in)
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		return line, nil
	}
}

// ShowCancellationMessage writes the standard cancellation line.
func ShowCancellationMessage(w io.Writer) {
	fmt.Fprintln(w, DimStyle.Render("Cancelled."))
}
