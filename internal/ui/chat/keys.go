// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines keyboard bindings for the chat screen. Bindings that
// clash with typing use alt or ctrl so the input keeps focus while they work.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat screen.
type KeyMap struct {
	Submit       key.Binding
	ToggleFocus  key.Binding
	NewChat      key.Binding
	PrevReply    key.Binding
	NextReply    key.Binding
	Shorten      key.Binding
	Expand       key.Binding
	Copy         key.Binding
	Speech       key.Binding
	DismissError key.Binding
	Suggestion   key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Escape       key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat screen.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		ToggleFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "chats"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		PrevReply: key.NewBinding(
			key.WithKeys("alt+up", "ctrl+up"),
			key.WithHelp("A-up", "previous reply"),
		),
		NextReply: key.NewBinding(
			key.WithKeys("alt+down", "ctrl+down"),
			key.WithHelp("A-down", "next reply"),
		),
		Shorten: key.NewBinding(
			key.WithKeys("alt+s"),
			key.WithHelp("A-s", "concise it"),
		),
		Expand: key.NewBinding(
			key.WithKeys("alt+e"),
			key.WithHelp("A-e", "expand it"),
		),
		Copy: key.NewBinding(
			key.WithKeys("alt+c"),
			key.WithHelp("A-c", "copy"),
		),
		Speech: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "speak"),
		),
		DismissError: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "dismiss error"),
		),
		Suggestion: key.NewBinding(
			key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4"),
			key.WithHelp("A-1..4", "suggestion"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.ToggleFocus, k.NewChat, k.PrevReply, k.Speech, k.Help}
}

// FullHelp returns all bindings grouped by column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.NewChat, k.ToggleFocus, k.Suggestion},
		{k.PrevReply, k.NextReply, k.Shorten, k.Expand, k.Copy},
		{k.Speech, k.DismissError, k.PageUp, k.PageDown},
		{k.Escape, k.Help, k.Quit},
	}
}

// suggestionIndex returns the suggestion number for an alt+N key, or -1.
func suggestionIndex(keyName string) int {
	switch keyName {
	case "alt+1":
		return 0
	case "alt+2":
		return 1
	case "alt+3":
		return 2
	case "alt+4":
		return 3
	default:
		return -1
	}
}
