// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/styles"
)

// =============================================================================
// STATUS
// =============================================================================

// Status represents what the chat screen is doing.
type Status int

const (
	StatusReady Status = iota
	StatusLoading
	StatusSending
	StatusListening
	StatusError
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusLoading:
		return "Loading..."
	case StatusSending:
		return "Sending..."
	case StatusListening:
		return "Listening..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape for the status so it reads without color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusLoading, StatusSending:
		return styles.StatusIndicators.Pending
	case StatusListening:
		return styles.StatusIndicators.Active
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// Shortcut is a key hint shown on the right of the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom line of the chat screen.
type StatusBar struct {
	Status    Status
	Username  string
	Width     int
	Shortcuts []Shortcut
	// Toast, when set, replaces the shortcuts.
	Toast *Toast
	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Status: StatusReady, Width: 80, theme: theme}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar.
func (s *StatusBar) View() string {
	left := s.statusStyle().Render(s.Status.Icon() + " " + s.Status.String())
	if s.Username != "" && s.Width >= 60 {
		left += s.theme.ShortcutDesc.Render("  " + s.Username)
	}

	var right string
	switch {
	case s.Toast != nil:
		right = RenderToast(*s.Toast)
	case s.Width >= 60:
		right = s.renderShortcuts(s.Width - lipgloss.Width(left) - 4)
	}

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right

	return s.theme.StatusBar.Width(s.Width).MaxWidth(s.Width).Render(line)
}

// renderShortcuts renders as many shortcuts as fit in width columns.
func (s *StatusBar) renderShortcuts(width int) string {
	var parts []string
	used := 0
	for _, sc := range s.Shortcuts {
		part := s.theme.ShortcutKey.Render(sc.Key) + " " + s.theme.ShortcutDesc.Render(sc.Desc)
		w := lipgloss.Width(part)
		if len(parts) > 0 {
			w += 2
		}
		if used+w > width {
			break
		}
		used += w
		parts = append(parts, part)
	}
	return strings.Join(parts, "  ")
}

func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusError:
		return lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	case StatusListening:
		return s.theme.Listening
	case StatusLoading, StatusSending:
		return lipgloss.NewStyle().Foreground(styles.Amber)
	default:
		return lipgloss.NewStyle().Foreground(styles.Emerald)
	}
}
