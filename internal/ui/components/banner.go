// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/styles"
)

// DismissHint is shown at the end of the error banner.
const DismissHint = "[ctrl+x] dismiss"

// RenderErrorBanner renders the latest error across width columns. An empty
// message renders nothing.
func RenderErrorBanner(theme *styles.Theme, message string, width int) string {
	if message == "" {
		return ""
	}

	hint := theme.ShortcutDesc.Render(DismissHint)
	// Banner padding takes two columns.
	textWidth := width - lipgloss.Width(hint) - 3
	if textWidth < 10 {
		textWidth = 10
	}

	text := styles.StatusIndicators.Error + " " + truncate(message, textWidth-len(styles.StatusIndicators.Error)-1)
	line := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(textWidth).Render(text),
		" ",
		hint,
	)
	return theme.ErrorBanner.Width(width).MaxWidth(width).Render(line)
}
