// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/components"
)

// formatTimestamp formats a timestamp for display in chat messages.
// It uses smart formatting based on how recent the timestamp is:
//   - Today: just time (e.g., "15:04")
//   - This week: day and time (e.g., "Mon 15:04")
//   - Older: date and time (e.g., "Jan 2 15:04")
func formatTimestamp(t time.Time) string {
	now := time.Now()

	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if now.Sub(t) < 7*24*time.Hour {
		return t.Format("Mon 15:04")
	}
	return t.Format("Jan 2 15:04")
}

// settleDraft updates the draft after text, sent from it, resolved. A
// successful send removes text from the front of the draft and keeps whatever
// was added while it was in flight. A failed send puts text back in front
// when it is no longer there.
func (m *Model) settleDraft(text string, sent bool) {
	cur := strings.TrimLeft(m.input.Value(), " ")
	present := strings.HasPrefix(cur, text)
	switch {
	case sent && present:
		m.input.SetValue(strings.TrimLeft(cur[len(text):], " "))
	case !sent && !present:
		m.input.SetValue(strings.TrimSpace(text + " " + cur))
	default:
		return
	}
	m.input.CursorEnd()
}

// appendDraft adds text to the end of the input, separated by a space.
func (m *Model) appendDraft(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	cur := m.input.Value()
	if cur != "" && !strings.HasSuffix(cur, " ") {
		cur += " "
	}
	m.input.SetValue(cur + text)
	m.input.CursorEnd()
}

// shortcuts converts key bindings into status bar hints.
func shortcuts(bindings []key.Binding) []components.Shortcut {
	out := make([]components.Shortcut, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, components.Shortcut{Key: h.Key, Desc: h.Desc})
	}
	return out
}

// =============================================================================
// MARKDOWN
// =============================================================================

// markdownRenderer renders AI replies with glamour, rebuilding the renderer
// when the wrap width changes. When disabled, or when glamour fails, content
// is returned unchanged.
type markdownRenderer struct {
	enabled bool
	style   string
	width   int
	r       *glamour.TermRenderer
}

func newMarkdownRenderer(enabled, dark bool) *markdownRenderer {
	style := "light"
	if dark {
		style = "dark"
	}
	return &markdownRenderer{enabled: enabled, style: style}
}

// Render renders content wrapped at width columns.
func (r *markdownRenderer) Render(content string, width int) string {
	if r == nil || !r.enabled || width < 10 {
		return content
	}

	if r.r == nil || r.width != width {
		tr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(r.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			logging.Debugf("markdown renderer unavailable: %v", err)
			r.enabled = false
			return content
		}
		r.r, r.width = tr, width
	}

	out, err := r.r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
