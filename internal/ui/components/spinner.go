// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/styles"
)

// SlowRequestAfter is how long a request runs before the spinner starts
// showing the elapsed time. The hosted backend can take a while to wake up.
const SlowRequestAfter = 3 * time.Second

// =============================================================================
// SPINNER MODEL
// =============================================================================

// Spinner shows a label and animated dots while a request is in flight.
type Spinner struct {
	dots    spinner.Model
	theme   *styles.Theme
	label   string
	since   time.Time
	running bool

	// now is replaceable in tests.
	now func() time.Time
}

// NewSpinner creates a stopped spinner labelled label.
func NewSpinner(theme *styles.Theme, label string) Spinner {
	dots := spinner.New()
	dots.Spinner = spinner.Spinner{
		Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
		FPS:    time.Second / 6,
	}
	dots.Style = theme.Spinner

	return Spinner{dots: dots, theme: theme, label: label, now: time.Now}
}

// Start begins the animation. Starting a running spinner does nothing.
func (s *Spinner) Start() tea.Cmd {
	if s.running {
		return nil
	}
	s.running = true
	s.since = s.now()
	return s.dots.Tick
}

// Stop ends the animation.
func (s *Spinner) Stop() {
	s.running = false
}

// IsActive reports whether the spinner is running.
func (s Spinner) IsActive() bool {
	return s.running
}

// Update advances the animation. Ticks arriving after Stop are dropped, which
// ends the tick loop.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.running {
		return s, nil
	}
	var cmd tea.Cmd
	s.dots, cmd = s.dots.Update(msg)
	return s, cmd
}

// View renders the label and dots, plus the elapsed time for slow requests.
func (s Spinner) View() string {
	if !s.running {
		return ""
	}
	out := s.theme.ThinkingText.Render(s.label) + s.dots.View()
	if elapsed := s.now().Sub(s.since); elapsed >= SlowRequestAfter {
		out += s.theme.Timestamp.Render(" (" + formatElapsed(elapsed) + ")")
	}
	return out
}
