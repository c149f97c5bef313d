// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	// ToastKindStatus is an informational toast (cyan color)
	ToastKindStatus ToastKind = iota
	// ToastKindError is an error toast (rose color)
	ToastKindError
	// ToastKindSuccess is a success toast (emerald color)
	ToastKindSuccess
)

// CopiedToastDuration is how long "Copied!" stays visible.
const CopiedToastDuration = 2 * time.Second

// DefaultToastDuration is the auto-dismiss duration for status toasts.
const DefaultToastDuration = 4 * time.Second

var toastSeq atomic.Int64

// Toast is a short-lived notification.
type Toast struct {
	ID        int64
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// NewToast creates a toast of kind that lasts d.
func NewToast(message string, kind ToastKind, d time.Duration) Toast {
	return Toast{
		ID:        toastSeq.Add(1),
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
		Duration:  d,
	}
}

// NewCopiedToast is the confirmation shown after copying a message.
func NewCopiedToast() Toast {
	return NewToast("Copied!", ToastKindSuccess, CopiedToastDuration)
}

// IsExpired returns true if the toast should be dismissed.
func (t Toast) IsExpired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastExpiredMsg is delivered when a toast's duration has passed.
type ToastExpiredMsg struct {
	ID int64
}

// ExpireCmd fires ToastExpiredMsg for t once its duration has passed.
func (t Toast) ExpireCmd() tea.Cmd {
	id := t.ID
	return tea.Tick(t.Duration, func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a toast as a single line.
func RenderToast(t Toast) string {
	var color lipgloss.AdaptiveColor
	var icon string

	switch t.Kind {
	case ToastKindError:
		color, icon = styles.Rose, styles.StatusIndicators.Error
	case ToastKindSuccess:
		color, icon = styles.Emerald, styles.StatusIndicators.Success
	default:
		color, icon = styles.Cyan, styles.StatusIndicators.Active
	}

	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(icon + " " + t.Message)
}
