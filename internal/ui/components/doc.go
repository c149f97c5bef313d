// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides small reusable pieces of the Pratham AI TUI:
// the status bar, the error banner, transient toasts and the spinner.
//
// Components render from the shared styles package and keep no global
// state. Anything with a lifetime (toasts, spinners) exposes a tea.Cmd that
// the owning model schedules.
package components
