// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the Pratham AI TUI.
//
// All colors are lipgloss AdaptiveColors, so the same palette works on light
// and dark terminals. NewTheme builds every style once; views read them from
// the shared *Theme.
//
// # Layout
//
// Width decides the layout mode. Narrow terminals (< 60 columns) hide the
// sidebar; medium and wide terminals show it at 24 and 32 columns.
package styles
