// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sidebar renders the conversation list of the chat screen.
package sidebar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/store"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/styles"
)

// Texts shown by the sidebar.
const (
	Title          = "Pratham AI"
	NewChatLabel   = "New Chat"
	EmptyText      = "No chat history yet"
	ConfirmAllText = "Delete all chats?"
	ConfirmYes     = "Yes, delete all"
	ConfirmNo      = "Cancel"
	DeleteAllLabel = "Delete All Chats"
	DeleteArmed    = "press d again to delete"
)

// Model is the sidebar state.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	width   int
	height  int
	focused bool

	conversations []model.Conversation
	activeID      string
	sending       map[string]bool
	confirmingAll bool

	cursor int
	// armedID is the conversation a first "d" press marked for deletion.
	armedID string

	now func() time.Time
}

// New creates an empty sidebar.
func New(theme *styles.Theme) Model {
	return Model{
		theme:  theme,
		keys:   DefaultKeyMap(),
		width:  32,
		height: 20,
		now:    time.Now,
	}
}

// Keys returns the sidebar bindings.
func (m Model) Keys() KeyMap {
	return m.keys
}

// SetSize sets the rendered size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Focus gives the sidebar keyboard focus and puts the cursor on the active
// conversation.
func (m *Model) Focus() {
	m.focused = true
	if i := m.indexOf(m.activeID); i >= 0 {
		m.cursor = i
	}
}

// Blur removes keyboard focus and disarms a pending delete.
func (m *Model) Blur() {
	m.focused = false
	m.armedID = ""
}

// Focused reports whether the sidebar has keyboard focus.
func (m Model) Focused() bool {
	return m.focused
}

// Cursor returns the index under the cursor.
func (m Model) Cursor() int {
	return m.cursor
}

// ConfirmingDeleteAll reports whether the delete-all prompt is showing.
func (m Model) ConfirmingDeleteAll() bool {
	return m.confirmingAll
}

// SetSnapshot replaces the displayed state.
func (m *Model) SetSnapshot(snap store.Snapshot) {
	m.conversations = snap.Conversations
	m.activeID = snap.ActiveID
	m.sending = snap.Sending
	m.confirmingAll = snap.ConfirmingDeleteAll

	if m.armedID != "" && m.indexOf(m.armedID) < 0 {
		m.armedID = ""
	}
	if m.cursor >= len(m.conversations) {
		m.cursor = len(m.conversations) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) indexOf(id string) int {
	for i := range m.conversations {
		if m.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles keys while focused. Requests are returned as commands
// producing the intent messages in messages.go.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}

	if m.confirmingAll {
		switch {
		case key.Matches(keyMsg, m.keys.Confirm):
			return m, emit(DeleteAllConfirmMsg{})
		case key.Matches(keyMsg, m.keys.Cancel):
			return m, emit(DeleteAllCancelMsg{})
		}
		return m, nil
	}

	wasArmed := m.armedID
	m.armedID = ""

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.conversations)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Select):
		if id := m.cursorID(); id != "" {
			return m, emit(SelectMsg{ID: id})
		}
	case key.Matches(keyMsg, m.keys.New):
		return m, emit(NewChatMsg{})
	case key.Matches(keyMsg, m.keys.Delete):
		id := m.cursorID()
		if id == "" {
			return m, nil
		}
		if wasArmed == id {
			return m, emit(DeleteMsg{ID: id})
		}
		m.armedID = id
	case key.Matches(keyMsg, m.keys.DeleteAll):
		if len(m.conversations) > 0 {
			return m, emit(DeleteAllRequestMsg{})
		}
	case key.Matches(keyMsg, m.keys.Logout):
		return m, emit(LogoutMsg{})
	}
	return m, nil
}

func (m Model) cursorID() string {
	if m.cursor < 0 || m.cursor >= len(m.conversations) {
		return ""
	}
	return m.conversations[m.cursor].ID
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the sidebar.
func (m Model) View() string {
	if m.width <= 0 {
		return ""
	}
	inner := m.width - 2
	if inner < 8 {
		inner = 8
	}

	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render(Title))
	b.WriteString("\n")
	b.WriteString(m.theme.SidebarButton.Render("[n] " + NewChatLabel))
	b.WriteString("\n\n")

	used := 4
	footer := m.footer(inner)
	footerLines := lipgloss.Height(footer)
	available := m.height - used - footerLines - 1

	if len(m.conversations) == 0 {
		b.WriteString(m.theme.SidebarEmpty.Render(EmptyText))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderList(inner, available))
	}

	body := b.String()
	if pad := m.height - lipgloss.Height(body) - footerLines; pad > 0 {
		body += strings.Repeat("\n", pad)
	}
	body += footer

	return m.theme.Sidebar.Width(m.width).Height(m.height).MaxHeight(m.height).Render(body)
}

// renderList renders as many items as fit in height lines, keeping the
// cursor visible. Each item takes two lines.
func (m Model) renderList(width, height int) string {
	perItem := 2
	visible := height / perItem
	if visible < 1 {
		visible = 1
	}

	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(m.conversations) {
		end = len(m.conversations)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderItem(i, width))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderItem(i, width int) string {
	conv := m.conversations[i]

	marker := "  "
	if m.focused && i == m.cursor {
		marker = "> "
	}
	title := marker + truncate(conv.DisplayTitle(), width-2)

	style := m.theme.SidebarItem
	switch {
	case conv.ID == m.activeID:
		style = m.theme.SidebarItemActive
	case m.focused && i == m.cursor:
		style = m.theme.SidebarItemCursor
	}

	var meta string
	switch {
	case conv.ID == m.armedID:
		meta = DeleteArmed
	case m.sending[conv.ID]:
		meta = "sending..."
	default:
		meta = m.metaLine(conv)
	}

	return style.Render(title) + "\n" + m.theme.SidebarMeta.Render("  "+truncate(meta, width-2))
}

// metaLine shows the message count and the last activity.
func (m Model) metaLine(conv model.Conversation) string {
	count := conv.MessageCount()
	noun := "messages"
	if count == 1 {
		noun = "message"
	}

	ts := conv.CreatedAt
	if count > 0 {
		ts = conv.Messages[count-1].Timestamp
	}
	if ts.IsZero() {
		return fmt.Sprintf("%d %s", count, noun)
	}
	return fmt.Sprintf("%d %s · %s", count, noun, formatTimestamp(ts, m.now()))
}

func (m Model) footer(width int) string {
	if m.confirmingAll {
		return m.theme.SidebarConfirm.Render(ConfirmAllText) + "\n" +
			m.theme.SidebarButtonDanger.Render("[y] "+ConfirmYes) + "  " +
			m.theme.SidebarButton.Render("[n] "+ConfirmNo)
	}
	if len(m.conversations) == 0 {
		return m.theme.SidebarButton.Render("[L] Logout")
	}
	return m.theme.SidebarButtonDanger.Render(truncate("[D] "+DeleteAllLabel, width)) + "\n" +
		m.theme.SidebarButton.Render("[L] Logout")
}

// formatTimestamp formats t relative to now:
//   - Today: just time (e.g., "15:04")
//   - This week: day and time (e.g., "Mon 15:04")
//   - Older: date and time (e.g., "Jan 2 15:04")
func formatTimestamp(t, now time.Time) string {
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if now.Sub(t) < 7*24*time.Hour {
		return t.Format("Mon 15:04")
	}
	return t.Format("Jan 2 15:04")
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
