// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/components"
)

// Welcome texts.
const (
	WelcomeTitle       = "Welcome to Pratham AI!"
	WelcomeText        = "Ask me anything, or try one of these:"
	NoChatTitle        = "Welcome to Pratham AI"
	NoChatText         = "Start a new chat or select an existing one"
	StartNewChatButton = "Start New Chat"
	LoadingText        = "Loading chats..."
	CopiedText         = "Copied!"
	ApplyingText       = "Applying..."
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// renderChat renders the complete screen.
// Layout: header + [error banner] + sidebar|messages + input + status bar.
// The body height is computed in layout() from the other parts.
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	parts := []string{m.renderHeader()}
	if banner := m.renderBanner(); banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, m.renderBody(), m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	left := m.theme.HeaderBrand.Render("Pratham AI")
	if conv := m.activeConversation(); conv != nil && m.width >= 60 {
		left += m.theme.HeaderUser.Render("  " + conv.DisplayTitle())
	}
	right := m.theme.HeaderUser.Render(m.username)

	inner := m.width - 2
	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).MaxWidth(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderBanner() string {
	return components.RenderErrorBanner(m.theme, m.snap.Err, m.width)
}

func (m Model) renderBody() string {
	if m.theme.SidebarWidth() == 0 {
		if m.focus == focusSidebar {
			return m.sidebar.View()
		}
		return m.viewport.View()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), m.viewport.View())
}

// renderInput renders the input line with any interim speech after the
// draft.
func (m Model) renderInput() string {
	line := m.input.View()
	if m.listening {
		line = m.theme.Listening.Render("[mic] ") + line
	}
	if m.interim != "" {
		line += " " + m.theme.Interim.Render(m.interim)
	}
	width := m.mainWidth()
	return m.theme.InputContainer.Width(width).MaxWidth(width).Render(line)
}

func (m Model) renderStatusBar() string {
	bar := *m.statusBar
	bar.Toast = m.toast

	switch {
	case m.snap.Err != "":
		bar.Status = components.StatusError
	case m.listening:
		bar.Status = components.StatusListening
	case m.isSending():
		bar.Status = components.StatusSending
	case m.snap.Loading:
		bar.Status = components.StatusLoading
	default:
		bar.Status = components.StatusReady
	}

	if m.focus == focusSidebar {
		bar.Shortcuts = shortcuts(m.sidebar.Keys().ShortHelp())
	} else {
		bar.Shortcuts = shortcuts(m.keys.ShortHelp())
	}
	return bar.View()
}

func (m Model) renderHelp() string {
	title := m.theme.WelcomeTitle.Render("Keyboard shortcuts")
	chatHelp := m.help.View(m.keys)
	sidebarHelp := m.help.View(m.sidebar.Keys())
	footer := m.theme.ShortcutDesc.Render("Press Esc or F1 to close")

	body := lipgloss.JoinVertical(lipgloss.Left,
		title, "",
		m.theme.SidebarTitle.Render("Chat"), chatHelp, "",
		m.theme.SidebarTitle.Render("Chats list (Tab)"), sidebarHelp, "",
		footer,
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderViewport re-renders the conversation into the viewport and follows
// the bottom when the conversation or its length changed.
func (m *Model) renderViewport() {
	content, offsets := m.renderMessages(m.viewport.Width)
	m.offsets = offsets
	m.viewport.SetContent(content)

	id, count := "", 0
	if conv := m.activeConversation(); conv != nil {
		id, count = conv.ID, len(conv.Messages)
	}
	if id != m.shownID || count != m.shownCount {
		m.viewport.GotoBottom()
	}
	m.shownID, m.shownCount = id, count
}

// scrollToSelected brings the selected reply into view.
func (m *Model) scrollToSelected() {
	if m.selected < 0 || m.selected >= len(m.offsets) {
		return
	}
	top := m.offsets[m.selected]
	if top < m.viewport.YOffset || top >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(top)
	}
}

// renderMessages renders the active conversation and returns the first line
// of every message.
func (m Model) renderMessages(width int) (string, []int) {
	conv := m.activeConversation()
	switch {
	case conv == nil && m.snap.Loading:
		return m.center(width, m.theme.WelcomeText.Render(LoadingText)), nil
	case conv == nil:
		return m.renderNoChat(width), nil
	case conv.IsEmpty() && !m.isSending():
		return m.renderWelcome(width), nil
	}

	var b strings.Builder
	offsets := make([]int, len(conv.Messages))
	line := 0
	for i := range conv.Messages {
		block := m.renderMessage(i, conv.Messages[i], width)
		offsets[i] = line
		b.WriteString(block)
		b.WriteString("\n\n")
		line += lipgloss.Height(block) + 1
	}
	if m.isSending() {
		b.WriteString("  " + m.spinner.View())
	}
	return strings.TrimRight(b.String(), "\n"), offsets
}

func (m Model) renderMessage(i int, msg model.Message, width int) string {
	bubbleWidth := width * 3 / 4
	if bubbleWidth < 20 {
		bubbleWidth = width - 2
	}

	header := m.theme.SenderName.Render(msg.Sender.DisplayName())
	if !msg.Timestamp.IsZero() {
		header += " " + m.theme.Timestamp.Render(formatTimestamp(msg.Timestamp))
	}
	if msg.IsPending() {
		header += " " + m.theme.PendingMark.Render("sending...")
	}

	if !msg.IsFromAI() {
		bubble := m.theme.UserBubble.Width(bubbleWidth - 2).Render(msg.Content)
		block := lipgloss.JoinVertical(lipgloss.Right, header, bubble)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}

	style := m.theme.AIBubble
	switch {
	case i == m.selected:
		style = m.theme.AIBubbleSelected
	case !msg.IsConfirmed():
		style = m.theme.LocalBubble
	}
	// Border and padding take four columns.
	content := m.markdown.Render(msg.Content, bubbleWidth-4)
	bubble := style.Width(bubbleWidth - 2).Render(content)

	parts := []string{header, bubble}
	if hint := m.renderActionHint(i, msg); hint != "" {
		parts = append(parts, hint)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderActionHint shows the actions of the selected reply, or the copy
// confirmation while it lasts.
func (m Model) renderActionHint(i int, msg model.Message) string {
	switch {
	case msg.ID() == m.copiedID:
		return m.theme.Copied.Render(CopiedText)
	case msg.ID() == m.applyingID:
		return m.theme.ActionHint.Render(ApplyingText)
	case i != m.selected:
		return ""
	case msg.IsConfirmed():
		return m.theme.ActionHint.Render(fmt.Sprintf("[%s] %s  [%s] %s  [%s] Copy",
			m.keys.Shorten.Help().Key, model.ActionShorten.Label(),
			m.keys.Expand.Help().Key, model.ActionExpand.Label(),
			m.keys.Copy.Help().Key))
	default:
		return m.theme.ActionHint.Render(fmt.Sprintf("[%s] Copy", m.keys.Copy.Help().Key))
	}
}

func (m Model) renderWelcome(width int) string {
	lines := []string{
		m.theme.WelcomeTitle.Render(WelcomeTitle),
		m.theme.WelcomeText.Render(WelcomeText),
		"",
	}
	for i, s := range Suggestions {
		lines = append(lines, m.theme.Suggestion.Render(fmt.Sprintf("[alt+%d] %s", i+1, s)))
	}
	return m.center(width, lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderNoChat(width int) string {
	block := lipgloss.JoinVertical(lipgloss.Center,
		m.theme.WelcomeTitle.Render(NoChatTitle),
		m.theme.WelcomeText.Render(NoChatText),
		"",
		m.theme.Button.Render("[ctrl+n] "+StartNewChatButton),
	)
	return m.center(width, block)
}

func (m Model) center(width int, block string) string {
	height := m.viewport.Height
	if height < lipgloss.Height(block) {
		height = lipgloss.Height(block)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, block)
}
