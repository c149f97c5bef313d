// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/clipboard"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/speech"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/store"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/components"
)

// OperationTimeout bounds every store operation started from the screen.
const OperationTimeout = 60 * time.Second

// =============================================================================
// STORE COMMANDS
// =============================================================================

// LoadCmd loads the conversations of the signed-in identity.
func LoadCmd(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
		defer cancel()
		return LoadedMsg{Err: s.Load(ctx)}
	}
}

// CreateCmd creates a conversation and activates it.
func CreateCmd(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
		defer cancel()
		id, err := s.CreateConversation(ctx)
		return CreatedMsg{ID: id, Err: err}
	}
}

// DeleteCmd deletes one conversation.
func DeleteCmd(s *store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
		defer cancel()
		return DeletedMsg{ID: id, Err: s.DeleteConversation(ctx, id)}
	}
}

// DeleteAllCmd confirms a delete-all request.
func DeleteAllCmd(req *store.DeleteAllRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
		defer cancel()
		return DeleteAllDoneMsg{Err: req.Confirm(ctx)}
	}
}

// SendCmd sends text to a conversation.
func SendCmd(s *store.Store, conversationID, text string, fromDraft bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
		defer cancel()
		err := s.SendMessage(ctx, conversationID, text)
		return SentMsg{ConversationID: conversationID, Text: text, FromDraft: fromDraft, Err: err}
	}
}

// ActionCmd shortens or expands an AI reply.
func ActionCmd(s *store.Store, conversationID, messageID string, kind model.ActionKind) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), OperationTimeout)
		defer cancel()
		err := s.ApplyAction(ctx, conversationID, messageID, kind)
		return ActionDoneMsg{MessageID: messageID, Kind: kind, Err: err}
	}
}

// CopyCmd copies text to the clipboard.
func CopyCmd(c *clipboard.Copier, messageID, text string) tea.Cmd {
	return func() tea.Msg {
		method, err := c.Copy(text)
		return CopiedMsg{MessageID: messageID, Method: method, Err: err}
	}
}

// =============================================================================
// SPEECH COMMANDS
// =============================================================================

// StartSpeechCmd starts listening.
func StartSpeechCmd(c *speech.Capture) tea.Cmd {
	return func() tea.Msg {
		return SpeechStartedMsg{Err: c.Start(context.Background())}
	}
}

// StopSpeechCmd stops listening and returns the leftover interim text.
func StopSpeechCmd(c *speech.Capture) tea.Cmd {
	return func() tea.Msg {
		return SpeechStoppedMsg{Text: c.Stop()}
	}
}

// WaitSpeechCmd waits for the next capture update.
func WaitSpeechCmd(c *speech.Capture) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-c.Updates()
		if !ok {
			return nil
		}
		return SpeechUpdateMsg{Update: u}
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopSpeech()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Escape) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.DismissError):
		m.store.DismissError()
		cmd := m.refresh()
		return m, cmd

	case key.Matches(msg, m.keys.NewChat):
		return m, CreateCmd(m.store)

	case key.Matches(msg, m.keys.ToggleFocus):
		if m.focus == focusSidebar {
			m.setFocus(focusInput)
		} else {
			m.setFocus(focusSidebar)
		}
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.PrevReply):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.NextReply):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.Shorten):
		return m.applyAction(model.ActionShorten)

	case key.Matches(msg, m.keys.Expand):
		return m.applyAction(model.ActionExpand)

	case key.Matches(msg, m.keys.Copy):
		return m.copySelected()

	case key.Matches(msg, m.keys.Speech):
		return m.toggleSpeech()

	case key.Matches(msg, m.keys.Suggestion):
		return m.sendSuggestion(suggestionIndex(msg.String()))
	}

	if m.focus == focusSidebar {
		if key.Matches(msg, m.keys.Escape) && !m.sidebar.ConfirmingDeleteAll() {
			m.setFocus(focusInput)
			m.layout()
			return m, nil
		}
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		m.renderViewport()
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Escape):
		if m.selected >= 0 {
			m.selected = -1
			m.renderViewport()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SENDING
// =============================================================================

// submit sends the draft. Speech capture is stopped first so nothing heard
// is lost.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.listening {
		m.stopSpeech()
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	return m.send(text, true)
}

// sendSuggestion sends a suggestion as if it had been typed.
func (m Model) sendSuggestion(i int) (tea.Model, tea.Cmd) {
	conv := m.activeConversation()
	if i < 0 || i >= len(Suggestions) || conv == nil || !conv.IsEmpty() {
		return m, nil
	}
	return m.send(Suggestions[i], false)
}

// send submits text to the active conversation. The draft is left in place
// until the send resolves.
func (m Model) send(text string, fromDraft bool) (tea.Model, tea.Cmd) {
	conv := m.activeConversation()
	if conv == nil {
		cmd := m.showToast("Start a new chat first", components.ToastKindStatus)
		return m, cmd
	}
	if m.isSending() {
		return m, nil
	}

	m.selected = -1
	spin := m.spinner.Start()
	return m, tea.Batch(SendCmd(m.store, conv.ID, text, fromDraft), spin)
}

// handleSent settles the draft once a send from it resolved.
func (m Model) handleSent(msg SentMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logging.Debugf("send to %s failed: %v", msg.ConversationID, msg.Err)
	}
	if msg.FromDraft {
		m.settleDraft(msg.Text, msg.Err == nil)
	}
	cmd := m.refresh()
	return m, cmd
}

// =============================================================================
// MESSAGE ACTIONS
// =============================================================================

// moveSelection selects the previous (dir < 0) or next AI reply. With no
// selection, up starts from the newest reply.
func (m *Model) moveSelection(dir int) {
	conv := m.activeConversation()
	if conv == nil {
		return
	}

	i := m.selected
	if i < 0 {
		if dir < 0 {
			i = len(conv.Messages)
		} else {
			i = -1
		}
	}
	for i += dir; i >= 0 && i < len(conv.Messages); i += dir {
		if conv.Messages[i].IsFromAI() {
			m.selected = i
			m.renderViewport()
			m.scrollToSelected()
			return
		}
	}
}

func (m Model) applyAction(kind model.ActionKind) (tea.Model, tea.Cmd) {
	msg := m.selectedMessage()
	if msg == nil {
		cmd := m.showToast("Select a reply first (alt+up)", components.ToastKindStatus)
		return m, cmd
	}
	if !msg.IsConfirmed() {
		cmd := m.showToast("This reply can't be changed", components.ToastKindStatus)
		return m, cmd
	}
	if m.applyingID != "" {
		return m, nil
	}

	m.applyingID = msg.ID()
	m.renderViewport()
	return m, ActionCmd(m.store, m.snap.ActiveID, msg.ID(), kind)
}

func (m Model) handleActionDone(msg ActionDoneMsg) (tea.Model, tea.Cmd) {
	if m.applyingID == msg.MessageID {
		m.applyingID = ""
	}
	cmd := m.refresh()
	// Backend failures are shown in the error banner by the store.
	if msg.Err != nil && errors.Is(msg.Err, api.ErrValidation) {
		toast := m.showToast(store.MsgActionFailed, components.ToastKindError)
		return m, tea.Batch(cmd, toast)
	}
	return m, cmd
}

func (m Model) copySelected() (tea.Model, tea.Cmd) {
	msg := m.selectedMessage()
	if msg == nil {
		cmd := m.showToast("Select a reply first (alt+up)", components.ToastKindStatus)
		return m, cmd
	}
	return m, CopyCmd(m.copier, msg.ID(), msg.Content)
}

func (m Model) handleCopied(msg CopiedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logging.Warnf("copy failed: %v", msg.Err)
		cmd := m.showToast("Copy failed", components.ToastKindError)
		return m, cmd
	}
	logging.Debugf("copied reply %s via %s", msg.MessageID, msg.Method)

	t := components.NewCopiedToast()
	m.toast = &t
	m.copiedID = msg.MessageID
	m.renderViewport()
	return m, t.ExpireCmd()
}

// showToast replaces the current toast and schedules its expiry.
func (m *Model) showToast(text string, kind components.ToastKind) tea.Cmd {
	t := components.NewToast(text, kind, components.DefaultToastDuration)
	m.toast = &t
	if m.copiedID != "" {
		m.copiedID = ""
		m.renderViewport()
	}
	return t.ExpireCmd()
}

// =============================================================================
// DELETE ALL
// =============================================================================

func (m Model) handleDeleteAllRequest() (tea.Model, tea.Cmd) {
	req, err := m.store.RequestDeleteAll()
	if err != nil {
		cmd := m.refresh()
		return m, cmd
	}
	m.deleteAll.Cancel()
	m.deleteAll = req
	cmd := m.refresh()
	return m, cmd
}

// =============================================================================
// SPEECH
// =============================================================================

func (m Model) toggleSpeech() (tea.Model, tea.Cmd) {
	if m.speech == nil || !m.speech.Available() {
		cmd := m.showToast(speechUnavailableText, components.ToastKindError)
		return m, cmd
	}
	if m.listening {
		m.listening = false
		m.input.Placeholder = Placeholder
		return m, StopSpeechCmd(m.speech)
	}
	return m, StartSpeechCmd(m.speech)
}

const speechUnavailableText = "Speech recognition is not available"

func (m Model) handleSpeechStarted(msg SpeechStartedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		text := "Could not start speech recognition"
		if errors.Is(msg.Err, speech.ErrUnavailable) {
			text = speechUnavailableText
		}
		logging.Warnf("speech start failed: %v", msg.Err)
		cmd := m.showToast(text, components.ToastKindError)
		return m, cmd
	}

	m.listening = true
	if !m.isSending() {
		m.input.Placeholder = PlaceholderListening
	}
	if m.speechWaiting {
		return m, nil
	}
	m.speechWaiting = true
	return m, WaitSpeechCmd(m.speech)
}

func (m Model) handleSpeechUpdate(msg SpeechUpdateMsg) (tea.Model, tea.Cmd) {
	m.speechWaiting = false
	u := msg.Update

	if u.Final != "" {
		m.appendDraft(u.Final)
	}

	if u.State == speech.StateListening {
		m.listening = true
		m.interim = u.Interim
		m.speechWaiting = true
		return m, WaitSpeechCmd(m.speech)
	}

	m.listening = false
	m.interim = ""
	if !m.isSending() {
		m.input.Placeholder = Placeholder
	}
	if u.Err != nil {
		cmd := m.showToast("Speech recognition stopped", components.ToastKindError)
		return m, cmd
	}
	return m, nil
}

// stopSpeech stops listening synchronously and commits the interim text.
func (m *Model) stopSpeech() {
	if m.speech == nil || !m.listening {
		return
	}
	m.appendDraft(m.speech.Stop())
	m.listening = false
	m.interim = ""
}
