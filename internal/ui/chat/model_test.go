// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/speech"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/store"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/components"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/sidebar"
)

func TestEmptyConversationShowsWelcome(t *testing.T) {
	h := newHarness(t, nil)

	view := h.m.View()
	assert.Contains(t, view, WelcomeTitle)
	for _, s := range Suggestions {
		assert.Contains(t, view, s)
	}
	assert.Contains(t, view, sidebar.Title)
}

func TestSubmitSendsDraft(t *testing.T) {
	h := newHarness(t, nil)

	h.typeText(t, "hello")
	assert.Equal(t, "hello", h.m.input.Value())

	h.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, h.m.input.Value())
	active := h.store.Snapshot().Active()
	require.NotNil(t, active)
	require.Len(t, active.Messages, 2)
	assert.Equal(t, "hello", active.Messages[0].Content)
	assert.Contains(t, h.m.View(), "reply to hello")
}

func TestSubmitIgnoresBlankDraft(t *testing.T) {
	h := newHarness(t, nil)

	h.typeText(t, "   ")
	_, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestSendFailureRestoresDraft(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.sendErr = errors.New("boom")

	h.typeText(t, "hello")
	h.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "hello", h.m.input.Value())
	assert.Equal(t, store.MsgSendFailed, h.m.snap.Err)
	view := h.m.View()
	assert.Contains(t, view, store.MsgSendFailed)
	assert.Contains(t, view, components.DismissHint)

	// Nothing pending is left behind.
	assert.Empty(t, h.store.Snapshot().Active().Messages)

	h.send(t, tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.Empty(t, h.m.snap.Err)
	assert.NotContains(t, h.m.View(), components.DismissHint)
}

func TestDraftKeptUntilSendResolves(t *testing.T) {
	h := newHarness(t, nil)

	h.typeText(t, "hello")
	next, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	h.m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, "hello", h.m.input.Value())

	// Speech lands while the send is in flight.
	h.send(t, SpeechUpdateMsg{Update: speech.Update{State: speech.StateIdle, Final: "more"}})
	assert.Equal(t, "hello more", h.m.input.Value())

	h.send(t, SentMsg{ConversationID: h.store.ActiveID(), Text: "hello", FromDraft: true, Err: errors.New("boom")})
	assert.Equal(t, "hello more", h.m.input.Value())

	h.send(t, SentMsg{ConversationID: h.store.ActiveID(), Text: "hello", FromDraft: true})
	assert.Equal(t, "more", h.m.input.Value())
}

func TestFailedSendPutsTextBackInFront(t *testing.T) {
	h := newHarness(t, nil)

	h.m.input.SetValue("later")
	h.send(t, SentMsg{ConversationID: h.store.ActiveID(), Text: "hello", FromDraft: true, Err: errors.New("boom")})
	assert.Equal(t, "hello later", h.m.input.Value())

	h.m.input.SetValue("")
	h.send(t, SentMsg{ConversationID: h.store.ActiveID(), Text: "hello", FromDraft: true, Err: errors.New("boom")})
	assert.Equal(t, "hello", h.m.input.Value())
}

func TestFailedSuggestionLeavesDraftAlone(t *testing.T) {
	h := newHarness(t, nil)

	h.m.input.SetValue("mine")
	h.send(t, SentMsg{ConversationID: h.store.ActiveID(), Text: Suggestions[0], Err: errors.New("boom")})
	assert.Equal(t, "mine", h.m.input.Value())
}

func TestInputDisabledWhileSending(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.sendGate = make(chan struct{})

	h.typeText(t, "hello")
	next, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	h.m = next.(Model)
	require.NotNil(t, cmd)

	// Run the batch by hand so the send can block on the gate.
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	results := make(chan tea.Msg, len(batch))
	for _, c := range batch {
		if c == nil {
			continue
		}
		go func(c tea.Cmd) { results <- c() }(c)
	}

	activeID := h.store.ActiveID()
	require.Eventually(t, func() bool {
		return h.store.Snapshot().IsSending(activeID)
	}, time.Second, 5*time.Millisecond)

	h.send(t, StoreChangedMsg{})
	assert.False(t, h.m.input.Focused())
	assert.Equal(t, PlaceholderSending, h.m.input.Placeholder)
	assert.Contains(t, h.m.View(), "sending...")

	// A second submit is ignored while the first is in flight.
	_, again := h.m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	close(h.backend.sendGate)
	var sent SentMsg
	require.Eventually(t, func() bool {
		select {
		case msg := <-results:
			if s, ok := msg.(SentMsg); ok {
				sent = s
				return true
			}
		default:
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	h.send(t, sent)
	assert.True(t, h.m.input.Focused())
	assert.Equal(t, Placeholder, h.m.input.Placeholder)
}

func TestSuggestionSendsDirectly(t *testing.T) {
	h := newHarness(t, nil)

	h.send(t, altKey("2"))

	active := h.store.Snapshot().Active()
	require.Len(t, active.Messages, 2)
	assert.Equal(t, Suggestions[1], active.Messages[0].Content)
}

func TestSuggestionIgnoredInNonEmptyChat(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})

	_, cmd := h.m.Update(altKey("1"))
	assert.Nil(t, cmd)
}

func TestSelectReplyAndApplyAction(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})

	h.send(t, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	assert.Equal(t, 1, h.m.selected)
	assert.Contains(t, h.m.View(), model.ActionShorten.Label())

	h.send(t, altKey("s"))

	active := h.store.Snapshot().Active()
	assert.Equal(t, "c1-a", active.Messages[1].ID())
	assert.Equal(t, "rewritten by shorten", active.Messages[1].Content)
	assert.Empty(t, h.m.applyingID)
	assert.Equal(t, 1, h.backend.actions)
}

func TestActionWithoutSelectionShowsToast(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})

	h.send(t, altKey("e"))

	require.NotNil(t, h.m.toast)
	assert.Contains(t, h.m.toast.Message, "Select a reply")
	assert.Zero(t, h.backend.actions)
}

func TestEscapeClearsSelection(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})

	h.send(t, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	require.Equal(t, 1, h.m.selected)
	h.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, -1, h.m.selected)
}

func TestCreatorReplyIsNotActionable(t *testing.T) {
	h := newHarness(t, nil)

	h.typeText(t, "Who created you?")
	h.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	active := h.store.Snapshot().Active()
	require.Len(t, active.Messages, 2)
	assert.Equal(t, store.CreatorAnswer, active.Messages[1].Content)

	h.send(t, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	require.Equal(t, 1, h.m.selected)
	h.send(t, altKey("s"))

	assert.Zero(t, h.backend.actions)
	require.NotNil(t, h.m.toast)
	assert.Contains(t, h.m.toast.Message, "can't be changed")
}

func TestCopyShowsCopiedUntilExpiry(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})

	h.send(t, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	h.send(t, altKey("c"))

	assert.Equal(t, []string{"answer text"}, h.copied)
	require.NotNil(t, h.m.toast)
	assert.Equal(t, components.CopiedToastDuration, h.m.toast.Duration)
	assert.Contains(t, h.m.View(), CopiedText)

	h.send(t, components.ToastExpiredMsg{ID: h.m.toast.ID})
	assert.Nil(t, h.m.toast)
	assert.NotContains(t, h.m.View(), CopiedText)
}

func TestStaleToastExpiryIgnored(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})

	h.send(t, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	h.send(t, altKey("c"))
	require.NotNil(t, h.m.toast)

	h.send(t, components.ToastExpiredMsg{ID: h.m.toast.ID - 1})
	assert.NotNil(t, h.m.toast)
}

func TestNewChatShortcut(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})

	h.send(t, tea.KeyMsg{Type: tea.KeyCtrlN})

	snap := h.store.Snapshot()
	require.Len(t, snap.Conversations, 2)
	assert.NotEqual(t, "c1", snap.ActiveID)
	assert.Contains(t, h.m.View(), WelcomeTitle)
}

func TestSidebarSelectSwitchesConversation(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1"), exchange("c2")})
	require.Equal(t, "c1", h.store.ActiveID())

	h.send(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, h.m.sidebar.Focused())
	assert.False(t, h.m.input.Focused())

	h.send(t, runesKey("j"))
	h.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "c2", h.store.ActiveID())
	assert.False(t, h.m.sidebar.Focused())
	assert.True(t, h.m.input.Focused())
}

func TestSidebarDeleteAllConfirm(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1"), exchange("c2")})

	h.send(t, tea.KeyMsg{Type: tea.KeyTab})
	h.send(t, runesKey("D"))

	assert.True(t, h.m.snap.ConfirmingDeleteAll)
	assert.Contains(t, h.m.View(), sidebar.ConfirmAllText)

	h.send(t, runesKey("y"))

	assert.Empty(t, h.store.Snapshot().Conversations)
	assert.Contains(t, h.m.View(), NoChatText)
	assert.Contains(t, h.m.View(), StartNewChatButton)
}

func TestSidebarDeleteAllCancel(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})

	h.send(t, tea.KeyMsg{Type: tea.KeyTab})
	h.send(t, runesKey("D"))
	require.True(t, h.m.snap.ConfirmingDeleteAll)

	h.send(t, tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, h.m.snap.ConfirmingDeleteAll)
	assert.Nil(t, h.m.deleteAll)
	assert.Len(t, h.store.Snapshot().Conversations, 1)
	// Esc while confirming cancels instead of leaving the sidebar.
	assert.True(t, h.m.sidebar.Focused())
}

func TestSidebarDeleteOne(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1"), exchange("c2")})

	h.send(t, tea.KeyMsg{Type: tea.KeyTab})
	h.send(t, runesKey("d"))
	assert.Len(t, h.store.Snapshot().Conversations, 2)
	h.send(t, runesKey("d"))

	snap := h.store.Snapshot()
	require.Len(t, snap.Conversations, 1)
	assert.Equal(t, "c2", snap.ActiveID)
}

func TestLogoutFromSidebar(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})

	_, cmd := h.m.Update(sidebar.LogoutMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, LogoutMsg{}, cmd())
}

func TestQuitKey(t *testing.T) {
	h := newHarness(t, nil)

	_, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestHelpOverlay(t *testing.T) {
	h := newHarness(t, nil)

	h.send(t, tea.KeyMsg{Type: tea.KeyF1})
	view := h.m.View()
	assert.Contains(t, view, "Keyboard shortcuts")
	assert.Contains(t, view, "concise it")

	h.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotContains(t, h.m.View(), "Keyboard shortcuts")
}

// =============================================================================
// SPEECH
// =============================================================================

func TestSpeechUnavailable(t *testing.T) {
	h := newHarness(t, nil)

	h.send(t, tea.KeyMsg{Type: tea.KeyCtrlT})

	require.NotNil(t, h.m.toast)
	assert.Equal(t, speechUnavailableText, h.m.toast.Message)
	assert.False(t, h.m.listening)
}

func TestSpeechUpdatesDraft(t *testing.T) {
	rec := &fakeRecognizer{events: make(chan speech.Event)}
	h := newHarness(t, nil, withSpeech(speech.NewCapture(rec)))

	h.typeText(t, "draft")

	// Updates are fed directly; the wait commands they return are not run.
	next, _ := h.m.Update(SpeechUpdateMsg{Update: speech.Update{State: speech.StateListening, Interim: "xyzzy"}})
	h.m = next.(Model)
	assert.True(t, h.m.listening)
	assert.Contains(t, h.m.View(), "xyzzy")
	assert.Equal(t, "draft", h.m.input.Value())

	next, _ = h.m.Update(SpeechUpdateMsg{Update: speech.Update{State: speech.StateListening, Final: "hello there"}})
	h.m = next.(Model)
	assert.Equal(t, "draft hello there", h.m.input.Value())
	assert.Empty(t, h.m.interim)

	next, _ = h.m.Update(SpeechUpdateMsg{Update: speech.Update{State: speech.StateIdle, Err: errors.New("mic gone")}})
	h.m = next.(Model)
	assert.False(t, h.m.listening)
	require.NotNil(t, h.m.toast)
	assert.Equal(t, components.ToastKindError, h.m.toast.Kind)
}

func TestSpeechStoppedCommitsInterim(t *testing.T) {
	h := newHarness(t, nil)
	h.m.listening = true
	h.m.interim = "half a sen"

	h.send(t, SpeechStoppedMsg{Text: "half a sentence"})

	assert.False(t, h.m.listening)
	assert.Empty(t, h.m.interim)
	assert.Equal(t, "half a sentence", h.m.input.Value())
}

// =============================================================================
// RENDERING
// =============================================================================

func TestPendingMessageRendered(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.sendGate = make(chan struct{})
	defer close(h.backend.sendGate)

	activeID := h.store.ActiveID()
	go func() { _ = h.store.SendMessage(context.Background(), activeID, "in flight") }()
	require.Eventually(t, func() bool {
		return h.store.Snapshot().IsSending(activeID)
	}, time.Second, 5*time.Millisecond)

	h.send(t, StoreChangedMsg{})
	view := h.m.View()
	assert.Contains(t, view, "in flight")
	assert.Contains(t, view, "sending...")
}

func TestMarkdownRendering(t *testing.T) {
	conv := exchange("c1")
	conv.Messages[1].Content = "This is **bold** text"
	h := newHarness(t, []model.Conversation{conv}, withMarkdown())

	view := h.m.View()
	assert.Contains(t, view, "bold")
	assert.NotContains(t, view, "**bold**")
}

func TestPlainRenderingKeepsMarkup(t *testing.T) {
	conv := exchange("c1")
	conv.Messages[1].Content = "This is **bold** text"
	h := newHarness(t, []model.Conversation{conv})

	assert.Contains(t, h.m.View(), "**bold**")
}

func TestNarrowLayoutHidesSidebar(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})
	h.send(t, tea.WindowSizeMsg{Width: 50, Height: 30})

	assert.NotContains(t, h.m.View(), sidebar.NewChatLabel)

	h.send(t, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, h.m.View(), sidebar.NewChatLabel)
}

func TestViewFitsHeight(t *testing.T) {
	h := newHarness(t, []model.Conversation{exchange("c1")})
	h.send(t, tea.WindowSizeMsg{Width: 120, Height: 30})

	lines := strings.Split(h.m.View(), "\n")
	assert.LessOrEqual(t, len(lines), 30)
}

func TestAppendDraft(t *testing.T) {
	h := newHarness(t, nil)

	h.m.appendDraft("  ")
	assert.Empty(t, h.m.input.Value())
	h.m.appendDraft("one")
	h.m.appendDraft("two")
	assert.Equal(t, "one two", h.m.input.Value())
}

func TestSuggestionIndex(t *testing.T) {
	assert.Equal(t, 0, suggestionIndex("alt+1"))
	assert.Equal(t, 3, suggestionIndex("alt+4"))
	assert.Equal(t, -1, suggestionIndex("alt+5"))
}
