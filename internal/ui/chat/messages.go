// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/clipboard"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/speech"
)

// =============================================================================
// STORE MESSAGES
// =============================================================================

// StoreChangedMsg is sent whenever the conversation store notifies its
// subscribers. The chat screen re-reads the snapshot.
type StoreChangedMsg struct{}

// LoadedMsg reports the end of a conversation load.
type LoadedMsg struct {
	Err error
}

// CreatedMsg reports the end of a create.
type CreatedMsg struct {
	ID  string
	Err error
}

// DeletedMsg reports the end of a delete.
type DeletedMsg struct {
	ID  string
	Err error
}

// DeleteAllDoneMsg reports the end of a confirmed delete-all.
type DeleteAllDoneMsg struct {
	Err error
}

// =============================================================================
// SEND AND ACTION MESSAGES
// =============================================================================

// SentMsg reports the end of a send. Text is the submitted text; FromDraft
// is set when it came from the input rather than a suggestion.
type SentMsg struct {
	ConversationID string
	Text           string
	FromDraft      bool
	Err            error
}

// ActionDoneMsg reports the end of a shorten or expand.
type ActionDoneMsg struct {
	MessageID string
	Kind      model.ActionKind
	Err       error
}

// CopiedMsg reports the end of a copy.
type CopiedMsg struct {
	MessageID string
	Method    clipboard.Method
	Err       error
}

// =============================================================================
// SPEECH MESSAGES
// =============================================================================

// SpeechStartedMsg reports the result of starting speech capture.
type SpeechStartedMsg struct {
	Err error
}

// SpeechStoppedMsg carries the interim text left when the user stopped
// listening.
type SpeechStoppedMsg struct {
	Text string
}

// SpeechUpdateMsg wraps an update from the capture.
type SpeechUpdateMsg struct {
	Update speech.Update
}

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// LogoutMsg asks the application to sign out and show the login screen.
type LogoutMsg struct{}
