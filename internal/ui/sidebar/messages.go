// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package sidebar

// The sidebar never changes state itself. It reports what the user asked for
// and the chat screen runs the matching store operation.

// SelectMsg asks to activate a conversation.
type SelectMsg struct {
	ID string
}

// NewChatMsg asks to create a conversation.
type NewChatMsg struct{}

// DeleteMsg asks to delete a conversation.
type DeleteMsg struct {
	ID string
}

// DeleteAllRequestMsg starts the delete-all confirmation.
type DeleteAllRequestMsg struct{}

// DeleteAllConfirmMsg confirms the outstanding delete-all request.
type DeleteAllConfirmMsg struct{}

// DeleteAllCancelMsg withdraws the outstanding delete-all request.
type DeleteAllCancelMsg struct{}

// LogoutMsg asks to sign out.
type LogoutMsg struct{}
