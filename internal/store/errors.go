// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"fmt"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
)

// Validation failures. Each is also matched by api.ErrValidation.
var (
	ErrNoIdentity          = errors.New("no active identity")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrNotActive           = errors.New("conversation is not the active one")
	ErrUnknownConversation = errors.New("unknown conversation")
	ErrUnknownMessage      = errors.New("unknown message")
	ErrNotConfirmed        = errors.New("message is not stored on the server")
	ErrSendInFlight        = errors.New("a message is already being sent")
	ErrStaleConfirmation   = errors.New("delete-all confirmation is no longer valid")
)

// User-facing error messages.
const (
	MsgLoadFailed      = "Failed to load chats"
	MsgCreateFailed    = "Failed to create new chat"
	MsgSendFailed      = "Failed to send message"
	MsgDeleteFailed    = "Failed to delete chat"
	MsgDeleteAllFailed = "Failed to delete all chats"
	MsgActionFailed    = "Failed to apply action"
	MsgSessionExpired  = "Session expired. Please login again."
	MsgLoginFailed     = "Failed to login. Please try again."
	MsgUsernameMissing = "Username is required"
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", api.ErrValidation, err)
}
