// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
)

// DeleteAllRequest is the first phase of deleting every conversation. Only
// Confirm issues the destructive call; a request can be confirmed once, and
// only while it is the store's outstanding request for the same identity.
type DeleteAllRequest struct {
	store    *Store
	id       uint64
	username string
}

// RequestDeleteAll starts the two-phase delete of all conversations. A new
// request supersedes any earlier one.
func (s *Store) RequestDeleteAll() (*DeleteAllRequest, error) {
	user, err := s.identity()
	if err != nil {
		s.setError(MsgSessionExpired)
		return nil, err
	}

	s.mu.Lock()
	s.deleteAllSeq++
	s.deleteAllID = s.deleteAllSeq
	req := &DeleteAllRequest{store: s, id: s.deleteAllID, username: user}
	s.unlockAndNotify()
	return req, nil
}

// Confirm deletes every conversation of the identity on the backend and then
// clears the local collection.
func (r *DeleteAllRequest) Confirm(ctx context.Context) error {
	if r == nil || r.store == nil {
		return invalid(ErrStaleConfirmation)
	}
	s := r.store

	s.mu.Lock()
	if s.deleteAllID != r.id {
		s.mu.Unlock()
		return invalid(ErrStaleConfirmation)
	}
	s.deleteAllID = 0
	epoch := s.epoch
	s.unlockAndNotify()

	if user, ok := s.session.Active(); !ok || user != r.username {
		return invalid(ErrStaleConfirmation)
	}

	if err := s.backend.DeleteAllConversations(ctx, r.username); err != nil && !errors.Is(err, api.ErrNotFound) {
		s.setError(api.UserMessage(err, MsgDeleteAllFailed))
		return err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}
	s.conversations = nil
	s.activeID = ""
	s.unlockAndNotify()
	return nil
}

// Cancel withdraws the request if it is still outstanding.
func (r *DeleteAllRequest) Cancel() {
	if r == nil || r.store == nil {
		return
	}
	s := r.store
	s.mu.Lock()
	if s.deleteAllID != r.id {
		s.mu.Unlock()
		return
	}
	s.deleteAllID = 0
	s.unlockAndNotify()
}
