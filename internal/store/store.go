// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store is the chat collection store: the in-memory list of
// conversations of the logged-in identity and the only code that mutates it.
//
// Sending a message is optimistic. A pending message is appended at once and
// is replaced by the confirmed user and AI messages when the backend answers,
// or removed again when it fails. Views never write to the store; they read
// a Snapshot and re-render when a subscriber callback fires.
//
// Every operation that can fail records one user-facing error string which
// replaces the previous one (see Snapshot.Err), and also returns the error
// so callers can react to it.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/session"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the subset of the API client the store depends on.
type Backend interface {
	Login(ctx context.Context, username string) (*api.LoginResult, error)
	ListConversations(ctx context.Context, username string) ([]model.Conversation, error)
	CreateConversation(ctx context.Context, username, title string) (*model.Conversation, error)
	SendMessage(ctx context.Context, username, chatID, content string) (*api.SendResult, error)
	DeleteConversation(ctx context.Context, username, chatID string) error
	DeleteAllConversations(ctx context.Context, username string) error
	ApplyAction(ctx context.Context, username, chatID, messageID string, kind model.ActionKind) (*model.Message, error)
}

// Session provides and changes the active identity.
type Session interface {
	Active() (string, bool)
	Login(username string) error
	Logout() error
}

// =============================================================================
// STORE
// =============================================================================

// Store holds the conversations of the active identity.
type Store struct {
	backend Backend
	session Session
	now     func() time.Time

	loads singleflight.Group

	mu            sync.Mutex
	conversations []model.Conversation
	activeID      string
	lastErr       string
	loading       bool
	loaded        bool
	sending       map[string]bool

	// epoch changes on Reset; completions from an older epoch are dropped.
	epoch uint64

	// deleteAllID is the outstanding DeleteAllRequest, 0 when none.
	deleteAllID  uint64
	deleteAllSeq uint64

	nextListener int
	listeners    map[int]func()
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for optimistic messages.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(backend Backend, sess Session, opts ...Option) *Store {
	s := &Store{
		backend:   backend,
		session:   sess,
		now:       time.Now,
		sending:   make(map[string]bool),
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to be called after every state change and returns
// a function that removes it. fn runs on the goroutine that made the change.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// unlockAndNotify releases mu and then calls every listener.
func (s *Store) unlockAndNotify() {
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// setError records msg as the current user-facing error.
func (s *Store) setError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.unlockAndNotify()
}

// identity returns the active username.
func (s *Store) identity() (string, error) {
	user, ok := s.session.Active()
	if !ok {
		return "", invalid(ErrNoIdentity)
	}
	return user, nil
}

// find returns the conversation with id. Caller must hold mu.
func (s *Store) find(id string) *model.Conversation {
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return &s.conversations[i]
		}
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

// Snapshot is an immutable copy of the store state.
type Snapshot struct {
	Conversations []model.Conversation
	ActiveID      string
	Err           string
	Loading       bool
	Loaded        bool
	// Sending holds the ids of conversations with a send in flight.
	Sending map[string]bool
	// ConfirmingDeleteAll is true while a DeleteAllRequest is outstanding.
	ConfirmingDeleteAll bool
}

// Active returns the active conversation, or nil.
func (snap Snapshot) Active() *model.Conversation {
	for i := range snap.Conversations {
		if snap.Conversations[i].ID == snap.ActiveID {
			return &snap.Conversations[i]
		}
	}
	return nil
}

// IsSending reports whether a send is in flight for conversation id.
func (snap Snapshot) IsSending(id string) bool {
	return snap.Sending[id]
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Conversations:       make([]model.Conversation, len(s.conversations)),
		ActiveID:            s.activeID,
		Err:                 s.lastErr,
		Loading:             s.loading,
		Loaded:              s.loaded,
		Sending:             make(map[string]bool, len(s.sending)),
		ConfirmingDeleteAll: s.deleteAllID != 0,
	}
	for i, c := range s.conversations {
		snap.Conversations[i] = c.Clone()
	}
	for id := range s.sending {
		snap.Sending[id] = true
	}
	return snap
}

// ActiveID returns the active conversation id, empty when none.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active conversation.
func (s *Store) Active() (model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.find(s.activeID)
	if c == nil {
		return model.Conversation{}, false
	}
	return c.Clone(), true
}

// PendingSend reports whether a send is in flight for conversation id.
func (s *Store) PendingSend(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending[id]
}

// Err returns the current user-facing error, empty when none.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// DismissError clears the current user-facing error.
func (s *Store) DismissError() {
	s.mu.Lock()
	if s.lastErr == "" {
		s.mu.Unlock()
		return
	}
	s.lastErr = ""
	s.unlockAndNotify()
}

// Reset drops all state. In-flight operations complete without effect.
func (s *Store) Reset() {
	s.mu.Lock()
	s.epoch++
	s.conversations = nil
	s.activeID = ""
	s.lastErr = ""
	s.loading = false
	s.loaded = false
	s.sending = make(map[string]bool)
	s.deleteAllID = 0
	s.unlockAndNotify()
}

// =============================================================================
// SIGN-IN
// =============================================================================

// SignIn logs username in with the backend and activates the identity. When
// the identity has no conversations yet one is created; a failure to create
// it does not fail the sign-in. The collection is reset so the next Load
// starts clean.
func (s *Store) SignIn(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return invalid(session.ErrEmptyUsername)
	}

	res, err := s.backend.Login(ctx, username)
	if err != nil {
		logging.Warnf("login failed: %v", err)
		return err
	}

	if len(res.Conversations) == 0 {
		if _, err := s.backend.CreateConversation(ctx, username, ""); err != nil {
			logging.Warnf("initial chat creation failed, continuing: %v", err)
		}
	}

	s.Reset()
	return s.session.Login(username)
}

// SignOut clears the identity and the collection.
func (s *Store) SignOut() error {
	err := s.session.Logout()
	s.Reset()
	return err
}

// =============================================================================
// LOAD
// =============================================================================

// Load fetches the conversations of the active identity. An identity with no
// conversations gets one created automatically. Concurrent calls for the same
// identity share one request.
func (s *Store) Load(ctx context.Context) error {
	user, err := s.identity()
	if err != nil {
		return err
	}
	_, err, _ = s.loads.Do(user, func() (interface{}, error) {
		return nil, s.load(ctx, user)
	})
	return err
}

func (s *Store) load(ctx context.Context, user string) error {
	s.mu.Lock()
	epoch := s.epoch
	s.loading = true
	s.unlockAndNotify()

	convs, err := s.backend.ListConversations(ctx, user)
	if err != nil {
		s.finishLoad(epoch, api.UserMessage(err, MsgLoadFailed))
		return err
	}

	if len(convs) == 0 {
		created, err := s.backend.CreateConversation(ctx, user, "")
		if err != nil {
			s.finishLoad(epoch, api.UserMessage(err, MsgCreateFailed))
			return err
		}
		convs = []model.Conversation{*created}
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}

	// Sends still in flight keep their pending message.
	for i := range convs {
		if !s.sending[convs[i].ID] {
			continue
		}
		if old := s.find(convs[i].ID); old != nil {
			for _, m := range old.Messages {
				if m.IsPending() {
					convs[i].Append(m)
				}
			}
		}
	}

	s.conversations = convs
	if s.find(s.activeID) == nil {
		s.activeID = convs[0].ID
	}
	s.loading = false
	s.loaded = true
	s.unlockAndNotify()

	logging.Debugf("loaded %d conversations", len(convs))
	return nil
}

func (s *Store) finishLoad(epoch uint64, msg string) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.loading = false
	s.lastErr = msg
	s.unlockAndNotify()
}

// =============================================================================
// CREATE / SELECT / DELETE
// =============================================================================

// CreateConversation creates a conversation, puts it first and activates it.
// No local placeholder is created when the backend fails.
func (s *Store) CreateConversation(ctx context.Context) (string, error) {
	user, err := s.identity()
	if err != nil {
		s.setError(MsgSessionExpired)
		return "", err
	}

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	conv, err := s.backend.CreateConversation(ctx, user, "")
	if err != nil {
		s.setError(api.UserMessage(err, MsgCreateFailed))
		return "", err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return conv.ID, nil
	}
	s.conversations = append([]model.Conversation{*conv}, s.conversations...)
	s.activeID = conv.ID
	s.unlockAndNotify()
	return conv.ID, nil
}

// SelectConversation activates id. Unknown ids are ignored.
func (s *Store) SelectConversation(id string) {
	s.mu.Lock()
	if id == s.activeID || s.find(id) == nil {
		s.mu.Unlock()
		return
	}
	s.activeID = id
	s.unlockAndNotify()
}

// DeleteConversation deletes id on the backend and then locally. A
// conversation the backend no longer knows is treated as deleted.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	user, err := s.identity()
	if err != nil {
		s.setError(MsgSessionExpired)
		return err
	}

	s.mu.Lock()
	epoch := s.epoch
	exists := s.find(id) != nil
	s.mu.Unlock()
	if !exists {
		return nil
	}

	if err := s.backend.DeleteConversation(ctx, user, id); err != nil && !errors.Is(err, api.ErrNotFound) {
		s.setError(api.UserMessage(err, MsgDeleteFailed))
		return err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}
	s.removeLocked(id)
	s.unlockAndNotify()
	return nil
}

// removeLocked removes id and repairs the active id. Caller must hold mu.
func (s *Store) removeLocked(id string) {
	kept := s.conversations[:0]
	for _, c := range s.conversations {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(s.conversations); i++ {
		s.conversations[i] = model.Conversation{}
	}
	s.conversations = kept

	if s.activeID == id {
		s.activeID = ""
		if len(s.conversations) > 0 {
			s.activeID = s.conversations[0].ID
		}
	}
}

// =============================================================================
// SEND
// =============================================================================

// SendMessage sends text to the active conversation conversationID.
//
// The trimmed text is appended at once as a pending message. When the backend
// answers, every pending message is removed and the confirmed user and AI
// messages are appended; on failure only the pending message is removed.
// Creator questions are answered locally without contacting the backend.
func (s *Store) SendMessage(ctx context.Context, conversationID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return invalid(ErrEmptyMessage)
	}
	user, err := s.identity()
	if err != nil {
		s.setError(MsgSessionExpired)
		return err
	}

	s.mu.Lock()
	if conversationID != s.activeID {
		s.mu.Unlock()
		return invalid(ErrNotActive)
	}
	conv := s.find(conversationID)
	if conv == nil {
		s.mu.Unlock()
		return invalid(ErrUnknownConversation)
	}
	if s.sending[conversationID] || conv.PendingCount() > 0 {
		s.mu.Unlock()
		return invalid(ErrSendInFlight)
	}

	now := s.now()
	firstExchange := conv.IsEmpty()

	if IsCreatorQuestion(text) {
		conv.Append(
			model.Message{Ref: model.NewLocal(), Sender: model.SenderUser, Content: text, Timestamp: now},
			model.Message{Ref: model.NewLocal(), Sender: model.SenderAI, Content: CreatorAnswer, Timestamp: now},
		)
		if firstExchange {
			conv.Title = model.SynthesizeTitle(text)
		}
		s.unlockAndNotify()
		return nil
	}

	conv.Append(model.Message{
		Ref:       model.NewPending(now),
		Sender:    model.SenderUser,
		Content:   text,
		Timestamp: now,
	})
	s.sending[conversationID] = true
	epoch := s.epoch
	s.unlockAndNotify()

	res, sendErr := s.backend.SendMessage(ctx, user, conversationID, text)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return sendErr
	}
	delete(s.sending, conversationID)

	conv = s.find(conversationID)
	if conv == nil {
		// Deleted while the send was in flight.
		s.unlockAndNotify()
		return sendErr
	}
	conv.StripPending()

	if sendErr != nil {
		s.lastErr = api.UserMessage(sendErr, MsgSendFailed)
		s.unlockAndNotify()
		return sendErr
	}

	for _, m := range []model.Message{res.UserMessage, res.AIResponse} {
		if !conv.HasMessage(m.ID()) {
			conv.Append(m)
		}
	}
	switch {
	case res.Title != "":
		conv.Title = res.Title
	case firstExchange:
		conv.Title = model.SynthesizeTitle(text)
	}
	s.unlockAndNotify()
	return nil
}

// =============================================================================
// ACTIONS
// =============================================================================

// ApplyAction asks the backend to rewrite an AI message and replaces it in
// place. Nothing changes locally until the backend answers.
func (s *Store) ApplyAction(ctx context.Context, conversationID, messageID string, kind model.ActionKind) error {
	user, err := s.identity()
	if err != nil {
		s.setError(MsgSessionExpired)
		return err
	}
	if !kind.Valid() {
		return invalid(model.ErrUnknownAction)
	}

	s.mu.Lock()
	if conversationID != s.activeID {
		s.mu.Unlock()
		return invalid(ErrNotActive)
	}
	epoch := s.epoch
	conv := s.find(conversationID)
	if conv == nil {
		s.mu.Unlock()
		s.setError(MsgSessionExpired)
		return invalid(ErrUnknownConversation)
	}
	idx := conv.IndexOf(messageID)
	if idx < 0 {
		s.mu.Unlock()
		return invalid(ErrUnknownMessage)
	}
	if !conv.Messages[idx].IsConfirmed() {
		s.mu.Unlock()
		return invalid(ErrNotConfirmed)
	}
	s.mu.Unlock()

	msg, err := s.backend.ApplyAction(ctx, user, conversationID, messageID, kind)
	if err != nil {
		s.setError(api.UserMessage(err, MsgActionFailed))
		return err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}
	if conv = s.find(conversationID); conv == nil {
		s.mu.Unlock()
		return nil
	}
	replacement := *msg
	replacement.Ref = model.Confirmed{ServerID: messageID}
	if !conv.Replace(messageID, replacement) {
		s.mu.Unlock()
		return nil
	}
	s.unlockAndNotify()
	return nil
}
