// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
)

// fakeBackend is an in-memory Backend. Error fields make the matching call
// fail; hooks run before the call returns.
type fakeBackend struct {
	mu    sync.Mutex
	chats map[string][]model.Conversation
	seq   int
	calls map[string]int

	loginErr, listErr, createErr, sendErr, deleteErr, deleteAllErr, actionErr error

	// sendGate, when set, blocks SendMessage until it is closed.
	sendGate chan struct{}
	// listGate, when set, blocks ListConversations until it is closed.
	listGate chan struct{}
	// sendTitle is returned as chatTitle.
	sendTitle string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chats: make(map[string][]model.Conversation),
		calls: make(map[string]int),
	}
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeBackend) nextID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

// seed stores conversations for user, most recent first.
func (f *fakeBackend) seed(user string, convs ...model.Conversation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats[user] = append(f.chats[user], convs...)
}

func (f *fakeBackend) Login(ctx context.Context, username string) (*api.LoginResult, error) {
	f.record("login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	convs := make([]model.Conversation, len(f.chats[username]))
	copy(convs, f.chats[username])
	return &api.LoginResult{Username: username, Conversations: convs}, nil
}

func (f *fakeBackend) ListConversations(ctx context.Context, username string) ([]model.Conversation, error) {
	f.record("list")
	if f.listGate != nil {
		<-f.listGate
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Conversation, 0, len(f.chats[username]))
	for _, c := range f.chats[username] {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, username, title string) (*model.Conversation, error) {
	f.record("create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	conv := model.Conversation{ID: f.nextID("c"), Title: title, CreatedAt: time.Now()}
	f.mu.Lock()
	f.chats[username] = append([]model.Conversation{conv}, f.chats[username]...)
	f.mu.Unlock()
	return &conv, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, username, chatID, content string) (*api.SendResult, error) {
	f.record("send")
	if f.sendGate != nil {
		<-f.sendGate
	}
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	now := time.Now()
	return &api.SendResult{
		UserMessage: model.NewConfirmedMessage(f.nextID("u"), model.SenderUser, content, now),
		AIResponse:  model.NewConfirmedMessage(f.nextID("a"), model.SenderAI, "reply to "+content, now),
		Title:       f.sendTitle,
	}, nil
}

func (f *fakeBackend) DeleteConversation(ctx context.Context, username, chatID string) error {
	f.record("delete")
	return f.deleteErr
}

func (f *fakeBackend) DeleteAllConversations(ctx context.Context, username string) error {
	f.record("deleteAll")
	return f.deleteAllErr
}

func (f *fakeBackend) ApplyAction(ctx context.Context, username, chatID, messageID string, kind model.ActionKind) (*model.Message, error) {
	f.record("action")
	if f.actionErr != nil {
		return nil, f.actionErr
	}
	msg := model.NewConfirmedMessage(messageID, model.SenderAI, string(kind)+"ed content", time.Now())
	return &msg, nil
}

// fakeSession is an in-memory Session.
type fakeSession struct {
	mu   sync.Mutex
	name string
}

func (s *fakeSession) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, s.name != ""
}

func (s *fakeSession) Login(username string) error {
	s.mu.Lock()
	s.name = username
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Logout() error {
	s.mu.Lock()
	s.name = ""
	s.mu.Unlock()
	return nil
}

func statusError(op string, status int) error {
	kind := api.KindUnknown
	switch status {
	case http.StatusNotFound:
		kind = api.KindNotFound
	case http.StatusInternalServerError:
		kind = api.KindServer
	}
	return &api.Error{Kind: kind, Op: op, Status: status}
}

func conversation(id string, msgs ...model.Message) model.Conversation {
	return model.Conversation{ID: id, Title: "chat " + id, Messages: msgs}
}

func userMsg(id, content string) model.Message {
	return model.NewConfirmedMessage(id, model.SenderUser, content, time.Now())
}

func aiMsg(id, content string) model.Message {
	return model.NewConfirmedMessage(id, model.SenderAI, content, time.Now())
}

func messageIDs(c *model.Conversation) []string {
	ids := make([]string, len(c.Messages))
	for i, m := range c.Messages {
		ids[i] = m.ID()
	}
	return ids
}
