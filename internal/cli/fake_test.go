// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/clipboard"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/store"
)

// fakeBackend is an in-memory store.Backend.
type fakeBackend struct {
	mu    sync.Mutex
	convs []model.Conversation
	seq   int
	calls map[string]int

	loginErr error
	sendErr  error
}

func newFakeBackend(convs ...model.Conversation) *fakeBackend {
	return &fakeBackend{convs: convs, calls: make(map[string]int)}
}

func (f *fakeBackend) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) nextID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeBackend) Login(ctx context.Context, username string) (*api.LoginResult, error) {
	f.record("login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	convs := make([]model.Conversation, len(f.convs))
	copy(convs, f.convs)
	return &api.LoginResult{Username: username, Conversations: convs}, nil
}

func (f *fakeBackend) ListConversations(ctx context.Context, username string) ([]model.Conversation, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Conversation, len(f.convs))
	for i, c := range f.convs {
		out[i] = c.Clone()
	}
	return out, nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, username, title string) (*model.Conversation, error) {
	f.record("create")
	conv := model.Conversation{ID: f.nextID("c"), CreatedAt: time.Now()}
	f.mu.Lock()
	f.convs = append([]model.Conversation{conv}, f.convs...)
	f.mu.Unlock()
	return &conv, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, username, chatID, content string) (*api.SendResult, error) {
	f.record("send")
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	now := time.Now()
	return &api.SendResult{
		UserMessage: model.NewConfirmedMessage(f.nextID("u"), model.SenderUser, content, now),
		AIResponse:  model.NewConfirmedMessage(f.nextID("a"), model.SenderAI, "reply to "+content, now),
	}, nil
}

func (f *fakeBackend) DeleteConversation(ctx context.Context, username, chatID string) error {
	f.record("delete")
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.convs[:0]
	for _, c := range f.convs {
		if c.ID != chatID {
			kept = append(kept, c)
		}
	}
	f.convs = kept
	return nil
}

func (f *fakeBackend) DeleteAllConversations(ctx context.Context, username string) error {
	f.record("deleteAll")
	f.mu.Lock()
	f.convs = nil
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) ApplyAction(ctx context.Context, username, chatID, messageID string, kind model.ActionKind) (*model.Message, error) {
	f.record("action")
	msg := model.NewConfirmedMessage(messageID, model.SenderAI, "rewritten by "+string(kind), time.Now())
	return &msg, nil
}

type memSession struct {
	mu   sync.Mutex
	name string
}

func (s *memSession) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, s.name != ""
}

func (s *memSession) Login(username string) error {
	s.mu.Lock()
	s.name = username
	s.mu.Unlock()
	return nil
}

func (s *memSession) Logout() error {
	return s.Login("")
}

// scriptReader answers prompts from a fixed list of lines, then io.EOF.
type scriptReader struct {
	lines   []string
	prompts []string
	history []string
}

func (s *scriptReader) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", ErrAborted
	}
	return line, nil
}

func (s *scriptReader) AppendHistory(item string) { s.history = append(s.history, item) }
func (s *scriptReader) Close() error              { return nil }

// fakeCopier records copied text.
type fakeCopier struct {
	copied []string
}

func (c *fakeCopier) Copy(text string) (clipboard.Method, error) {
	c.copied = append(c.copied, text)
	return clipboard.MethodSystem, nil
}

// =============================================================================
// HARNESS
// =============================================================================

type replHarness struct {
	backend *fakeBackend
	session *memSession
	store   *store.Store
	reader  *scriptReader
	copier  *fakeCopier
	out     *bytes.Buffer
	opts    REPLOptions
}

// newREPLHarness wires a REPL to in-memory fakes. user, when set, is already
// signed in.
func newREPLHarness(t *testing.T, user string, convs ...model.Conversation) *replHarness {
	t.Helper()
	h := &replHarness{
		backend: newFakeBackend(convs...),
		session: &memSession{name: user},
		reader:  &scriptReader{},
		copier:  &fakeCopier{},
		out:     &bytes.Buffer{},
	}
	h.store = store.New(h.backend, h.session)
	h.opts = REPLOptions{
		Store:       h.store,
		Session:     h.session,
		Input:       h.reader,
		Output:      h.out,
		Copier:      h.copier,
		Renderer:    NewRenderer(RenderOptions{Formatter: "noop"}),
		Interactive: true,
		Timeout:     5 * time.Second,
	}
	return h
}

// run feeds lines to a fresh REPL and returns its error.
func (h *replHarness) run(t *testing.T, lines ...string) error {
	t.Helper()
	h.reader.lines = append(h.reader.lines, lines...)
	return NewREPL(h.opts).Run(context.Background())
}

func (h *replHarness) mustRun(t *testing.T, lines ...string) string {
	t.Helper()
	require.NoError(t, h.run(t, lines...))
	return h.out.String()
}

func exchangeConv(id, title string) model.Conversation {
	now := time.Now()
	return model.Conversation{
		ID:    id,
		Title: title,
		Messages: []model.Message{
			model.NewConfirmedMessage(id+"-u", model.SenderUser, "question", now),
			model.NewConfirmedMessage(id+"-a", model.SenderAI, "answer from "+id, now),
		},
	}
}
