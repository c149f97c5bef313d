// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/clipboard"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/speech"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/store"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/styles"
)

// fakeBackend is an in-memory store.Backend.
type fakeBackend struct {
	mu      sync.Mutex
	convs   []model.Conversation
	seq     int
	actions int

	sendErr  error
	sendGate chan struct{}
}

func (f *fakeBackend) nextID(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

func (f *fakeBackend) Login(ctx context.Context, username string) (*api.LoginResult, error) {
	return &api.LoginResult{Username: username}, nil
}

func (f *fakeBackend) ListConversations(ctx context.Context, username string) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Conversation, len(f.convs))
	for i, c := range f.convs {
		out[i] = c.Clone()
	}
	return out, nil
}

func (f *fakeBackend) CreateConversation(ctx context.Context, username, title string) (*model.Conversation, error) {
	conv := model.Conversation{ID: f.nextID("c"), CreatedAt: time.Now()}
	f.mu.Lock()
	f.convs = append([]model.Conversation{conv}, f.convs...)
	f.mu.Unlock()
	return &conv, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, username, chatID, content string) (*api.SendResult, error) {
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
	}, nil
}

func (f *fakeBackend) DeleteConversation(ctx context.Context, username, chatID string) error {
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
	f.mu.Lock()
	f.convs = nil
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) ApplyAction(ctx context.Context, username, chatID, messageID string, kind model.ActionKind) (*model.Message, error) {
	f.mu.Lock()
	f.actions++
	f.mu.Unlock()
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

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	backend *fakeBackend
	store   *store.Store
	copied  []string
	m       Model
}

type harnessOption func(*Options)

func withSpeech(c *speech.Capture) harnessOption {
	return func(o *Options) { o.Speech = c }
}

func withMarkdown() harnessOption {
	return func(o *Options) { o.Markdown = true }
}

// newHarness builds a loaded chat screen for user "alice" over convs.
func newHarness(t *testing.T, convs []model.Conversation, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{backend: &fakeBackend{convs: convs}}
	h.store = store.New(h.backend, &memSession{name: "alice"})
	require.NoError(t, h.store.Load(context.Background()))

	o := Options{
		Store: h.store,
		Clipboard: clipboard.NewWith(func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		}, nil),
		Username: "alice",
	}
	for _, opt := range opts {
		opt(&o)
	}

	h.m = New(styles.NewTheme("dark"), o)
	h.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// send feeds msg and runs every command it produces that completes quickly.
// Timers such as cursor blink and toast expiry are left unrun.
func (h *harness) send(t *testing.T, msg tea.Msg) {
	t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	h.drive(t, cmd)
}

func (h *harness) drive(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 200; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := runQuick(c)
		if !ok || msg == nil {
			continue
		}
		if batch, isBatch := msg.(tea.BatchMsg); isBatch {
			queue = append(queue, batch...)
			continue
		}
		if _, quit := msg.(tea.QuitMsg); quit {
			continue
		}
		next, more := h.m.Update(msg)
		h.m = next.(Model)
		queue = append(queue, more)
	}
}

// runQuick runs c and gives up after a short wait.
func runQuick(c tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(100 * time.Millisecond):
		return nil, false
	}
}

func (h *harness) typeText(t *testing.T, s string) {
	t.Helper()
	h.send(t, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func altKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s), Alt: true}
}

func runesKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func exchange(id string) model.Conversation {
	now := time.Now()
	return model.Conversation{
		ID:    id,
		Title: "chat " + id,
		Messages: []model.Message{
			model.NewConfirmedMessage(id+"-u", model.SenderUser, "question", now),
			model.NewConfirmedMessage(id+"-a", model.SenderAI, "answer text", now),
		},
	}
}

// fakeRecognizer hands out sessions whose events the test controls.
type fakeRecognizer struct {
	events chan speech.Event
}

func (r *fakeRecognizer) Start(ctx context.Context) (<-chan speech.Event, error) {
	return r.events, nil
}
