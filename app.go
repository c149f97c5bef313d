// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/clipboard"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/speech"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/store"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/chat"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/login"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/styles"
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// State represents which screen the application is showing.
type State int

const (
	StateLogin State = iota
	StateChat
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateLogin:
		return "login"
	case StateChat:
		return "chat"
	default:
		return "unknown"
	}
}

// AppOptions wires the application model.
type AppOptions struct {
	Theme     *styles.Theme
	Store     *store.Store
	Clipboard *clipboard.Copier
	// Speech builds a capture for each chat screen. Nil disables speech input.
	Speech   func() *speech.Capture
	Markdown bool
	// Username, when set, opens straight into the chat screen.
	Username string
}

// Model routes between the login and chat screens.
type Model struct {
	opts  AppOptions
	state State

	login login.Model
	chat  chat.Model

	width  int
	height int
}

// NewModel creates the application model.
func NewModel(opts AppOptions) Model {
	m := Model{opts: opts}
	if opts.Username != "" {
		m.state = StateChat
		m.chat = m.newChat(opts.Username)
	} else {
		m.state = StateLogin
		m.login = login.New(opts.Theme, opts.Store, "")
	}
	return m
}

// State returns the screen being shown.
func (m Model) State() State {
	return m.state
}

func (m Model) newChat(username string) chat.Model {
	var capture *speech.Capture
	if m.opts.Speech != nil {
		capture = m.opts.Speech()
	}
	return chat.New(m.opts.Theme, chat.Options{
		Store:     m.opts.Store,
		Clipboard: m.opts.Clipboard,
		Speech:    capture,
		Markdown:  m.opts.Markdown,
		Username:  username,
	})
}

// =============================================================================
// BUBBLE TEA
// =============================================================================

// Init initializes the current screen.
func (m Model) Init() tea.Cmd {
	if m.state == StateChat {
		return m.chat.Init()
	}
	return m.login.Init()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case login.SignedInMsg:
		if msg.Err == nil && m.state == StateLogin {
			logging.Infof("signed in as %s", msg.Username)
			cmd := m.enterChat(msg.Username)
			return m, cmd
		}

	case chat.LogoutMsg:
		cmd := m.enterLogin()
		return m, cmd

	case chat.StoreChangedMsg:
		if m.state != StateChat {
			return m, nil
		}
	}

	return m.forward(msg)
}

// forward passes msg to the current screen.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var updated tea.Model
	switch m.state {
	case StateChat:
		updated, cmd = m.chat.Update(msg)
		m.chat = updated.(chat.Model)
	default:
		updated, cmd = m.login.Update(msg)
		m.login = updated.(login.Model)
	}
	return m, cmd
}

// enterChat replaces the login screen with a chat screen for username.
func (m *Model) enterChat(username string) tea.Cmd {
	m.chat = m.newChat(username)
	m.state = StateChat
	return tea.Batch(m.chat.Init(), m.resize())
}

// enterLogin signs out and shows an empty login screen.
func (m *Model) enterLogin() tea.Cmd {
	m.chat.Close()
	if err := m.opts.Store.SignOut(); err != nil {
		logging.Warnf("sign out: %v", err)
	}
	logging.Infof("signed out")
	m.login = login.New(m.opts.Theme, m.opts.Store, "")
	m.state = StateLogin
	return tea.Batch(m.login.Init(), m.resize())
}

// resize replays the last known window size to a freshly built screen.
func (m Model) resize() tea.Cmd {
	if m.width == 0 && m.height == 0 {
		return nil
	}
	size := tea.WindowSizeMsg{Width: m.width, Height: m.height}
	return func() tea.Msg { return size }
}

// View renders the current screen.
func (m Model) View() string {
	if m.state == StateChat {
		return m.chat.View()
	}
	return m.login.View()
}

// Close stops background work owned by the current screen.
func (m *Model) Close() {
	if m.state == StateChat {
		m.chat.Close()
	}
}
