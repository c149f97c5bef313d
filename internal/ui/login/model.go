// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the username prompt shown before the chat screen.
package login

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/store"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/components"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/styles"
)

// Texts shown by the login screen.
const (
	Title       = "Pratham AI"
	Subtitle    = "Enter your username to continue"
	Placeholder = "Username"
	Hint        = "Enter to continue  Ctrl+C to quit"
)

// SignInTimeout bounds the login request.
const SignInTimeout = 30 * time.Second

// SignedInMsg reports the end of a sign-in attempt.
type SignedInMsg struct {
	Username string
	Err      error
}

// SignInCmd signs username in through the store.
func SignInCmd(s *store.Store, username string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), SignInTimeout)
		defer cancel()
		return SignedInMsg{Username: username, Err: s.SignIn(ctx, username)}
	}
}

// ErrorText maps a sign-in failure to the text shown under the input.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, api.ErrValidation) {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Reason != "" {
			return apiErr.Reason
		}
		return store.MsgUsernameMissing
	}
	return api.UserMessage(err, store.MsgLoginFailed)
}

// Model is the login screen.
type Model struct {
	theme   *styles.Theme
	store   *store.Store
	input   textinput.Model
	spinner components.Spinner
	submit  key.Binding
	quit    key.Binding

	width  int
	height int

	busy bool
	err  string
}

// New creates the login screen. initial pre-fills the input.
func New(theme *styles.Theme, st *store.Store, initial string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = Placeholder
	ti.CharLimit = 64
	ti.Width = 30
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.SetValue(initial)
	ti.Focus()

	return Model{
		theme:   theme,
		store:   st,
		input:   ti,
		spinner: components.NewSpinner(theme, "Signing in"),
		submit:  key.NewBinding(key.WithKeys("enter")),
		quit:    key.NewBinding(key.WithKeys("ctrl+c", "esc")),
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Err returns the error shown under the input.
func (m Model) Err() string {
	return m.err
}

// Busy reports whether a sign-in is in flight.
func (m Model) Busy() bool {
	return m.busy
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.quit):
			return m, tea.Quit
		case key.Matches(msg, m.submit):
			return m.handleSubmit()
		}
		if m.busy {
			return m, nil
		}
		m.err = ""
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case SignedInMsg:
		m.busy = false
		m.spinner.Stop()
		m.err = ErrorText(msg.Err)
		m.input.Focus()
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	name := strings.TrimSpace(m.input.Value())
	if name == "" {
		m.err = store.MsgUsernameMissing
		return m, nil
	}

	m.busy = true
	m.err = ""
	m.input.Blur()
	spin := m.spinner.Start()
	return m, tea.Batch(SignInCmd(m.store, name), spin)
}

// View renders the login screen.
func (m Model) View() string {
	lines := []string{
		m.theme.LoginTitle.Render(Title),
		m.theme.LoginSubtitle.Render(Subtitle),
		"",
		m.input.View(),
	}
	switch {
	case m.busy:
		lines = append(lines, "", m.spinner.View())
	case m.err != "":
		lines = append(lines, "", m.theme.LoginError.Render(styles.StatusIndicators.Error+" "+m.err))
	}
	lines = append(lines, "", m.theme.ShortcutDesc.Render(Hint))

	box := m.theme.LoginBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
