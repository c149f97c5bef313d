// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/clipboard"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/speech"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/store"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/components"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/sidebar"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/styles"
)

// Input texts.
const (
	Placeholder          = "Type your message..."
	PlaceholderSending   = "Waiting for Pratham AI..."
	PlaceholderListening = "Listening..."
)

// Suggestions are offered in an empty conversation.
var Suggestions = []string{
	"Tell me a joke",
	"What's the weather like today?",
	"How does AI work?",
	"Write a short poem",
}

// focus is the part of the screen receiving keys.
type focus int

const (
	focusInput focus = iota
	focusSidebar
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options wires the chat screen to the rest of the application.
type Options struct {
	Store     *store.Store
	Clipboard *clipboard.Copier
	// Speech is nil when speech input is not configured.
	Speech *speech.Capture
	// Markdown renders AI replies as markdown.
	Markdown bool
	Username string
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	theme  *styles.Theme
	keys   KeyMap
	store  *store.Store
	copier *clipboard.Copier
	speech *speech.Capture

	// Dimensions
	width  int
	height int

	username string
	snap     store.Snapshot

	// UI Components
	sidebar   sidebar.Model
	viewport  viewport.Model
	input     textinput.Model
	spinner   components.Spinner
	statusBar *components.StatusBar
	help      help.Model
	markdown  *markdownRenderer

	focus    focus
	showHelp bool

	// selected is the index of the selected AI reply in the active
	// conversation, -1 when none.
	selected int
	// offsets holds the first viewport line of each rendered message.
	offsets []int
	// activeID is the conversation the selection belongs to.
	activeID string
	// shownID and shownCount detect when the viewport should follow new
	// messages.
	shownID    string
	shownCount int

	applyingID string
	copiedID   string
	toast      *components.Toast
	deleteAll  *store.DeleteAllRequest

	listening     bool
	speechWaiting bool
	interim       string
}

// New creates the chat screen.
func New(theme *styles.Theme, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = Placeholder
	ti.CharLimit = 4096
	ti.Width = 60
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.KeyMap = viewport.KeyMap{}

	h := help.New()
	h.ShowAll = true

	copier := opts.Clipboard
	if copier == nil {
		copier = clipboard.New()
	}

	m := Model{
		theme:     theme,
		keys:      DefaultKeyMap(),
		store:     opts.Store,
		copier:    copier,
		speech:    opts.Speech,
		username:  opts.Username,
		sidebar:   sidebar.New(theme),
		viewport:  vp,
		input:     ti,
		spinner:   components.NewSpinner(theme, "Pratham AI is thinking"),
		statusBar: components.NewStatusBar(theme),
		help:      h,
		markdown:  newMarkdownRenderer(opts.Markdown, theme.IsDark),
		selected:  -1,
	}
	m.statusBar.Username = opts.Username
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init loads the conversations of the signed-in identity.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, LoadCmd(m.store))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case StoreChangedMsg:
		cmd := m.refresh()
		return m, cmd

	case LoadedMsg:
		cmd := m.refresh()
		return m, cmd

	case CreatedMsg:
		if msg.Err == nil {
			m.setFocus(focusInput)
		}
		cmd := m.refresh()
		return m, cmd

	case DeletedMsg, DeleteAllDoneMsg:
		cmd := m.refresh()
		return m, cmd

	case SentMsg:
		return m.handleSent(msg)

	case ActionDoneMsg:
		return m.handleActionDone(msg)

	case CopiedMsg:
		return m.handleCopied(msg)

	case components.ToastExpiredMsg:
		if m.toast != nil && m.toast.ID == msg.ID {
			m.toast = nil
			m.copiedID = ""
			m.renderViewport()
		}
		return m, nil

	case SpeechStartedMsg:
		return m.handleSpeechStarted(msg)

	case SpeechStoppedMsg:
		m.listening = false
		m.interim = ""
		m.appendDraft(msg.Text)
		return m, nil

	case SpeechUpdateMsg:
		return m.handleSpeechUpdate(msg)

	case sidebar.SelectMsg:
		m.store.SelectConversation(msg.ID)
		m.setFocus(focusInput)
		cmd := m.refresh()
		return m, cmd

	case sidebar.NewChatMsg:
		return m, CreateCmd(m.store)

	case sidebar.DeleteMsg:
		return m, DeleteCmd(m.store, msg.ID)

	case sidebar.DeleteAllRequestMsg:
		return m.handleDeleteAllRequest()

	case sidebar.DeleteAllConfirmMsg:
		req := m.deleteAll
		m.deleteAll = nil
		return m, DeleteAllCmd(req)

	case sidebar.DeleteAllCancelMsg:
		m.deleteAll.Cancel()
		m.deleteAll = nil
		cmd := m.refresh()
		return m, cmd

	case sidebar.LogoutMsg:
		m.stopSpeech()
		return m, func() tea.Msg { return LogoutMsg{} }

	default:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.spinner.IsActive() {
			m.renderViewport()
		}
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
}

// View renders the chat screen.
func (m Model) View() string {
	return m.renderChat()
}

// Close stops background work owned by the screen.
func (m *Model) Close() {
	m.stopSpeech()
}

// =============================================================================
// STATE SYNC
// =============================================================================

// refresh re-reads the store and brings every dependent piece of the screen
// up to date. It returns a command when the spinner needs to start.
func (m *Model) refresh() tea.Cmd {
	if m.store == nil {
		return nil
	}
	m.snap = m.store.Snapshot()
	m.sidebar.SetSnapshot(m.snap)
	if !m.snap.ConfirmingDeleteAll {
		m.deleteAll = nil
	}

	active := m.snap.Active()
	if active == nil || active.ID != m.activeID {
		m.selected = -1
		m.applyingID = ""
		m.activeID = m.snap.ActiveID
	} else if m.selected >= len(active.Messages) || (m.selected >= 0 && !active.Messages[m.selected].IsFromAI()) {
		m.selected = -1
	}

	var cmd tea.Cmd
	if m.isSending() {
		m.input.Blur()
		m.input.Placeholder = PlaceholderSending
		cmd = m.spinner.Start()
	} else {
		m.spinner.Stop()
		m.input.Placeholder = Placeholder
		if m.listening {
			m.input.Placeholder = PlaceholderListening
		}
		if m.focus == focusInput {
			m.input.Focus()
		}
	}

	m.layout()
	return cmd
}

// isSending reports whether the active conversation has a send in flight.
func (m Model) isSending() bool {
	return m.snap.ActiveID != "" && m.snap.IsSending(m.snap.ActiveID)
}

// activeConversation returns the active conversation, or nil.
func (m Model) activeConversation() *model.Conversation {
	return m.snap.Active()
}

// selectedMessage returns the selected AI reply, or nil.
func (m Model) selectedMessage() *model.Message {
	conv := m.activeConversation()
	if conv == nil || m.selected < 0 || m.selected >= len(conv.Messages) {
		return nil
	}
	return &conv.Messages[m.selected]
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusSidebar {
		m.sidebar.Focus()
		m.input.Blur()
		return
	}
	m.sidebar.Blur()
	if !m.isSending() {
		m.input.Focus()
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the sidebar, viewport and input from the current dimensions.
// Fixed parts are measured after rendering so the total always fits.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}

	sbWidth := m.theme.SidebarWidth()
	mainWidth := m.mainWidth()

	m.input.Width = mainWidth - 6 - len(m.input.Prompt)
	if m.input.Width < 10 {
		m.input.Width = 10
	}
	m.statusBar.SetWidth(m.width)
	m.help.Width = m.width

	fixed := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderStatusBar())
	if banner := m.renderBanner(); banner != "" {
		fixed += lipgloss.Height(banner)
	}

	bodyHeight := m.height - fixed
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	// The sidebar border takes one column.
	switch {
	case sbWidth > 0:
		m.sidebar.SetSize(sbWidth-1, bodyHeight)
	case m.focus == focusSidebar:
		m.sidebar.SetSize(m.width-1, bodyHeight)
	}
	m.viewport.Width = mainWidth
	m.viewport.Height = bodyHeight
	m.renderViewport()
}

// mainWidth is the width left for the conversation next to the sidebar.
func (m Model) mainWidth() int {
	w := m.width - m.theme.SidebarWidth()
	if w < 20 {
		w = 20
	}
	return w
}
