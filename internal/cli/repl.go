// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/clipboard"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/store"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/ui/login"
)

// DefaultOperationTimeout bounds one store call from the REPL.
const DefaultOperationTimeout = 60 * time.Second

var (
	errNoActiveChat = errors.New("no chat selected; use /new or /switch N")
	errNoReply      = errors.New("no reply from Pratham AI in this chat yet")
	errNotEditable  = errors.New("this reply can't be changed")
)

// Identity reports the signed-in user.
type Identity interface {
	Active() (string, bool)
}

// Copier puts text on a clipboard.
type Copier interface {
	Copy(text string) (clipboard.Method, error)
}

// =============================================================================
// REPL
// =============================================================================

// REPLOptions configures a REPL.
type REPLOptions struct {
	Store    *store.Store
	Session  Identity
	Input    LineReader
	Output   io.Writer
	Copier   Copier
	Renderer *Renderer

	// User signs in as this identity before the first prompt.
	User string
	// Yes skips the delete-all confirmation.
	Yes bool
	// Interactive reports whether confirmation prompts can be answered.
	Interactive bool
	// Timeout bounds each store call; zero means DefaultOperationTimeout.
	Timeout time.Duration
}

// REPL is the line-mode chat client.
type REPL struct {
	store       *store.Store
	session     Identity
	in          LineReader
	out         io.Writer
	copier      Copier
	render      *Renderer
	user        string
	yes         bool
	interactive bool
	timeout     time.Duration
}

// NewREPL creates a REPL. Output defaults to stdout and Renderer to plain
// text with highlighted code fences.
func NewREPL(opts REPLOptions) *REPL {
	r := &REPL{
		store:       opts.Store,
		session:     opts.Session,
		in:          opts.Input,
		out:         opts.Output,
		copier:      opts.Copier,
		render:      opts.Renderer,
		user:        strings.TrimSpace(opts.User),
		yes:         opts.Yes,
		interactive: opts.Interactive,
		timeout:     opts.Timeout,
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	if r.render == nil {
		r.render = NewRenderer(RenderOptions{})
	}
	if r.timeout <= 0 {
		r.timeout = DefaultOperationTimeout
	}
	return r
}

// Run signs in if needed, loads the conversations and reads lines until
// /quit, /logout, Ctrl+C or end of input.
func (r *REPL) Run(ctx context.Context) error {
	signedIn, err := r.ensureSignedIn(ctx)
	if err != nil || !signedIn {
		return err
	}

	loadCtx, cancel := context.WithTimeout(ctx, r.timeout)
	err = r.store.Load(loadCtx)
	cancel()
	if err != nil {
		r.printError(err)
		return err
	}
	r.printWelcome()

	for {
		input, err := r.in.Prompt(PromptStyle.Render("pratham> "))
		if err != nil {
			if !errors.Is(err, ErrAborted) && !errors.Is(err, io.EOF) {
				return err
			}
			fmt.Fprintln(r.out)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.in.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			keepGoing, err := r.command(ctx, input)
			if err != nil {
				r.printError(err)
			}
			if !keepGoing {
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		if err := r.send(ctx, input); err != nil {
			r.printError(err)
		}
	}
}

// ensureSignedIn signs in as the configured user, or asks for a name when
// no identity is stored. It returns false when the user gave up.
func (r *REPL) ensureSignedIn(ctx context.Context) (bool, error) {
	current, active := r.session.Active()
	if r.user != "" && (!active || current != r.user) {
		if err := r.signIn(ctx, r.user); err != nil {
			fmt.Fprintln(r.out, ErrorStyle.Render(login.ErrorText(err)))
			return false, err
		}
		return true, nil
	}
	if active {
		return true, nil
	}

	fmt.Fprintln(r.out, TitleStyle.Render(login.Title))
	fmt.Fprintln(r.out, DimStyle.Render(login.Subtitle))
	for {
		name, err := r.in.Prompt(login.Placeholder + ": ")
		if err != nil {
			if errors.Is(err, ErrAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return false, nil
			}
			return false, err
		}
		if err := r.signIn(ctx, name); err != nil {
			fmt.Fprintln(r.out, ErrorStyle.Render(login.ErrorText(err)))
			continue
		}
		return true, nil
	}
}

func (r *REPL) signIn(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.store.SignIn(ctx, name)
}

// =============================================================================
// SENDING
// =============================================================================

// send posts text to the active conversation and prints the reply. Ctrl+C
// while waiting abandons the request.
func (r *REPL) send(ctx context.Context, text string) error {
	id := r.store.ActiveID()
	if id == "" {
		return errNoActiveChat
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	fmt.Fprintln(r.out, DimStyle.Render(login.Title+" is thinking..."))
	start := time.Now()
	if err := r.store.SendMessage(ctx, id, text); err != nil {
		return err
	}
	logging.Debugf("repl send took %s", time.Since(start).Round(time.Millisecond))

	if msg, ok := r.lastReply(); ok {
		r.printMessage(msg)
	}
	return nil
}

// lastReply returns the newest AI message of the active conversation.
func (r *REPL) lastReply() (model.Message, bool) {
	conv := r.store.Snapshot().Active()
	if conv == nil {
		return model.Message{}, false
	}
	i := conv.LastAI()
	if i < 0 {
		return model.Message{}, false
	}
	return conv.Messages[i], true
}

// =============================================================================
// OUTPUT
// =============================================================================

func (r *REPL) printWelcome() {
	snap := r.store.Snapshot()
	name, _ := r.session.Active()
	fmt.Fprintln(r.out, TitleStyle.Render("Welcome to Pratham AI!"))
	fmt.Fprintf(r.out, "Signed in as %s. %s. Type /help for commands.\n",
		name, pluralize(len(snap.Conversations), "chat"))
	if conv := snap.Active(); conv != nil && !conv.IsEmpty() {
		fmt.Fprintln(r.out, DimStyle.Render("Current chat: "+conv.DisplayTitle()))
	}
}

func (r *REPL) printMessage(m model.Message) {
	if m.IsFromAI() {
		fmt.Fprintln(r.out, AIStyle.Render(m.Sender.DisplayName()+":"))
		fmt.Fprintln(r.out, r.render.Render(m.Content))
		return
	}
	line := UserStyle.Render(m.Sender.DisplayName()+":") + " " + m.Content
	if m.IsPending() {
		line += " " + DimStyle.Render("(sending...)")
	}
	fmt.Fprintln(r.out, line)
}

func (r *REPL) printTranscript(conv *model.Conversation) {
	fmt.Fprintln(r.out, TitleStyle.Render(conv.DisplayTitle()))
	fmt.Fprintln(r.out, RenderSeparator())
	if conv.IsEmpty() {
		fmt.Fprintln(r.out, DimStyle.Render("No messages yet. Say something!"))
		return
	}
	for _, m := range conv.Messages {
		r.printMessage(m)
	}
}

// printError prefers the store's user-facing message over err.
func (r *REPL) printError(err error) {
	if msg := r.store.Err(); msg != "" {
		r.store.DismissError()
		err = errors.New(msg)
	}
	DisplayError(r.out, err)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
