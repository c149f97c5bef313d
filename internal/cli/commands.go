// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// command runs one slash command. It returns false when the REPL should
// exit.
func (r *REPL) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true, nil
	}
	name := strings.ToLower(fields[0])
	args := NewArgParser(fields[1:])

	switch name {
	case "/help", "/h", "/?", "/":
		r.printHelp()
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	case "/new", "/n":
		return true, r.newChat(ctx)

	case "/list", "/ls", "/l":
		r.printList()
		return true, nil

	case "/switch", "/s":
		return true, r.switchTo(args.Positional(0))

	case "/history":
		conv := r.store.Snapshot().Active()
		if conv == nil {
			return true, errNoActiveChat
		}
		r.printTranscript(conv)
		return true, nil

	case "/delete", "/rm":
		return true, r.deleteOne(ctx, args.Positional(0))

	case "/delete-all":
		return true, r.deleteAll(ctx)

	case "/shorten", "/concise":
		return true, r.rewrite(ctx, model.ActionShorten)

	case "/expand":
		return true, r.rewrite(ctx, model.ActionExpand)

	case "/copy":
		return true, r.copyReply()

	case "/logout":
		if err := r.store.SignOut(); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, SuccessStyle.Render("[Signed out]"))
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", name)
	}
}

func (r *REPL) newChat(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if _, err := r.store.CreateConversation(ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("[Started a new chat]"))
	return nil
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, TitleStyle.Render("Commands"))
	rows := [][2]string{
		{"/new", "Start a new chat"},
		{"/list", "List chats"},
		{"/switch N", "Switch to chat N"},
		{"/history", "Show the current chat"},
		{"/delete [N]", "Delete the current chat, or chat N"},
		{"/delete-all", "Delete every chat"},
		{"/shorten", "Make the last reply concise"},
		{"/expand", "Expand the last reply"},
		{"/copy", "Copy the last reply"},
		{"/logout", "Sign out"},
		{"/quit", "Leave"},
	}
	for _, row := range rows {
		fmt.Fprintf(r.out, "  %-14s %s\n", row[0], DimStyle.Render(row[1]))
	}
	fmt.Fprintln(r.out, DimStyle.Render("Anything else is sent to Pratham AI."))
}

func (r *REPL) printList() {
	snap := r.store.Snapshot()
	if len(snap.Conversations) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No chat history yet"))
		return
	}
	for i, c := range snap.Conversations {
		marker := " "
		if c.ID == snap.ActiveID {
			marker = "*"
		}
		fmt.Fprintf(r.out, "%s %2d. %s  %s\n", marker, i+1, c.DisplayTitle(),
			DimStyle.Render(pluralize(c.MessageCount(), "message")))
	}
}

// conversationAt resolves a 1-based /list position.
func (r *REPL) conversationAt(arg string) (*model.Conversation, error) {
	n, err := ParseIntWithValidation(arg, "chat number")
	if err != nil {
		return nil, err
	}
	snap := r.store.Snapshot()
	if n > len(snap.Conversations) {
		return nil, fmt.Errorf("no chat %d; /list shows %s", n, pluralize(len(snap.Conversations), "chat"))
	}
	return &snap.Conversations[n-1], nil
}

func (r *REPL) switchTo(arg string) error {
	conv, err := r.conversationAt(arg)
	if err != nil {
		return err
	}
	r.store.SelectConversation(conv.ID)
	r.printTranscript(conv)
	return nil
}

func (r *REPL) deleteOne(ctx context.Context, arg string) error {
	var conv *model.Conversation
	if arg == "" {
		conv = r.store.Snapshot().Active()
		if conv == nil {
			return errNoActiveChat
		}
	} else {
		var err error
		if conv, err = r.conversationAt(arg); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.store.DeleteConversation(ctx, conv.ID); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s %s\n", SuccessStyle.Render("[Deleted]"), conv.DisplayTitle())
	return nil
}

// deleteAll runs the two-phase delete. The request is withdrawn unless the
// user confirms.
func (r *REPL) deleteAll(ctx context.Context) error {
	req, err := r.store.RequestDeleteAll()
	if err != nil {
		return err
	}

	ok, err := RequireConfirmation("delete all chats",
		ConfirmationOptions{Yes: r.yes, Interactive: r.interactive}, r.in.Prompt)
	if err != nil || !ok {
		req.Cancel()
		if err == nil {
			ShowCancellationMessage(r.out)
		}
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := req.Confirm(ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.out, SuccessStyle.Render("[Deleted all chats]"))
	fmt.Fprintln(r.out, DimStyle.Render("Use /new to start again."))
	return nil
}

func (r *REPL) rewrite(ctx context.Context, kind model.ActionKind) error {
	conv := r.store.Snapshot().Active()
	if conv == nil {
		return errNoActiveChat
	}
	reply, ok := r.lastReply()
	if !ok {
		return errNoReply
	}
	if !reply.IsConfirmed() {
		return errNotEditable
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	fmt.Fprintln(r.out, DimStyle.Render(kind.Label()+"..."))
	if err := r.store.ApplyAction(ctx, conv.ID, reply.ID(), kind); err != nil {
		return err
	}
	if updated, ok := r.lastReply(); ok {
		r.printMessage(updated)
	}
	return nil
}

func (r *REPL) copyReply() error {
	reply, ok := r.lastReply()
	if !ok {
		return errNoReply
	}
	if r.copier == nil {
		return fmt.Errorf("no clipboard available")
	}
	method, err := r.copier.Copy(reply.Content)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s %s\n", SuccessStyle.Render("Copied!"), DimStyle.Render("("+method.String()+")"))
	return nil
}
