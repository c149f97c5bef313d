// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// DefaultTitle is shown for conversations that have no title yet.
const DefaultTitle = "New Chat"

// TitleMaxRunes is how many runes of the first user message become the title.
const TitleMaxRunes = 30

// Conversation is a titled, ordered sequence of messages owned by one identity.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	Messages  []Message
}

// DisplayTitle returns the title, or DefaultTitle when empty.
func (c *Conversation) DisplayTitle() string {
	if strings.TrimSpace(c.Title) == "" {
		return DefaultTitle
	}
	return c.Title
}

// Append adds messages to the end of the conversation.
func (c *Conversation) Append(msgs ...Message) {
	c.Messages = append(c.Messages, msgs...)
}

// IndexOf returns the position of the message with the given id, or -1.
func (c *Conversation) IndexOf(id string) int {
	for i, m := range c.Messages {
		if m.ID() == id {
			return i
		}
	}
	return -1
}

// HasMessage reports whether a message with the given id is present.
func (c *Conversation) HasMessage(id string) bool {
	return c.IndexOf(id) >= 0
}

// Replace swaps the message with the given id for msg, keeping its position.
// It returns false when no such message exists.
func (c *Conversation) Replace(id string, msg Message) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	c.Messages[i] = msg
	return true
}

// StripPending removes every pending message and returns how many were removed.
func (c *Conversation) StripPending() int {
	kept := c.Messages[:0]
	removed := 0
	for _, m := range c.Messages {
		switch m.Ref.(type) {
		case Pending:
			removed++
		case Confirmed, Local:
			kept = append(kept, m)
		}
	}
	// Clear the tail so dropped messages can be collected.
	for i := len(kept); i < len(c.Messages); i++ {
		c.Messages[i] = Message{}
	}
	c.Messages = kept
	return removed
}

// PendingCount returns the number of optimistic messages.
func (c *Conversation) PendingCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.IsPending() {
			n++
		}
	}
	return n
}

// HasConfirmedExchange reports whether the backend has stored any message of
// this conversation.
func (c *Conversation) HasConfirmedExchange() bool {
	for _, m := range c.Messages {
		if m.IsConfirmed() {
			return true
		}
	}
	return false
}

// LastAI returns the index of the most recent AI message, or -1.
func (c *Conversation) LastAI() int {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].IsFromAI() {
			return i
		}
	}
	return -1
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty reports whether the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Clone returns a deep copy that shares nothing with c.
func (c Conversation) Clone() Conversation {
	out := c
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		copy(out.Messages, c.Messages)
	}
	return out
}

// SynthesizeTitle derives a title from the first user message: the first
// TitleMaxRunes runes, with "..." appended when the text is longer.
func SynthesizeTitle(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= TitleMaxRunes {
		return text
	}
	return string(runes[:TitleMaxRunes]) + "..."
}
