// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// String returns the wire value of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAI:
		return "Pratham AI"
	default:
		return string(s)
	}
}

// =============================================================================
// MESSAGE IDENTITY
// =============================================================================

// TempIDPrefix marks client-generated ids of optimistic messages.
const TempIDPrefix = "temp-"

// Ref is the identity of a message. It is one of Pending, Confirmed or Local.
type Ref interface {
	// Key returns the id used to address the message.
	Key() string
	isRef()
}

// Pending is an optimistic message that has been submitted but not yet
// acknowledged by the backend.
type Pending struct {
	ClientID    string
	SubmittedAt time.Time
}

// Confirmed is a message stored by the backend.
type Confirmed struct {
	ServerID string
}

// Local is a message generated on this client that never reaches the backend.
type Local struct {
	ID string
}

func (p Pending) Key() string   { return p.ClientID }
func (c Confirmed) Key() string { return c.ServerID }
func (l Local) Key() string     { return l.ID }

func (Pending) isRef()   {}
func (Confirmed) isRef() {}
func (Local) isRef()     {}

// NewPending creates the identity of an optimistic message submitted at t.
func NewPending(t time.Time) Pending {
	return Pending{
		ClientID:    TempIDPrefix + strconv.FormatInt(t.UnixNano(), 10),
		SubmittedAt: t,
	}
}

// NewLocal creates a random local identity.
func NewLocal() Local {
	return Local{ID: "local-" + uuid.NewString()}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation.
type Message struct {
	Ref       Ref
	Content   string
	Sender    Sender
	Timestamp time.Time
}

// ID returns the addressable id of the message.
func (m Message) ID() string {
	if m.Ref == nil {
		return ""
	}
	return m.Ref.Key()
}

// IsPending reports whether the message is still awaiting confirmation.
func (m Message) IsPending() bool {
	_, ok := m.Ref.(Pending)
	return ok
}

// IsConfirmed reports whether the backend knows about the message.
func (m Message) IsConfirmed() bool {
	_, ok := m.Ref.(Confirmed)
	return ok
}

// IsFromAI reports whether the message was written by the assistant.
func (m Message) IsFromAI() bool {
	return m.Sender == SenderAI
}

// Preview returns a single-line preview of the content, truncated to maxLen runes.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	for i, r := range runes {
		if r == '\n' || r == '\r' {
			runes = runes[:i]
			break
		}
	}
	if maxLen > 0 && len(runes) > maxLen {
		if maxLen <= 3 {
			return string(runes[:maxLen])
		}
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes)
}

// NewConfirmedMessage builds a message as returned by the backend.
func NewConfirmedMessage(id string, sender Sender, content string, ts time.Time) Message {
	return Message{
		Ref:       Confirmed{ServerID: id},
		Content:   content,
		Sender:    sender,
		Timestamp: ts,
	}
}
