// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"time"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// MessageJSON is a message as the backend sends it.
type MessageJSON struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatJSON is a conversation as the backend sends it.
type ChatJSON struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Messages  []MessageJSON `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
}

type loginRequest struct {
	Username string `json:"username"`
}

// LoginResponse is the body of POST /login.
type LoginResponse struct {
	Username string     `json:"username"`
	Chats    []ChatJSON `json:"chats"`
}

type createChatRequest struct {
	Title string `json:"title,omitempty"`
}

// sendMessageRequest carries the content under both the current and the
// legacy field name; the hosted backend reads "message".
type sendMessageRequest struct {
	Content string `json:"content"`
	Message string `json:"message"`
}

// SendMessageResponse is the body of POST /chats/{u}/{id}/messages.
type SendMessageResponse struct {
	UserMessage MessageJSON `json:"userMessage"`
	AIResponse  MessageJSON `json:"aiResponse"`
	ChatTitle   string      `json:"chatTitle,omitempty"`
}

// actionRequest names the transform twice: "actionKind" and the legacy
// "action", where shorten is spelled "concise".
type actionRequest struct {
	MessageID  string `json:"messageId"`
	ActionKind string `json:"actionKind"`
	Action     string `json:"action"`
}

// ActionResponse is the body of POST /chats/{u}/{id}/actions.
type ActionResponse struct {
	Message MessageJSON `json:"message"`
}

// Ack is the success acknowledgment of delete calls.
type Ack struct {
	Success bool `json:"success"`
}

// apiErrorResponse is the error body; servers use either field.
type apiErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// =============================================================================
// CONVERSION
// =============================================================================

// ToModel converts a wire message into a confirmed model message.
func (m MessageJSON) ToModel() model.Message {
	sender := model.SenderAI
	if m.Sender == string(model.SenderUser) {
		sender = model.SenderUser
	}
	return model.NewConfirmedMessage(m.ID, sender, m.Content, m.Timestamp)
}

// ToModel converts a wire chat into a model conversation.
func (c ChatJSON) ToModel() model.Conversation {
	conv := model.Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		Messages:  make([]model.Message, 0, len(c.Messages)),
	}
	for _, m := range c.Messages {
		conv.Messages = append(conv.Messages, m.ToModel())
	}
	return conv
}

// FromModel converts a model message into its wire form.
func FromModel(m model.Message) MessageJSON {
	return MessageJSON{
		ID:        m.ID(),
		Content:   m.Content,
		Sender:    m.Sender.String(),
		Timestamp: m.Timestamp,
	}
}

func chatsToModel(chats []ChatJSON) []model.Conversation {
	out := make([]model.Conversation, 0, len(chats))
	for _, c := range chats {
		out = append(out, c.ToModel())
	}
	return out
}

// =============================================================================
// RESULTS
// =============================================================================

// LoginResult is the outcome of Login.
type LoginResult struct {
	Username      string
	Conversations []model.Conversation
}

// SendResult is the outcome of SendMessage.
type SendResult struct {
	UserMessage model.Message
	AIResponse  model.Message
	// Title is the server-provided title, empty when none was sent.
	Title string
}
