// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the Pratham AI backend.
//
// Every operation is a single request bounded by a fixed timeout. Failures
// are returned as *Error values that classify the failure (timeout, server
// error, not found, ...) so callers can pick the right user-facing message
// with UserMessage.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
)

const (
	// DefaultBaseURL is the hosted backend.
	DefaultBaseURL = "https://pratham-ai-backend.onrender.com/api"

	// DefaultTimeout bounds every request.
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024
)

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client for baseURL. Empty means DefaultBaseURL.
func NewClient(baseURL string) *Client {
	c := &Client{
		timeout: DefaultTimeout,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: DefaultTimeout,
			},
		},
	}
	return c.WithBaseURL(baseURL)
}

// WithBaseURL sets the base URL and returns the client for chaining.
func (c *Client) WithBaseURL(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// WithTimeout overrides the per-request bound. Tests use it to exercise
// timeouts without waiting ten seconds.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.timeout = timeout
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Login registers or resumes username and returns its conversations.
func (c *Client) Login(ctx context.Context, username string) (*LoginResult, error) {
	const op = "login"
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationError(op, "Username is required")
	}

	var resp LoginResponse
	if err := c.do(ctx, op, http.MethodPost, "/login", loginRequest{Username: username}, &resp); err != nil {
		return nil, err
	}
	name := resp.Username
	if name == "" {
		name = username
	}
	return &LoginResult{Username: name, Conversations: chatsToModel(resp.Chats)}, nil
}

// ListConversations returns the conversations of username, most recent first.
func (c *Client) ListConversations(ctx context.Context, username string) ([]model.Conversation, error) {
	const op = "list chats"
	var chats []ChatJSON
	if err := c.do(ctx, op, http.MethodGet, chatsPath(username), nil, &chats); err != nil {
		return nil, err
	}
	return chatsToModel(chats), nil
}

// CreateConversation creates an empty conversation. An empty title lets the
// backend choose.
func (c *Client) CreateConversation(ctx context.Context, username, title string) (*model.Conversation, error) {
	const op = "create chat"
	var chat ChatJSON
	if err := c.do(ctx, op, http.MethodPost, chatsPath(username), createChatRequest{Title: title}, &chat); err != nil {
		return nil, err
	}
	conv := chat.ToModel()
	return &conv, nil
}

// SendMessage stores content in the conversation and returns the stored user
// message together with the AI response.
func (c *Client) SendMessage(ctx context.Context, username, chatID, content string) (*SendResult, error) {
	const op = "send message"
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &Error{Kind: KindInvalidRequest, Op: op, Reason: "Message cannot be empty"}
	}

	var resp SendMessageResponse
	path := chatsPath(username, chatID, "messages")
	if err := c.do(ctx, op, http.MethodPost, path, sendMessageRequest{Content: content, Message: content}, &resp); err != nil {
		return nil, err
	}
	return &SendResult{
		UserMessage: resp.UserMessage.ToModel(),
		AIResponse:  resp.AIResponse.ToModel(),
		Title:       resp.ChatTitle,
	}, nil
}

// DeleteConversation deletes one conversation.
func (c *Client) DeleteConversation(ctx context.Context, username, chatID string) error {
	var ack Ack
	return c.do(ctx, "delete chat", http.MethodDelete, chatsPath(username, chatID), nil, &ack)
}

// DeleteAllConversations deletes every conversation of username.
func (c *Client) DeleteAllConversations(ctx context.Context, username string) error {
	var ack Ack
	return c.do(ctx, "delete all chats", http.MethodDelete, chatsPath(username), nil, &ack)
}

// ApplyAction asks the backend to rewrite an AI message and returns the
// replacement.
func (c *Client) ApplyAction(ctx context.Context, username, chatID, messageID string, kind model.ActionKind) (*model.Message, error) {
	const op = "apply action"
	if !kind.Valid() {
		return nil, &Error{Kind: KindInvalidRequest, Op: op, Reason: fmt.Sprintf("Unknown action %q", string(kind))}
	}

	var resp ActionResponse
	path := chatsPath(username, chatID, "actions")
	req := actionRequest{MessageID: messageID, ActionKind: string(kind), Action: kind.LegacyName()}
	if err := c.do(ctx, op, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	msg := resp.Message.ToModel()
	return &msg, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// chatsPath builds /chats/{username}/{segments...} with escaped segments.
func chatsPath(username string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/chats/")
	b.WriteString(url.PathEscape(username))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// do performs one request. A nil body sends no payload; a nil out discards
// the response body.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := transportError(op, err)
		logging.WithFields(logging.Fields{
			"method":   method,
			"path":     path,
			"kind":     apiErr.Kind.String(),
			"duration": time.Since(start).Round(time.Millisecond),
		}).Warn("request failed")
		return apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return transportError(op, err)
	}

	logging.WithFields(logging.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleErrorResponse(op, resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindUnknown, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// handleErrorResponse turns a non-2xx response into an *Error.
func handleErrorResponse(op string, status int, body []byte) error {
	var errResp apiErrorResponse
	reason := ""
	if json.Unmarshal(body, &errResp) == nil {
		reason = errResp.Error
		if reason == "" {
			reason = errResp.Message
		}
	}
	return &Error{Kind: kindForStatus(status), Op: op, Status: status, Reason: reason}
}
