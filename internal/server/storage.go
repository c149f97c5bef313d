// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/api"
)

// ErrChatNotFound is returned when a chat does not exist for the user.
var ErrChatNotFound = errors.New("chat not found")

// ErrMessageNotFound is returned when a message does not exist in the chat.
var ErrMessageNotFound = errors.New("message not found")

// Schema creates the storage tables.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    username   TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chats (
    id         TEXT PRIMARY KEY,
    username   TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    title      TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_username ON chats(username, created_at);

CREATE TABLE IF NOT EXISTS messages (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL UNIQUE,
    chat_id    TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
    sender     TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, seq);
`

// Storage persists users, chats and messages in SQLite.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

// OpenStorage opens (or creates) the database at path. ":memory:" gives a
// throwaway database.
func OpenStorage(path string) (*Storage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an
	// in-memory database alive between calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Storage{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

// EnsureUser creates the user row if it does not exist.
func (s *Storage) EnsureUser(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, created_at) VALUES (?, ?) ON CONFLICT(username) DO NOTHING",
		username, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// ListChats returns the user's chats, newest first, with their messages in
// order.
func (s *Storage) ListChats(ctx context.Context, username string) ([]api.ChatJSON, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, created_at FROM chats WHERE username = ? ORDER BY created_at DESC, rowid DESC",
		username)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := make([]api.ChatJSON, 0)
	byID := make(map[string]int)
	for rows.Next() {
		var c api.ChatJSON
		var created int64
		if err := rows.Scan(&c.ID, &c.Title, &created); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		c.CreatedAt = time.Unix(0, created).UTC()
		c.Messages = make([]api.MessageJSON, 0)
		byID[c.ID] = len(chats)
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	rows.Close()

	msgRows, err := s.db.QueryContext(ctx, `
		SELECT m.chat_id, m.id, m.sender, m.content, m.created_at
		FROM messages m JOIN chats c ON c.id = m.chat_id
		WHERE c.username = ?
		ORDER BY m.seq`, username)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var chatID string
		m, err := scanMessage(msgRows, &chatID)
		if err != nil {
			return nil, err
		}
		if i, ok := byID[chatID]; ok {
			chats[i].Messages = append(chats[i].Messages, m)
		}
	}
	if err := msgRows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return chats, nil
}

// CreateChat adds an empty chat for the user, creating the user if needed.
func (s *Storage) CreateChat(ctx context.Context, username, title string) (api.ChatJSON, error) {
	if err := s.EnsureUser(ctx, username); err != nil {
		return api.ChatJSON{}, err
	}

	chat := api.ChatJSON{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: s.now().UTC(),
		Messages:  []api.MessageJSON{},
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chats (id, username, title, created_at) VALUES (?, ?, ?, ?)",
		chat.ID, username, chat.Title, chat.CreatedAt.UnixNano())
	if err != nil {
		return api.ChatJSON{}, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

// ChatTitle returns the chat's title, or ErrChatNotFound.
func (s *Storage) ChatTitle(ctx context.Context, username, chatID string) (string, error) {
	var title string
	err := s.db.QueryRowContext(ctx,
		"SELECT title FROM chats WHERE id = ? AND username = ?", chatID, username).Scan(&title)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrChatNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get chat: %w", err)
	}
	return title, nil
}

// AppendExchange stores a user message and its reply, and sets the chat
// title when it is still empty. It returns both stored messages and the
// resulting title.
func (s *Storage) AppendExchange(ctx context.Context, username, chatID, content, reply, title string) (user, ai api.MessageJSON, chatTitle string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return user, ai, "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		"SELECT title FROM chats WHERE id = ? AND username = ?", chatID, username).Scan(&chatTitle)
	if errors.Is(err, sql.ErrNoRows) {
		return user, ai, "", ErrChatNotFound
	}
	if err != nil {
		return user, ai, "", fmt.Errorf("get chat: %w", err)
	}

	now := s.now().UTC()
	user = api.MessageJSON{ID: uuid.NewString(), Sender: "user", Content: content, Timestamp: now}
	ai = api.MessageJSON{ID: uuid.NewString(), Sender: "ai", Content: reply, Timestamp: now}
	for _, m := range []api.MessageJSON{user, ai} {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO messages (id, chat_id, sender, content, created_at) VALUES (?, ?, ?, ?, ?)",
			m.ID, chatID, m.Sender, m.Content, m.Timestamp.UnixNano()); err != nil {
			return user, ai, "", fmt.Errorf("insert message: %w", err)
		}
	}

	if chatTitle == "" && title != "" {
		if _, err := tx.ExecContext(ctx, "UPDATE chats SET title = ? WHERE id = ?", title, chatID); err != nil {
			return user, ai, "", fmt.Errorf("set title: %w", err)
		}
		chatTitle = title
	}

	if err := tx.Commit(); err != nil {
		return user, ai, "", fmt.Errorf("commit: %w", err)
	}
	return user, ai, chatTitle, nil
}

// Message returns one message of a chat.
func (s *Storage) Message(ctx context.Context, username, chatID, messageID string) (api.MessageJSON, error) {
	if _, err := s.ChatTitle(ctx, username, chatID); err != nil {
		return api.MessageJSON{}, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT chat_id, id, sender, content, created_at FROM messages WHERE id = ? AND chat_id = ?",
		messageID, chatID)
	var owner string
	m, err := scanMessage(row, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return api.MessageJSON{}, ErrMessageNotFound
	}
	return m, err
}

// UpdateMessageContent replaces a message's content in place.
func (s *Storage) UpdateMessageContent(ctx context.Context, chatID, messageID, content string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET content = ? WHERE id = ? AND chat_id = ?", content, messageID, chatID)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// DeleteChat removes one chat and its messages.
func (s *Storage) DeleteChat(ctx context.Context, username, chatID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM chats WHERE id = ? AND username = ?", chatID, username)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrChatNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return tx.Commit()
}

// DeleteAllChats removes every chat of the user.
func (s *Storage) DeleteAllChats(ctx context.Context, username string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM messages WHERE chat_id IN (SELECT id FROM chats WHERE username = ?)", username); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chats WHERE username = ?", username); err != nil {
		return fmt.Errorf("delete chats: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner, chatID *string) (api.MessageJSON, error) {
	var m api.MessageJSON
	var created int64
	if err := row.Scan(chatID, &m.ID, &m.Sender, &m.Content, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("scan message: %w", err)
	}
	m.Timestamp = time.Unix(0, created).UTC()
	return m, nil
}
