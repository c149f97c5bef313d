// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/util"
)

// ErrEmptyUsername is returned by Login for blank names.
var ErrEmptyUsername = errors.New("username is required")

// Listener is called after every identity change.
type Listener func(username string, active bool)

// Store holds the active identity.
type Store struct {
	mu       sync.Mutex
	path     string
	username string

	nextID    int
	listeners map[int]Listener
}

// Open creates a Store persisted at path and restores any saved identity.
// An empty path keeps the identity in memory only.
func Open(path string) (*Store, error) {
	s := &Store{path: path, listeners: make(map[int]Listener)}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		s.username = strings.TrimSpace(string(data))
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read session: %w", err)
	}
	if s.username != "" {
		logging.Debugf("session restored for %s", s.username)
	}
	return s, nil
}

// Login sets and persists the identity. The name is trimmed first.
func (s *Store) Login(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}

	s.mu.Lock()
	if s.path != "" {
		if err := util.AtomicWriteFile(s.path, []byte(username+"\n"), 0600); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("save session: %w", err)
		}
	}
	s.username = username
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	logging.Infof("logged in as %s", username)
	notify(listeners, username, true)
	return nil
}

// Logout clears the identity in memory and on disk.
func (s *Store) Logout() error {
	s.mu.Lock()
	var err error
	if s.path != "" {
		err = util.RemoveFile(s.path)
	}
	was := s.username
	s.username = ""
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if was != "" {
		logging.Infof("logged out %s", was)
	}
	notify(listeners, "", false)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Active returns the identity and whether one is set.
func (s *Store) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username, s.username != ""
}

// IsActive reports whether an identity is set.
func (s *Store) IsActive() bool {
	_, ok := s.Active()
	return ok
}

// Path returns the storage file, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Subscribe registers fn for identity changes and returns a function that
// removes it.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// snapshotListeners copies the listeners. Caller must hold mu.
func (s *Store) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []Listener, username string, active bool) {
	for _, fn := range listeners {
		fn(username, active)
	}
}
