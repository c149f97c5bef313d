// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the logged-in identity.
//
// A Store owns at most one identity. It is persisted to a single file (the
// storage key) so the next start can route straight to the chat screen, and
// it notifies subscribers whenever the identity changes. There is no
// package-level instance; callers create one Store and pass it around.
//
// # Usage
//
//	sess, err := session.Open(cfg.Session.File)
//	if name, ok := sess.Active(); ok {
//	    // already logged in as name
//	}
//	cancel := sess.Subscribe(func(name string, active bool) { ... })
//	defer cancel()
package session
