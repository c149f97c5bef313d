// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is a self-contained chat backend for local development and
// tests. It implements the same HTTP contract the client speaks, so the TUI
// and REPL can run without the hosted service.
//
// # Endpoints
//
//   - POST   /api/login                             - Sign in, returns chats
//   - GET    /api/chats/{username}                  - List chats
//   - POST   /api/chats/{username}                  - Create a chat
//   - DELETE /api/chats/{username}                  - Delete all chats
//   - DELETE /api/chats/{username}/{chatID}         - Delete one chat
//   - POST   /api/chats/{username}/{chatID}/messages - Send a message
//   - POST   /api/chats/{username}/{chatID}/actions  - Shorten or expand a reply
//   - GET    /health                                - Health check
//
// Chats are stored in SQLite (modernc.org/sqlite, no cgo). Replies come
// from a Responder; CannedResponder gives deterministic answers.
//
// # Middleware
//
//   - Request ids and real client IPs (chi middleware)
//   - Structured request logging (method, path, status, duration)
//   - Panic recovery, security headers and CORS
//   - Per-client token bucket rate limiting (golang.org/x/time/rate)
//   - Request body size limit
//
// # Usage
//
//	storage, err := server.OpenStorage(cfg.Server.DBPath)
//	if err != nil {
//		return err
//	}
//	defer storage.Close()
//	srv := server.New(storage, nil, server.Options{Addr: cfg.Server.Addr})
//	return srv.ListenAndServe(ctx)
package server
