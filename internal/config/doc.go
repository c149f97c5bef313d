// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the client configuration.
//
// Configuration is read from ~/.pratham/config.toml. Values are resolved in
// this order, later sources winning:
//
//  1. built-in defaults
//  2. the TOML file
//  3. a .env file in the working directory (only fills unset variables)
//  4. PRATHAM_* environment variables
//
// # Environment Variables
//
//   - PRATHAM_API_URL: api.base_url
//   - PRATHAM_SESSION_FILE: session.file
//   - PRATHAM_LOG_LEVEL, PRATHAM_LOG_FORMAT, PRATHAM_LOG_FILE: log.*
//   - PRATHAM_SPEECH_COMMAND: speech.command (split on spaces)
//   - PRATHAM_SERVER_ADDR, PRATHAM_SERVER_DB: server.addr, server.db_path
//   - PRATHAM_MARKDOWN: ui.markdown
//
// Watch reports changes of the file so a running client can reload it.
package config
