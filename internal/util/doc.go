// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the client.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - RemoveFile: delete a file, treating "already gone" as success
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - FirstSentence: leading sentence of a paragraph
package util
