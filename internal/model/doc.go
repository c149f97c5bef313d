// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: titled, ordered sequence of messages
//   - Message: content, sender and a Ref identifying the message
//   - Ref: Pending (optimistic), Confirmed (stored by the backend) or Local
//   - ActionKind: backend transform of an AI message (shorten, expand)
//
// # Usage
//
// Optimistic insert followed by reconciliation:
//
//	conv.Append(model.Message{
//	    Ref:     model.NewPending(time.Now()),
//	    Sender:  model.SenderUser,
//	    Content: "Hello!",
//	})
//	// ... backend call succeeds
//	conv.StripPending()
//	conv.Append(userMsg, aiMsg)
package model
