// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversation threads,
// messages, and user settings.
//
// # Key Types
//
//   - Thread: A conversation with title, pin state, and activity timestamps
//   - Message: Single message with role, content, timestamp, and optional
//     tool results
//   - Settings: User preferences (streaming, history, motion, text size, model)
//   - ModelInfo: Information about an advisor model (ID, provider)
//
// Threads sort pinned-first, then by most recent activity; the order is
// recomputed on every read and never stored. Messages are immutable once a
// turn completes, with two exceptions: tool-result payloads may be merged
// with recalculated values, and editing a user message discards everything
// after it.
//
// # Usage
//
// Create a thread and derive its title from the first user message:
//
//	th := model.NewThread()
//	msgs := []model.Message{model.NewUserMessage("how much house can I afford?")}
//	th.Title = model.DeriveTitle(msgs)
package model
