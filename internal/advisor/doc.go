// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package advisor implements the HTTP client for the penny advisor backend.
//
// The backend answers finance questions over two endpoints: a single-shot
// ask call and a streamed variant that delivers the reply as Server-Sent
// Events (tool results first, then token fragments, then a done marker).
// The client exposes the stream as a channel of typed events; framing and
// transport details stay inside this package.
//
// Open failures are reported as *StreamOpenError so callers can fall back
// to the single-shot path. Malformed frames are skipped, never fatal.
package advisor
