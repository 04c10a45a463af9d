// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation screen of the penny TUI.
package chat

import (
	"time"

	"github.com/pennyworth/penny-tui/internal/advisor"
)

// =============================================================================
// TURN MESSAGES
// =============================================================================

// TurnDoneMsg reports that a question turn finished and its thread's busy
// slot cleared. Err is session.ErrBusy when the send was rejected outright;
// failures inside the turn surface as fallback messages in the transcript,
// not as errors here.
type TurnDoneMsg struct {
	ThreadID string
	Err      error
}

// =============================================================================
// RENDER MESSAGES
// =============================================================================

// RenderTickMsg drives transcript refreshes while replies stream in. Deltas
// land in the session registry from the controller's goroutine; the tick
// re-reads them at a capped rate instead of re-rendering per token.
type RenderTickMsg struct {
	Time time.Time
}

// =============================================================================
// BACKEND MESSAGES
// =============================================================================

// BackendProbeMsg carries the result of the startup reachability probe.
// Unlike /status, the probe only updates the status bar and never opens an
// error banner over a screen the user has not touched yet.
type BackendProbeMsg struct {
	Report advisor.StatusResponse
	Err    error
}
