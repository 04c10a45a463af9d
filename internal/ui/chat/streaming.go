// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation screen of the penny TUI.
package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pennyworth/penny-tui/internal/commands"
	"github.com/pennyworth/penny-tui/internal/session"
)

// renderInterval caps transcript refreshes while a reply streams in. 33ms
// keeps the cursor smooth without re-wrapping the transcript once per token.
const renderInterval = 33 * time.Millisecond

// probeTimeout bounds the startup reachability probe.
const probeTimeout = 5 * time.Second

// =============================================================================
// COMMANDS
// =============================================================================

// renderTickCmd schedules the next streaming refresh.
func renderTickCmd() tea.Cmd {
	return tea.Tick(renderInterval, func(t time.Time) tea.Msg {
		return RenderTickMsg{Time: t}
	})
}

// sendTurnCmd runs one question turn on the controller. SendTo blocks until
// the reply finishes, so it belongs in the command goroutine; the registry
// absorbs reply deltas as they arrive and the render tick picks them up.
func sendTurnCmd(ctx context.Context, ctrl *session.Controller, threadID, text string) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.SendTo(ctx, threadID, text)
		return TurnDoneMsg{ThreadID: threadID, Err: err}
	}
}

// probeBackendCmd checks advisor reachability once at startup.
func probeBackendCmd(prober commands.StatusProber) tea.Cmd {
	return func() tea.Msg {
		if prober == nil {
			return BackendProbeMsg{Err: errors.New("no advisor client configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		report, err := prober.Status(ctx)
		return BackendProbeMsg{Report: report, Err: err}
	}
}

// =============================================================================
// RENDER CACHE
// =============================================================================

// renderCache detects unchanged transcript frames. The render tick fires at
// a fixed rate whether or not new deltas arrived, and viewport.SetContent
// resets the viewport's internal line cache, so identical frames are worth
// skipping. Comparing content hashes instead of the content keeps the last
// frame from being retained twice.
type renderCache struct {
	lastHash string
}

// changed reports whether content differs from the last rendered frame and
// records it as current.
func (rc *renderCache) changed(content string) bool {
	h := hashContent(content)
	if h == rc.lastHash {
		return false
	}
	rc.lastHash = h
	return true
}

// invalidate forces the next frame to render regardless of content. Needed
// after resizes and thread switches, where the viewport itself changed.
func (rc *renderCache) invalidate() {
	rc.lastHash = ""
}

func hashContent(content string) string {
	if content == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
