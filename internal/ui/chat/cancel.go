// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation screen of the penny TUI.
package chat

import (
	"context"
	"sync"
)

// =============================================================================
// TURN TRACKER
// =============================================================================

// turnTracker holds the cancel function for every thread with an in-flight
// question turn. A turn stays bound to the thread it started on, so several
// threads can stream at once and cancelling one leaves the others running.
//
// Model must hold it as a pointer: Bubble Tea copies the model on every
// update, and the mutex and map have to be shared across those copies.
type turnTracker struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newTurnTracker() *turnTracker {
	return &turnTracker{cancels: make(map[string]context.CancelFunc)}
}

// begin creates the context for a new turn on threadID and stores its cancel
// function. A stale entry for the same thread is cancelled first so its
// context cannot leak; the controller's busy slot normally prevents one from
// existing at all.
func (t *turnTracker) begin(threadID string) context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cancel, ok := t.cancels[threadID]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancels[threadID] = cancel
	return ctx
}

// cancel aborts the in-flight turn on threadID, if any. The turn's command
// goroutine still delivers its TurnDoneMsg, which calls finish.
func (t *turnTracker) cancel(threadID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cancel, ok := t.cancels[threadID]; ok {
		cancel()
		delete(t.cancels, threadID)
	}
}

// finish releases threadID's slot after its turn completed. Cancelling on
// the normal path too keeps the context from leaking.
func (t *turnTracker) finish(threadID string) {
	t.cancel(threadID)
}

// active reports whether threadID has an in-flight turn.
func (t *turnTracker) active(threadID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.cancels[threadID]
	return ok
}

// count returns the number of in-flight turns across all threads.
func (t *turnTracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.cancels)
}
