// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pennyworth/penny-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTitle is the placeholder title for threads that have not yet
	// derived one from their first user message.
	DefaultTitle = "New Chat"

	// TitleMaxRunes is how much of the first user message becomes the title.
	TitleMaxRunes = 40
)

// =============================================================================
// THREAD TYPE
// =============================================================================

// Thread is one conversation. Timestamps are milliseconds since the epoch to
// match the persisted JSON format.
type Thread struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
	Pinned    bool   `json:"pinned"`
}

// NewThread creates a thread with a fresh id, the default title, and both
// timestamps set to now.
func NewThread() *Thread {
	now := NowMillis()
	return &Thread{
		ID:        NewThreadID(),
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch refreshes UpdatedAt. Called on every message-list mutation; pin
// toggles deliberately do not call it.
func (t *Thread) Touch() {
	t.UpdatedAt = NowMillis()
}

// SetTitle assigns a title, substituting the default for empty or
// whitespace-only input.
func (t *Thread) SetTitle(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	t.Title = title
}

// HasDefaultTitle reports whether the thread still carries the placeholder.
func (t *Thread) HasDefaultTitle() bool {
	return t.Title == DefaultTitle
}

// LastActivity returns the later of the two timestamps. Imported or migrated
// state can carry UpdatedAt older than CreatedAt.
func (t *Thread) LastActivity() int64 {
	if t.UpdatedAt > t.CreatedAt {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

// =============================================================================
// ORDERING
// =============================================================================

// SortThreads orders threads in place: pinned first, then most recent
// activity first. Callers re-sort on every read; the order is never persisted.
func SortThreads(threads []*Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		if threads[i].Pinned != threads[j].Pinned {
			return threads[i].Pinned
		}
		return threads[i].LastActivity() > threads[j].LastActivity()
	})
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// DeriveTitle builds a thread title from the first user message: the first
// TitleMaxRunes runes, with a single ellipsis rune appended when the message
// was longer. Returns "" when no user message exists yet.
func DeriveTitle(msgs []Message) string {
	for _, m := range msgs {
		if m.Role != RoleUser {
			continue
		}
		title := util.Ellipsize(strings.TrimSpace(m.Content), TitleMaxRunes)
		if title == "" {
			return ""
		}
		return title
	}
	return ""
}

// =============================================================================
// ID GENERATION
// =============================================================================

var (
	idMu     sync.Mutex
	lastIDMs int64
)

// NewThreadID returns a time-ordered unique id. When the clock has not
// advanced since the previous call (rapid creation), the id bumps by one
// millisecond so ids stay strictly increasing.
func NewThreadID() string {
	idMu.Lock()
	defer idMu.Unlock()

	now := time.Now().UnixMilli()
	if now <= lastIDMs {
		now = lastIDMs + 1
	}
	lastIDMs = now
	return strconv.FormatInt(now, 10)
}

// NowMillis returns the current time in milliseconds since the epoch.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
