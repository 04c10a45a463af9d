// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"

	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/store"
	"github.com/pennyworth/penny-tui/internal/tools"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry owns the thread list, per-thread message lists, the active thread
// id, drafts, and settings. Every mutation is mirrored to the injected store
// while history saving is enabled; store failures are swallowed and the
// in-memory state stays authoritative for the session.
//
// Threads are kept in insertion order (newest first); display order is the
// sort policy, recomputed on every read and never persisted.
type Registry struct {
	mu       sync.Mutex
	store    store.Store
	threads  []*model.Thread
	messages map[string][]model.Message
	drafts   map[string]string
	activeID string
	settings model.Settings
}

// NewRegistry loads persisted session state from st. Missing or corrupt
// values degrade to empty defaults; a stale active id is re-derived from the
// sorted order.
func NewRegistry(st store.Store) *Registry {
	r := &Registry{
		store:    st,
		messages: make(map[string][]model.Message),
		drafts:   make(map[string]string),
		settings: model.DefaultSettings(),
	}
	r.load()
	return r
}

// RELIABILITY: every decode failure here falls back to the zero value for
// that key, so a damaged store never prevents startup.
func (r *Registry) load() {
	var threads []model.Thread
	if store.GetJSON(r.store, store.KeyThreads, &threads) {
		for i := range threads {
			t := threads[i]
			r.threads = append(r.threads, &t)
		}
	}

	var messages map[string][]model.Message
	if store.GetJSON(r.store, store.KeyMessagesMap, &messages) && messages != nil {
		r.messages = messages
	}

	var settings model.Settings
	if store.GetJSON(r.store, store.KeySettings, &settings) {
		r.settings = settings
	}
	r.settings.Normalize()

	var active string
	store.GetJSON(r.store, store.KeyActiveThread, &active)
	r.activeID = active
	if r.findThread(r.activeID) == nil {
		r.activeID = r.firstSortedID()
	}
}

// =============================================================================
// THREAD OPERATIONS
// =============================================================================

// CreateThread inserts a fresh thread at the front of storage with the
// default title and an empty message list, and makes it active.
func (r *Registry) CreateThread() model.Thread {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := model.NewThread()
	r.threads = append([]*model.Thread{t}, r.threads...)
	r.messages[t.ID] = []model.Message{}
	r.activeID = t.ID

	r.persistThreads()
	r.persistMessages()
	r.persistActive()
	return *t
}

// SelectThread sets the active thread id without validation. Views over an
// unknown id see an empty thread rather than an error.
func (r *Registry) SelectThread(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeID = id
	r.persistActive()
}

// DeleteThread removes a thread along with its messages and draft. When the
// active thread is deleted, the next active is the first thread of the
// post-deletion sorted order, or none if the registry is now empty.
func (r *Registry) DeleteThread(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, t := range r.threads {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	r.threads = append(r.threads[:idx], r.threads[idx+1:]...)
	delete(r.messages, id)
	delete(r.drafts, id)
	_ = r.store.Delete(store.DraftKey(id))

	if r.activeID == id {
		r.activeID = r.firstSortedID()
	}

	r.persistThreads()
	r.persistMessages()
	r.persistActive()
}

// RenameThread sets a thread's title. Empty or whitespace-only input falls
// back to the sentinel title, never an empty string.
func (r *Registry) RenameThread(id, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(id)
	if t == nil {
		return
	}
	t.SetTitle(title)
	r.persistThreads()
}

// TogglePin flips a thread's pinned flag. UpdatedAt is left untouched.
func (r *Registry) TogglePin(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(id)
	if t == nil {
		return
	}
	t.Pinned = !t.Pinned
	r.persistThreads()
}

// =============================================================================
// READS
// =============================================================================

// Threads returns the thread list in display order: pinned first, then most
// recent activity. The order is recomputed on every call.
func (r *Registry) Threads() []model.Thread {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]*model.Thread, len(r.threads))
	copy(sorted, r.threads)
	model.SortThreads(sorted)

	out := make([]model.Thread, len(sorted))
	for i, t := range sorted {
		out[i] = *t
	}
	return out
}

// Thread returns a copy of the thread with the given id.
func (r *Registry) Thread(id string) (model.Thread, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(id)
	if t == nil {
		return model.Thread{}, false
	}
	return *t, true
}

// ActiveID returns the active thread id, which may be empty or stale after a
// selection of an unknown id.
func (r *Registry) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// ActiveThread returns the active thread, reporting false when none exists.
func (r *Registry) ActiveThread() (model.Thread, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(r.activeID)
	if t == nil {
		return model.Thread{}, false
	}
	return *t, true
}

// Messages returns a copy of a thread's message list. Unknown ids yield an
// empty list.
func (r *Registry) Messages(id string) []model.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.messages[id]
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out
}

// ActiveMessages returns the active thread's messages.
func (r *Registry) ActiveMessages() []model.Message {
	return r.Messages(r.ActiveID())
}

// =============================================================================
// MESSAGE MUTATIONS
// =============================================================================

// AppendMessage appends msg to a thread's list, refreshes UpdatedAt, and
// derives the title from the first user message while the thread still
// carries the sentinel title. Returns the new message index, or -1 when the
// thread does not exist.
func (r *Registry) AppendMessage(id string, msg model.Message) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(id)
	if t == nil {
		return -1
	}
	r.messages[id] = append(r.messages[id], msg)
	r.touchLocked(t, id)
	return len(r.messages[id]) - 1
}

// AppendToLastAssistant appends fragment to the last message when it is an
// assistant turn, otherwise starts a new assistant message with fragment as
// its content. Reports false when the thread does not exist.
func (r *Registry) AppendToLastAssistant(id, fragment string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(id)
	if t == nil {
		return false
	}
	msgs := r.messages[id]
	if n := len(msgs); n > 0 && msgs[n-1].Role == model.RoleAssistant {
		msgs[n-1].AppendContent(fragment)
	} else {
		r.messages[id] = append(msgs, model.NewAssistantMessage(fragment))
	}
	r.touchLocked(t, id)
	return true
}

// AttachToolsToLastAssistant binds calculator output to the reply in
// progress. A trailing empty placeholder takes the payload directly, so the
// tokens that follow land on the same message; otherwise a fresh tool
// message is appended. Reports false when the thread does not exist.
func (r *Registry) AttachToolsToLastAssistant(id string, rs *tools.ResultSet, missing []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(id)
	if t == nil {
		return false
	}
	msgs := r.messages[id]
	if n := len(msgs); n > 0 && msgs[n-1].IsEmptyPlaceholder() {
		msgs[n-1].ToolResults = rs
		msgs[n-1].ToolMissing = missing
		msgs[n-1].TS = model.NowMillis()
	} else {
		r.messages[id] = append(msgs, model.NewToolMessage(rs, missing))
	}
	r.touchLocked(t, id)
	return true
}

// SetMessageContent replaces a message's content in place, keeping its
// timestamp and tool attachments.
func (r *Registry) SetMessageContent(id string, index int, content string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(id)
	if t == nil || index < 0 || index >= len(r.messages[id]) {
		return false
	}
	r.messages[id][index].Content = content
	r.touchLocked(t, id)
	return true
}

// ReplaceMessage swaps the message at index.
func (r *Registry) ReplaceMessage(id string, index int, msg model.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(id)
	if t == nil || index < 0 || index >= len(r.messages[id]) {
		return false
	}
	r.messages[id][index] = msg
	r.touchLocked(t, id)
	return true
}

// TruncateMessages keeps the first n messages of a thread and discards the
// rest. A count past the end is a no-op.
func (r *Registry) TruncateMessages(id string, n int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(id)
	if t == nil {
		return false
	}
	if n < 0 {
		n = 0
	}
	if n >= len(r.messages[id]) {
		return true
	}
	r.messages[id] = r.messages[id][:n]
	r.touchLocked(t, id)
	return true
}

// MergeToolResults folds recomputed tool payloads into the message at index.
// This is the one mutation allowed on a completed turn: editing calculator
// assumptions reruns the tool and updates the attached values.
func (r *Registry) MergeToolResults(id string, index int, rs *tools.ResultSet) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.findThread(id)
	if t == nil || index < 0 || index >= len(r.messages[id]) {
		return false
	}
	r.messages[id][index].MergeToolResults(rs)
	r.touchLocked(t, id)
	return true
}

// =============================================================================
// DRAFTS
// =============================================================================

// SetDraft records unsent input for a thread, saved on every keystroke.
// Empty text clears the draft and its stored key.
func (r *Registry) SetDraft(id, text string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if text == "" {
		delete(r.drafts, id)
		_ = r.store.Delete(store.DraftKey(id))
		return
	}
	r.drafts[id] = text
	if r.settings.SaveHistory {
		_ = store.SetJSON(r.store, store.DraftKey(id), text)
	}
}

// Draft returns the saved draft for a thread, preferring the in-session copy
// over the stored one.
func (r *Registry) Draft(id string) string {
	if id == "" {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if text, ok := r.drafts[id]; ok {
		return text
	}
	var text string
	store.GetJSON(r.store, store.DraftKey(id), &text)
	return text
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings returns a copy of the current settings.
func (r *Registry) Settings() model.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// UpdateSettings applies fn to the settings and persists the result.
// Settings always persist, even while history saving is off; turning history
// saving on flushes the full in-memory session to the store.
func (r *Registry) UpdateSettings(fn func(*model.Settings)) model.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasSaving := r.settings.SaveHistory
	fn(&r.settings)
	r.settings.Normalize()
	_ = store.SetJSON(r.store, store.KeySettings, r.settings)

	if !wasSaving && r.settings.SaveHistory {
		r.persistThreads()
		r.persistMessages()
		r.persistActive()
	}
	return r.settings
}

// =============================================================================
// INTERNALS
// =============================================================================

// findThread returns the thread with the given id. Callers hold mu.
func (r *Registry) findThread(id string) *model.Thread {
	if id == "" {
		return nil
	}
	for _, t := range r.threads {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// firstSortedID returns the id of the first thread in display order, or ""
// when the registry is empty. Callers hold mu.
func (r *Registry) firstSortedID() string {
	if len(r.threads) == 0 {
		return ""
	}
	sorted := make([]*model.Thread, len(r.threads))
	copy(sorted, r.threads)
	model.SortThreads(sorted)
	return sorted[0].ID
}

// touchLocked refreshes UpdatedAt, derives a sentinel title from the first
// user message, and mirrors the mutated state. Callers hold mu.
func (r *Registry) touchLocked(t *model.Thread, id string) {
	t.Touch()
	if t.HasDefaultTitle() {
		if title := model.DeriveTitle(r.messages[id]); title != "" {
			t.Title = title
		}
	}
	r.persistThreads()
	r.persistMessages()
}

// persistThreads mirrors the thread list in insertion order. Callers hold mu.
func (r *Registry) persistThreads() {
	if !r.settings.SaveHistory {
		return
	}
	list := make([]model.Thread, 0, len(r.threads))
	for _, t := range r.threads {
		list = append(list, *t)
	}
	_ = store.SetJSON(r.store, store.KeyThreads, list)
}

// persistMessages mirrors the full message map. Callers hold mu.
func (r *Registry) persistMessages() {
	if !r.settings.SaveHistory {
		return
	}
	_ = store.SetJSON(r.store, store.KeyMessagesMap, r.messages)
}

// persistActive mirrors the active thread id. Callers hold mu.
func (r *Registry) persistActive() {
	if !r.settings.SaveHistory {
		return
	}
	_ = store.SetJSON(r.store, store.KeyActiveThread, r.activeID)
}
