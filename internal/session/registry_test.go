// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/store"
	"github.com/pennyworth/penny-tui/internal/tools"
)

// seedStore returns a MemStore preloaded with three threads whose ordering is
// fully determined: b is pinned, c has the most recent activity, a trails.
func seedStore(t *testing.T) *store.MemStore {
	t.Helper()
	ms := store.NewMemStore()
	seed := []model.Thread{
		{ID: "a", Title: "Thread A", CreatedAt: 0, UpdatedAt: 5},
		{ID: "b", Title: "Thread B", CreatedAt: 0, UpdatedAt: 1, Pinned: true},
		{ID: "c", Title: "Thread C", CreatedAt: 0, UpdatedAt: 10},
	}
	if err := store.SetJSON(ms, store.KeyThreads, seed); err != nil {
		t.Fatalf("seed threads: %v", err)
	}
	if err := store.SetJSON(ms, store.KeyActiveThread, "c"); err != nil {
		t.Fatalf("seed active: %v", err)
	}
	return ms
}

// =============================================================================
// THREAD LIFECYCLE
// =============================================================================

func TestCreateThreadBecomesActiveWithEmptyMessages(t *testing.T) {
	reg := NewRegistry(store.NewMemStore())

	var last model.Thread
	for i := 0; i < 3; i++ {
		last = reg.CreateThread()
		if reg.ActiveID() != last.ID {
			t.Fatalf("create %d: active = %q, want %q", i, reg.ActiveID(), last.ID)
		}
		if msgs := reg.Messages(last.ID); len(msgs) != 0 {
			t.Fatalf("create %d: new thread has %d messages", i, len(msgs))
		}
	}

	if got := len(reg.Threads()); got != 3 {
		t.Errorf("thread count = %d, want 3", got)
	}
	if last.Title != model.DefaultTitle {
		t.Errorf("new thread title = %q, want sentinel", last.Title)
	}
}

func TestDeleteOnlyThreadEmptiesRegistry(t *testing.T) {
	reg := NewRegistry(store.NewMemStore())
	created := reg.CreateThread()

	reg.DeleteThread(created.ID)

	if got := reg.ActiveID(); got != "" {
		t.Errorf("active after delete = %q, want empty", got)
	}
	if _, ok := reg.ActiveThread(); ok {
		t.Error("ActiveThread reported ok on an empty registry")
	}
	if got := len(reg.Threads()); got != 0 {
		t.Errorf("thread count = %d, want 0", got)
	}
}

func TestSortPolicyPinnedThenRecency(t *testing.T) {
	reg := NewRegistry(seedStore(t))

	got := reg.Threads()
	want := []string{"b", "c", "a"}
	if len(got) != len(want) {
		t.Fatalf("thread count = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestDeleteActivePicksFirstOfRemainingSortedOrder(t *testing.T) {
	reg := NewRegistry(seedStore(t))
	if reg.ActiveID() != "c" {
		t.Fatalf("precondition: active = %q, want c", reg.ActiveID())
	}

	// Deleting a non-active thread leaves the active id alone.
	reg.DeleteThread("a")
	if got := reg.ActiveID(); got != "c" {
		t.Fatalf("active after deleting a = %q, want c", got)
	}

	// Deleting the active thread promotes the first of the remaining order.
	reg.DeleteThread("c")
	if got := reg.ActiveID(); got != "b" {
		t.Errorf("active after deleting c = %q, want b", got)
	}
}

func TestRenameEmptyInputKeepsSentinel(t *testing.T) {
	reg := NewRegistry(store.NewMemStore())
	created := reg.CreateThread()

	reg.RenameThread(created.ID, "Budget planning")
	if th, _ := reg.Thread(created.ID); th.Title != "Budget planning" {
		t.Errorf("title = %q", th.Title)
	}

	for _, input := range []string{"", "   ", "\t\n"} {
		reg.RenameThread(created.ID, input)
		if th, _ := reg.Thread(created.ID); th.Title != model.DefaultTitle {
			t.Errorf("rename %q: title = %q, want sentinel", input, th.Title)
		}
	}
}

func TestTogglePinDoesNotChangeUpdatedAt(t *testing.T) {
	reg := NewRegistry(seedStore(t))

	reg.TogglePin("a")
	th, ok := reg.Thread("a")
	if !ok {
		t.Fatal("thread a missing")
	}
	if !th.Pinned {
		t.Error("pin flag did not flip")
	}
	if th.UpdatedAt != 5 {
		t.Errorf("UpdatedAt = %d, want 5 (untouched)", th.UpdatedAt)
	}

	reg.TogglePin("a")
	if th, _ := reg.Thread("a"); th.Pinned {
		t.Error("second toggle did not unpin")
	}
}

func TestSelectUnknownThreadDegradesToEmptyView(t *testing.T) {
	reg := NewRegistry(store.NewMemStore())
	reg.CreateThread()

	reg.SelectThread("no-such-thread")

	if got := reg.ActiveID(); got != "no-such-thread" {
		t.Errorf("active = %q", got)
	}
	if _, ok := reg.ActiveThread(); ok {
		t.Error("ActiveThread reported ok for an unknown id")
	}
	if msgs := reg.ActiveMessages(); len(msgs) != 0 {
		t.Errorf("messages for unknown thread = %d, want 0", len(msgs))
	}
	if idx := reg.AppendMessage("no-such-thread", model.NewUserMessage("hi")); idx != -1 {
		t.Errorf("append to unknown thread returned %d, want -1", idx)
	}
}

// =============================================================================
// LOAD / PERSISTENCE
// =============================================================================

func TestLoadRederivesStaleActiveID(t *testing.T) {
	ms := seedStore(t)
	if err := store.SetJSON(ms, store.KeyActiveThread, "ghost"); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry(ms)

	// First of the sorted order: b is pinned.
	if got := reg.ActiveID(); got != "b" {
		t.Errorf("active = %q, want b", got)
	}
}

func TestLoadCorruptStateDegradesToDefaults(t *testing.T) {
	ms := store.NewMemStore()
	_ = ms.Set(store.KeyThreads, "{definitely not an array")
	_ = ms.Set(store.KeyMessagesMap, "also broken")
	_ = ms.Set(store.KeySettings, "[]")
	_ = ms.Set(store.KeyActiveThread, "\"orphan\"")

	reg := NewRegistry(ms)

	if got := len(reg.Threads()); got != 0 {
		t.Errorf("threads from corrupt store = %d, want 0", got)
	}
	if got := reg.ActiveID(); got != "" {
		t.Errorf("active = %q, want empty", got)
	}
	settings := reg.Settings()
	if !settings.StreamResponses || !settings.SaveHistory {
		t.Errorf("settings did not fall back to defaults: %+v", settings)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	ms := store.NewMemStore()

	first := NewRegistry(ms)
	created := first.CreateThread()
	first.AppendMessage(created.ID, model.NewUserMessage("what is my savings rate"))
	first.AppendMessage(created.ID, model.NewAssistantMessage("About 12% this quarter."))
	first.TogglePin(created.ID)

	second := NewRegistry(ms)

	threads := second.Threads()
	if len(threads) != 1 {
		t.Fatalf("reloaded thread count = %d, want 1", len(threads))
	}
	if threads[0].ID != created.ID || !threads[0].Pinned {
		t.Errorf("reloaded thread = %+v", threads[0])
	}
	if got := second.ActiveID(); got != created.ID {
		t.Errorf("reloaded active = %q, want %q", got, created.ID)
	}
	msgs := second.Messages(created.ID)
	if len(msgs) != 2 || msgs[0].Content != "what is my savings rate" {
		t.Fatalf("reloaded messages = %+v", msgs)
	}
	if msgs[1].Role != model.RoleAssistant {
		t.Errorf("second message role = %q", msgs[1].Role)
	}
}

func TestSaveHistoryOffSkipsMirroring(t *testing.T) {
	ms := store.NewMemStore()
	reg := NewRegistry(ms)

	reg.UpdateSettings(func(s *model.Settings) { s.SaveHistory = false })

	created := reg.CreateThread()
	reg.AppendMessage(created.ID, model.NewUserMessage("in memory only"))

	if _, ok := ms.Get(store.KeyThreads); ok {
		t.Error("threads were mirrored while history saving is off")
	}
	if _, ok := ms.Get(store.KeyMessagesMap); ok {
		t.Error("messages were mirrored while history saving is off")
	}
	// Settings themselves always persist, or the toggle could not survive a
	// restart.
	if _, ok := ms.Get(store.KeySettings); !ok {
		t.Error("settings were not persisted")
	}

	// In-memory state still mutated.
	if got := len(reg.Messages(created.ID)); got != 1 {
		t.Errorf("in-memory message count = %d, want 1", got)
	}
}

func TestSaveHistoryToggleOnFlushesSession(t *testing.T) {
	ms := store.NewMemStore()
	reg := NewRegistry(ms)

	reg.UpdateSettings(func(s *model.Settings) { s.SaveHistory = false })
	created := reg.CreateThread()
	reg.AppendMessage(created.ID, model.NewUserMessage("flush me later"))

	reg.UpdateSettings(func(s *model.Settings) { s.SaveHistory = true })

	var threads []model.Thread
	if !store.GetJSON(ms, store.KeyThreads, &threads) || len(threads) != 1 {
		t.Fatalf("threads not flushed on toggle: %+v", threads)
	}
	var messages map[string][]model.Message
	if !store.GetJSON(ms, store.KeyMessagesMap, &messages) || len(messages[created.ID]) != 1 {
		t.Fatalf("messages not flushed on toggle: %+v", messages)
	}
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

func TestAppendDerivesTitleFromFirstUserMessage(t *testing.T) {
	reg := NewRegistry(store.NewMemStore())
	created := reg.CreateThread()

	// Assistant greetings never name a thread.
	reg.AppendMessage(created.ID, model.NewAssistantMessage("Hi! Ask me about your money."))
	if th, _ := reg.Thread(created.ID); th.Title != model.DefaultTitle {
		t.Fatalf("title after greeting = %q, want sentinel", th.Title)
	}

	question := "Can I afford a $400k home at 6.5% with $20k down and will this work for my budget planning this year"
	reg.AppendMessage(created.ID, model.NewUserMessage(question))

	th, _ := reg.Thread(created.ID)
	want := string([]rune(question)[:model.TitleMaxRunes]) + "…"
	if th.Title != want {
		t.Errorf("title = %q, want %q", th.Title, want)
	}
	if got := utf8.RuneCountInString(th.Title); got != model.TitleMaxRunes+1 {
		t.Errorf("title rune count = %d, want %d", got, model.TitleMaxRunes+1)
	}

	// Once derived, later messages leave the title alone.
	reg.AppendMessage(created.ID, model.NewUserMessage("unrelated followup"))
	if after, _ := reg.Thread(created.ID); after.Title != want {
		t.Errorf("title changed after followup: %q", after.Title)
	}
}

func TestShortFirstMessageTitleHasNoEllipsis(t *testing.T) {
	reg := NewRegistry(store.NewMemStore())
	created := reg.CreateThread()

	reg.AppendMessage(created.ID, model.NewUserMessage("Show my budget"))

	th, _ := reg.Thread(created.ID)
	if th.Title != "Show my budget" {
		t.Errorf("title = %q", th.Title)
	}
	if strings.Contains(th.Title, "…") {
		t.Error("short title gained an ellipsis")
	}
}

// =============================================================================
// MESSAGE MUTATIONS
// =============================================================================

func TestAppendToLastAssistantCreatesThenExtends(t *testing.T) {
	reg := NewRegistry(store.NewMemStore())
	created := reg.CreateThread()
	reg.AppendMessage(created.ID, model.NewUserMessage("hi"))

	if !reg.AppendToLastAssistant(created.ID, "Hel") {
		t.Fatal("first fragment rejected")
	}
	reg.AppendToLastAssistant(created.ID, "lo")

	msgs := reg.Messages(created.ID)
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2: %+v", len(msgs), msgs)
	}
	if msgs[1].Role != model.RoleAssistant || msgs[1].Content != "Hello" {
		t.Errorf("assistant message = %+v", msgs[1])
	}

	if reg.AppendToLastAssistant("ghost", "x") {
		t.Error("fragment accepted for unknown thread")
	}
}

func TestTruncateAndReplaceBounds(t *testing.T) {
	reg := NewRegistry(store.NewMemStore())
	created := reg.CreateThread()
	for _, content := range []string{"one", "two", "three"} {
		reg.AppendMessage(created.ID, model.NewUserMessage(content))
	}

	if !reg.TruncateMessages(created.ID, 10) {
		t.Error("truncate past end rejected")
	}
	if got := len(reg.Messages(created.ID)); got != 3 {
		t.Errorf("truncate past end changed length to %d", got)
	}

	reg.TruncateMessages(created.ID, -5)
	if got := len(reg.Messages(created.ID)); got != 0 {
		t.Errorf("negative truncate kept %d messages", got)
	}

	if reg.ReplaceMessage(created.ID, 0, model.NewUserMessage("x")) {
		t.Error("replace on empty list accepted")
	}
	if reg.SetMessageContent(created.ID, 0, "x") {
		t.Error("content set on empty list accepted")
	}
	if reg.TruncateMessages("ghost", 0) {
		t.Error("truncate on unknown thread accepted")
	}
}

func TestMergeToolResultsUpdatesAttachedPayload(t *testing.T) {
	reg := NewRegistry(store.NewMemStore())
	created := reg.CreateThread()

	rs := tools.NewResultSet()
	rs.Mortgage = &tools.MortgagePaymentResult{MonthlyPI: 599.55}
	idx := reg.AppendMessage(created.ID, model.NewToolMessage(rs, nil))

	updated := tools.NewResultSet()
	updated.Affordability = &tools.AffordabilityResult{MaxPrice: 400000}
	if !reg.MergeToolResults(created.ID, idx, updated) {
		t.Fatal("merge rejected")
	}

	msg := reg.Messages(created.ID)[idx]
	if msg.ToolResults == nil || msg.ToolResults.Mortgage == nil || msg.ToolResults.Affordability == nil {
		t.Fatalf("merged payload incomplete: %+v", msg.ToolResults)
	}
	if msg.ToolResults.Affordability.MaxPrice != 400000 {
		t.Errorf("affordability max price = %v", msg.ToolResults.Affordability.MaxPrice)
	}
}

// =============================================================================
// DRAFTS
// =============================================================================

func TestDraftSaveLoadClear(t *testing.T) {
	ms := store.NewMemStore()
	reg := NewRegistry(ms)
	created := reg.CreateThread()

	reg.SetDraft(created.ID, "how much hou")
	if got := reg.Draft(created.ID); got != "how much hou" {
		t.Errorf("draft = %q", got)
	}
	if raw, ok := ms.Get(store.DraftKey(created.ID)); !ok || raw != `"how much hou"` {
		t.Errorf("stored draft = %q, ok=%v", raw, ok)
	}

	// A fresh registry over the same store sees the draft.
	if got := NewRegistry(ms).Draft(created.ID); got != "how much hou" {
		t.Errorf("reloaded draft = %q", got)
	}

	reg.SetDraft(created.ID, "")
	if got := reg.Draft(created.ID); got != "" {
		t.Errorf("cleared draft = %q", got)
	}
	if _, ok := ms.Get(store.DraftKey(created.ID)); ok {
		t.Error("cleared draft still stored")
	}
}

func TestDraftRespectsSaveHistoryGate(t *testing.T) {
	ms := store.NewMemStore()
	reg := NewRegistry(ms)
	created := reg.CreateThread()
	reg.UpdateSettings(func(s *model.Settings) { s.SaveHistory = false })

	reg.SetDraft(created.ID, "private note")

	if _, ok := ms.Get(store.DraftKey(created.ID)); ok {
		t.Error("draft hit the store while history saving is off")
	}
	// The in-session copy still round-trips for thread switches.
	if got := reg.Draft(created.ID); got != "private note" {
		t.Errorf("in-session draft = %q", got)
	}
}

func TestDeleteThreadRemovesDraft(t *testing.T) {
	ms := store.NewMemStore()
	reg := NewRegistry(ms)
	created := reg.CreateThread()
	reg.SetDraft(created.ID, "doomed")

	reg.DeleteThread(created.ID)

	if _, ok := ms.Get(store.DraftKey(created.ID)); ok {
		t.Error("draft survived thread deletion")
	}
	if got := reg.Draft(created.ID); got != "" {
		t.Errorf("draft after deletion = %q", got)
	}
}
