// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/advisor"
	"github.com/pennyworth/penny-tui/internal/commands"
	"github.com/pennyworth/penny-tui/internal/config"
	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/session"
	"github.com/pennyworth/penny-tui/internal/store"
	"github.com/pennyworth/penny-tui/internal/ui/components"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// =============================================================================
// FIXTURE
// =============================================================================

// fakeBackend scripts the advisor for both the controller and the status
// prober.
type fakeBackend struct {
	mu        sync.Mutex
	answer    string
	askErr    error
	status    advisor.StatusResponse
	statusErr error
}

func (f *fakeBackend) Ask(ctx context.Context, req advisor.AskRequest) (advisor.AskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.askErr != nil {
		return advisor.AskResponse{}, f.askErr
	}
	return advisor.AskResponse{Answer: f.answer}, nil
}

func (f *fakeBackend) AskStream(ctx context.Context, req advisor.AskRequest) (<-chan advisor.Event, error) {
	f.mu.Lock()
	answer := f.answer
	err := f.askErr
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	ch := make(chan advisor.Event, 2)
	ch <- advisor.Event{Type: advisor.EventToken, Content: answer}
	ch <- advisor.Event{Type: advisor.EventDone}
	close(ch)
	return ch, nil
}

func (f *fakeBackend) Status(ctx context.Context) (advisor.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.statusErr
}

func newTestModel(t *testing.T) (Model, *session.Registry, *fakeBackend) {
	t.Helper()

	fake := &fakeBackend{
		answer: "You spent less than you earned this month.",
		status: advisor.StatusResponse{OK: true, Provider: "openai", Model: "gpt-4o-mini"},
	}
	sessions := session.NewRegistry(store.NewMemStore())
	ctrl := session.NewController(sessions, fake)

	m := New(config.Default(), styles.NewTheme(), sessions, ctrl, fake)
	resized, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 32})
	return resized.(Model), sessions, fake
}

// press sends a single special key.
func press(m Model, kt tea.KeyType) (Model, tea.Cmd) {
	updated, cmd := m.Update(tea.KeyMsg{Type: kt})
	return updated.(Model), cmd
}

// typeText sends text rune by rune, the way a terminal delivers typing.
func typeText(m Model, text string) Model {
	for _, r := range text {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

// drain runs cmd, flattening batches, and returns the produced messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, drain(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// pump delivers msgs and keeps running whatever commands the updates return
// until the model settles.
func pump(m Model, msgs ...tea.Msg) Model {
	for len(msgs) > 0 {
		next := msgs[0]
		msgs = msgs[1:]
		updated, cmd := m.Update(next)
		m = updated.(Model)
		msgs = append(msgs, drain(cmd)...)
	}
	return m
}

// =============================================================================
// STARTUP
// =============================================================================

func TestNewShowsEmptyState(t *testing.T) {
	m, _, _ := newTestModel(t)

	view := m.View()
	if !strings.Contains(view, "No messages yet") {
		t.Errorf("empty view missing placeholder:\n%s", view)
	}
	if !strings.Contains(view, "penny") {
		t.Error("view missing header brand")
	}
	if !strings.Contains(view, "Ready") {
		t.Error("status bar should start Ready")
	}
}

func TestViewFillsTerminalExactly(t *testing.T) {
	m, _, _ := newTestModel(t)

	if got := lipgloss.Height(m.View()); got != 32 {
		t.Errorf("view height = %d, want 32", got)
	}

	// The error banner borrows its lines from the transcript, not the total.
	m.banner.Show("Oops", "something happened", "try again")
	if got := lipgloss.Height(m.View()); got != 32 {
		t.Errorf("view height with banner = %d, want 32", got)
	}

	resized, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m = resized.(Model)
	if got := lipgloss.Height(m.View()); got != 20 {
		t.Errorf("view height after resize = %d, want 20", got)
	}
}

func TestNarrowTerminalHidesSidebar(t *testing.T) {
	m, _, _ := newTestModel(t)

	if !m.showSidebar() {
		t.Fatal("sidebar should be visible at width 100")
	}

	resized, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m = resized.(Model)

	if m.showSidebar() {
		t.Error("sidebar should hide below the width threshold")
	}
	if got := m.chatWidth(); got != 60 {
		t.Errorf("chatWidth = %d, want full 60 without sidebar", got)
	}
}

func TestBackendProbeIsSilent(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = pump(m, BackendProbeMsg{Err: errors.New("connection refused")})
	if m.banner.IsVisible() {
		t.Error("startup probe failure must not open a banner")
	}

	m = pump(m, BackendProbeMsg{Report: advisor.StatusResponse{OK: true, Provider: "openai"}})
	if m.banner.IsVisible() {
		t.Error("startup probe success must not open a banner")
	}
	if !strings.Contains(m.View(), "openai") {
		t.Error("status bar should show the probed provider")
	}
}

// =============================================================================
// QUESTION TURNS
// =============================================================================

func TestSubmitRunsFullTurn(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	m = typeText(m, "how much did I spend this month?")
	m, cmd := press(m, tea.KeyEnter)

	threadID := sessions.ActiveID()
	if threadID == "" {
		t.Fatal("submit should create a thread when none exists")
	}
	if !m.turns.active(threadID) {
		t.Fatal("thread should be busy right after submit")
	}
	if got := m.input.Value(); got != "" {
		t.Errorf("input after submit = %q, want empty", got)
	}
	if !strings.Contains(m.View(), "Thinking") {
		t.Error("status should show Thinking while the turn runs")
	}

	m = pump(m, drain(cmd)...)

	if m.turns.count() != 0 {
		t.Error("turn should have finished")
	}
	msgs := sessions.Messages(threadID)
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want user + assistant", len(msgs))
	}
	if msgs[0].Role != model.RoleUser {
		t.Errorf("first message role = %q", msgs[0].Role)
	}
	if msgs[1].Role != model.RoleAssistant || !strings.Contains(msgs[1].Content, "You spent less") {
		t.Errorf("assistant message = %+v", msgs[1])
	}
	if th, _ := sessions.ActiveThread(); th.Title != "how much did I spend this month?" {
		t.Errorf("title = %q, want the first question", th.Title)
	}
	if got := sessions.Draft(threadID); got != "" {
		t.Errorf("draft after send = %q, want cleared", got)
	}
	if !strings.Contains(m.View(), "You spent less") {
		t.Error("transcript should show the reply")
	}
	if !strings.Contains(m.View(), "Ready") {
		t.Error("status should settle back to Ready")
	}
}

func TestSubmitWhileBusyKeepsInput(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	m = typeText(m, "first question")
	m, _ = press(m, tea.KeyEnter) // turn stays in flight: its command never runs

	threadID := sessions.ActiveID()
	if !m.turns.active(threadID) {
		t.Fatal("expected in-flight turn")
	}

	m = typeText(m, "second question")
	m, cmd := press(m, tea.KeyEnter)

	if cmd != nil {
		t.Error("busy submit should not start another turn")
	}
	if got := m.input.Value(); got != "second question" {
		t.Errorf("rejected input = %q, want preserved text", got)
	}
	if !strings.Contains(m.View(), "Reply in progress") {
		t.Error("busy submit should explain itself in the banner")
	}
	if m.turns.count() != 1 {
		t.Errorf("turn count = %d, want 1", m.turns.count())
	}
}

func TestEscCancelsInFlightTurn(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	m = typeText(m, "slow question")
	m, _ = press(m, tea.KeyEnter)

	threadID := sessions.ActiveID()
	if !m.turns.active(threadID) {
		t.Fatal("expected in-flight turn")
	}

	m, _ = press(m, tea.KeyEsc)
	if m.turns.active(threadID) {
		t.Error("esc should cancel the shown thread's turn")
	}
}

func TestEscClosesBannerBeforeCancelling(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.banner.Show("Oops", "something happened", "")
	m, _ = press(m, tea.KeyEsc)

	if m.banner.IsVisible() {
		t.Error("first esc should dismiss the banner")
	}
}

func TestTurnDoneBusyRejectionShowsBanner(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = pump(m, TurnDoneMsg{ThreadID: "t1", Err: session.ErrBusy})
	if !strings.Contains(m.View(), "Reply in progress") {
		t.Error("ErrBusy completion should surface in the banner")
	}
}

func TestRenderTickStopsWhenIdle(t *testing.T) {
	m, _, _ := newTestModel(t)

	updated, cmd := m.Update(RenderTickMsg{})
	m = updated.(Model)
	if cmd != nil {
		t.Error("tick with no turns in flight should not reschedule")
	}
	if m.ticking {
		t.Error("ticking flag should clear when the chain ends")
	}
}

func TestRenderTickStreamsShownThread(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	th := sessions.CreateThread()
	sessions.AppendMessage(th.ID, model.NewUserMessage("what about rent?"))
	sessions.AppendMessage(th.ID, model.NewAssistantMessage(""))
	m.turns.begin(th.ID)
	m.syncThreads()

	if got := m.streamingIndex(sessions.Messages(th.ID)); got != 1 {
		t.Fatalf("streamingIndex = %d, want trailing assistant", got)
	}

	// First delta arrives: the tick should flip the status to streaming.
	sessions.AppendToLastAssistant(th.ID, "Rent was")
	updated, cmd := m.Update(RenderTickMsg{})
	m = updated.(Model)

	if cmd == nil {
		t.Error("tick should reschedule while a turn is in flight")
	}
	if !strings.Contains(m.View(), "Streaming") {
		t.Error("status should show Streaming once reply text exists")
	}
	if !strings.Contains(m.View(), "Rent was") {
		t.Error("transcript should show the partial reply")
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func TestUnknownSlashCommandKeepsInput(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = typeText(m, "/frobnicate")
	m, cmd := press(m, tea.KeyEnter)

	if cmd != nil {
		t.Error("unknown command should not dispatch")
	}
	if got := m.input.Value(); got != "/frobnicate" {
		t.Errorf("input = %q, want the typed command preserved", got)
	}
	if !strings.Contains(m.View(), "not a penny command") {
		t.Error("banner should name the unknown command")
	}
}

func TestSlashNewCreatesThread(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	m = typeText(m, "/new")
	m, cmd := press(m, tea.KeyEnter)
	m = pump(m, drain(cmd)...)

	if got := len(sessions.Threads()); got != 1 {
		t.Fatalf("thread count = %d, want 1", got)
	}
	if got := m.input.Value(); got != "" {
		t.Errorf("input after /new = %q, want empty", got)
	}
	if th, ok := sessions.ActiveThread(); !ok || th.Title != model.DefaultTitle {
		t.Errorf("active thread = %+v, want fresh default", th)
	}
}

func TestSlashRenameWithInlineArgument(t *testing.T) {
	m, sessions, _ := newTestModel(t)
	m = pump(m, drain(m.runCommand(m.cmdRegistry.Get("new-thread")))...)

	m = typeText(m, "/rename Vacation budget")
	m, cmd := press(m, tea.KeyEnter)
	m = pump(m, drain(cmd)...)

	th, _ := sessions.ActiveThread()
	if th.Title != "Vacation budget" {
		t.Errorf("title = %q, want inline rename applied", th.Title)
	}
	if m.prompt.IsVisible() {
		t.Error("inline rename must not open the prompt")
	}
}

func TestSlashRenameWithoutArgumentOpensPrompt(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = pump(m, drain(m.runCommand(m.cmdRegistry.Get("new-thread")))...)

	m = typeText(m, "/rename")
	m, cmd := press(m, tea.KeyEnter)
	m = pump(m, drain(cmd)...)

	if !m.prompt.IsVisible() {
		t.Fatal("bare /rename should open the rename prompt")
	}
}

func TestSlashModelTogglesModel(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	m = typeText(m, "/model")
	m, cmd := press(m, tea.KeyEnter)
	m = pump(m, drain(cmd)...)

	if got := sessions.Settings().LLMModel; got != "gpt-4o" {
		t.Errorf("LLMModel = %q, want first toggle to gpt-4o", got)
	}
	if !strings.Contains(m.View(), "gpt-4o") {
		t.Error("status bar should show the toggled model")
	}
}

func TestSlashStatusReportsBackend(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		m, _, _ := newTestModel(t)

		m = typeText(m, "/status")
		m, cmd := press(m, tea.KeyEnter)
		m = pump(m, drain(cmd)...)

		if m.banner.IsVisible() {
			t.Error("healthy backend should not open a banner")
		}
		if !strings.Contains(m.View(), "openai") {
			t.Error("status bar should show the provider")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		m, _, fake := newTestModel(t)
		fake.statusErr = errors.New("connection refused")

		m = typeText(m, "/status")
		m, cmd := press(m, tea.KeyEnter)
		m = pump(m, drain(cmd)...)

		view := m.View()
		if !strings.Contains(view, "Backend unreachable") {
			t.Error("failed probe should open a banner")
		}
		if !strings.Contains(view, "penny serve") {
			t.Error("banner should hint at starting the server")
		}
	})
}

// =============================================================================
// PROMPTS
// =============================================================================

func TestRenamePromptResultApplies(t *testing.T) {
	m, sessions, _ := newTestModel(t)
	m = pump(m, drain(m.runCommand(m.cmdRegistry.Get("new-thread")))...)
	id := sessions.ActiveID()

	m = pump(m, components.PromptResultMsg{ID: "rename:" + id, Value: "Groceries", OK: true})

	if th, _ := sessions.ActiveThread(); th.Title != "Groceries" {
		t.Errorf("title = %q, want Groceries", th.Title)
	}
}

func TestRenamePromptCancelled(t *testing.T) {
	m, sessions, _ := newTestModel(t)
	m = pump(m, drain(m.runCommand(m.cmdRegistry.Get("new-thread")))...)
	id := sessions.ActiveID()

	m = pump(m, components.PromptResultMsg{ID: "rename:" + id, Value: "Groceries", OK: false})

	if th, _ := sessions.ActiveThread(); th.Title != model.DefaultTitle {
		t.Errorf("title = %q, cancelled rename must not apply", th.Title)
	}
}

func TestDeleteThreadAsksForConfirmation(t *testing.T) {
	m, sessions, _ := newTestModel(t)
	m = pump(m, drain(m.runCommand(m.cmdRegistry.Get("new-thread")))...)

	m = pump(m, components.ExecuteCommandMsg{Command: m.cmdRegistry.Get("delete-thread")})

	if !m.prompt.IsVisible() {
		t.Fatal("delete should open the confirmation prompt")
	}
	if got := len(sessions.Threads()); got != 1 {
		t.Fatalf("thread deleted before confirmation, count = %d", got)
	}

	// Confirm with y.
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	m = pump(updated.(Model), drain(cmd)...)

	if got := len(sessions.Threads()); got != 0 {
		t.Errorf("thread count after confirm = %d, want 0", got)
	}
	if !strings.Contains(m.View(), "No messages yet") {
		t.Error("view should fall back to the empty state")
	}
}

func TestDeleteThreadDeclined(t *testing.T) {
	m, sessions, _ := newTestModel(t)
	m = pump(m, drain(m.runCommand(m.cmdRegistry.Get("new-thread")))...)

	m = pump(m, components.ExecuteCommandMsg{Command: m.cmdRegistry.Get("delete-thread")})
	m, cmd := press(m, tea.KeyEsc)
	m = pump(m, drain(cmd)...)

	if got := len(sessions.Threads()); got != 1 {
		t.Errorf("declined delete removed the thread, count = %d", got)
	}
	if m.prompt.IsVisible() {
		t.Error("prompt should close after declining")
	}
}

// =============================================================================
// PALETTE
// =============================================================================

func TestPaletteToggleAndExecute(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	m, _ = press(m, tea.KeyCtrlK)
	if !m.palette.IsVisible() {
		t.Fatal("ctrl+k should open the palette")
	}
	if !strings.Contains(m.View(), "Commands") {
		t.Error("palette view should replace the chat surface")
	}

	// Enter executes the selected command; the first entry creates a thread.
	m, cmd := press(m, tea.KeyEnter)
	m = pump(m, drain(cmd)...)

	if m.palette.IsVisible() {
		t.Error("palette should close on execute")
	}
	if got := len(sessions.Threads()); got != 1 {
		t.Errorf("thread count = %d, want the palette action applied", got)
	}
}

func TestPaletteSwallowsGlobalKeys(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	m, _ = press(m, tea.KeyCtrlK)
	m, _ = press(m, tea.KeyCtrlN)

	if got := len(sessions.Threads()); got != 0 {
		t.Errorf("ctrl+n while palette open created a thread, count = %d", got)
	}
}

// =============================================================================
// THREADS AND DRAFTS
// =============================================================================

func TestDraftsFollowThreadSwitches(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	m, cmd := press(m, tea.KeyCtrlN)
	m = pump(m, drain(cmd)...)
	first := sessions.ActiveID()
	m = typeText(m, "draft for the first thread")

	if got := sessions.Draft(first); got != "draft for the first thread" {
		t.Fatalf("draft = %q, want saved on every keystroke", got)
	}

	m, cmd = press(m, tea.KeyCtrlN)
	m = pump(m, drain(cmd)...)
	second := sessions.ActiveID()
	if second == first {
		t.Fatal("ctrl+n should switch to a fresh thread")
	}
	if got := m.input.Value(); got != "" {
		t.Fatalf("fresh thread input = %q, want empty draft", got)
	}
	m = typeText(m, "second draft")

	// Back to the first thread through the sidebar.
	m, _ = press(m, tea.KeyTab)
	if !m.sidebar.IsFocused() {
		t.Fatal("tab should focus the sidebar")
	}
	m, _ = press(m, tea.KeyDown)
	m, cmd = press(m, tea.KeyEnter)
	m = pump(m, drain(cmd)...)

	if got := sessions.ActiveID(); got != first {
		t.Fatalf("active = %q, want the first thread reselected", got)
	}
	if got := m.input.Value(); got != "draft for the first thread" {
		t.Errorf("input = %q, want the first thread's draft restored", got)
	}
	if got := sessions.Draft(second); got != "second draft" {
		t.Errorf("second draft = %q, want untouched", got)
	}
	if m.sidebar.IsFocused() {
		t.Error("selecting a thread should return focus to the input")
	}
}

func TestSidebarPinToggle(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	m, cmd := press(m, tea.KeyCtrlN)
	m = pump(m, drain(cmd)...)
	id := sessions.ActiveID()

	m, _ = press(m, tea.KeyTab)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = updated.(Model)

	if th, _ := sessions.Thread(id); !th.Pinned {
		t.Error("p in the sidebar should pin the selected thread")
	}
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestSettingsOverlayFlow(t *testing.T) {
	m, sessions, _ := newTestModel(t)

	m = pump(m, commands.ShowSettingsMsg{})
	if !m.settingsPanel.IsVisible() {
		t.Fatal("ShowSettingsMsg should open the panel")
	}

	changed := sessions.Settings()
	changed.ReduceMotion = true
	changed.TextSize = model.TextSizeSmall
	m = pump(m, components.SettingsChangedMsg{Settings: changed})

	got := sessions.Settings()
	if !got.ReduceMotion {
		t.Error("ReduceMotion change not applied")
	}
	if got.TextSize != model.TextSizeSmall {
		t.Errorf("TextSize = %q, want small", got.TextSize)
	}
	if m.transcript.ShowTimestamps {
		t.Error("small text size should hide timestamps")
	}
}
