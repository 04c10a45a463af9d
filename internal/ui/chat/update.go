// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation screen of the penny TUI.
package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pennyworth/penny-tui/internal/commands"
	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/session"
	"github.com/pennyworth/penny-tui/internal/ui/components"
)

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey routes a key press. Overlays take priority in a fixed order,
// followed by the global chrome keys, then handlers for whichever pane has
// focus.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.prompt.IsVisible() {
		cmd, _ := m.prompt.Update(msg)
		return m, cmd
	}
	if m.settingsPanel.IsVisible() {
		cmd, _ := m.settingsPanel.Update(msg)
		return m, cmd
	}
	if m.palette.IsVisible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Palette):
		m.palette.Toggle()
		if m.palette.IsVisible() {
			return m, m.palette.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.NewThread):
		return m, m.runCommand(m.cmdRegistry.Get("new-thread"))

	case key.Matches(msg, m.keys.ToggleCard):
		m.toggleLatestToolCard()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	if m.sidebar.IsFocused() {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

// handleSidebarKey handles keys while the thread sidebar has focus.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SidebarUp):
		m.sidebar.MoveUp()

	case key.Matches(msg, m.keys.SidebarDown):
		m.sidebar.MoveDown()

	case key.Matches(msg, m.keys.Pin):
		if id := m.sidebar.SelectedID(); id != "" {
			m.sessions.TogglePin(id)
			m.syncThreads()
			m.refreshHeader()
		}

	case key.Matches(msg, m.keys.Submit):
		m.activateThread(m.sidebar.SelectedID())
		m.sidebar.Blur()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Focus):
		m.sidebar.Blur()
		return m, m.input.Focus()
	}
	return m, nil
}

// handleInputKey handles keys while the input line has focus. Keys that do
// not match a binding are typing and flow into the input, keeping the
// per-thread draft current on every change.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Focus):
		if m.input.CompletionsVisible() {
			break // tab cycles the completion selection
		}
		if m.showSidebar() && m.sidebar.Count() > 0 {
			m.sidebar.Focus()
			m.input.Blur()
		}
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.banner.IsVisible() {
			m.banner.Hide()
			return m, nil
		}
		if m.input.CompletionsVisible() {
			break // esc clears the completion popup
		}
		if id := m.sessions.ActiveID(); m.turns.active(id) {
			m.turns.cancel(id)
			return m, nil
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.LineDown(1)
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		if id := m.sessions.ActiveID(); id != "" {
			m.sessions.SetDraft(id, v)
		}
	}
	return m, cmd
}

// =============================================================================
// SUBMIT
// =============================================================================

// submit routes the input line: slash commands dispatch through the command
// registry, anything else becomes a question turn on the active thread.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if commands.IsCommand(text) {
		return m.submitCommand(text)
	}

	threadID := m.sessions.ActiveID()
	if _, ok := m.sessions.Thread(threadID); !ok {
		threadID = m.sessions.CreateThread().ID
		m.syncThreads()
	}

	// At most one outstanding reply per thread. The rejected text stays in
	// the input so nothing typed is lost.
	if m.turns.active(threadID) || m.ctrl.Busy(threadID) {
		m.banner.Show(
			"Reply in progress",
			"penny is still answering in this thread. Your message stays in the input.",
			"Wait for the reply or start a fresh thread with /new",
		)
		return m, nil
	}

	m.input.Reset()
	m.clearDraft(threadID)
	m.banner.Hide()

	return m.beginTurn(threadID, text)
}

// submitCommand parses and dispatches a slash command line.
func (m Model) submitCommand(text string) (tea.Model, tea.Cmd) {
	result := m.parser.Parse(text)
	if result.Command == nil {
		m.banner.Show(
			"Unknown command",
			result.CommandName+" is not a penny command.",
			"Press Ctrl+K to browse commands",
		)
		return m, nil
	}

	m.input.Reset()
	m.clearDraft(m.sessions.ActiveID())

	// A rename with an inline argument skips the prompt.
	if result.Command.ID == "rename-thread" && result.RawArgs != "" {
		if th, ok := m.sessions.ActiveThread(); ok {
			m.sessions.RenameThread(th.ID, result.RawArgs)
			m.syncThreads()
			m.refreshHeader()
			return m, nil
		}
	}

	return m, m.runCommand(result.Command)
}

// beginTurn starts a question turn and the render tick that follows it.
func (m Model) beginTurn(threadID, text string) (tea.Model, tea.Cmd) {
	ctx := m.turns.begin(threadID)

	m.status.SetStatus(components.StatusThinking)

	cmds := []tea.Cmd{sendTurnCmd(ctx, m.ctrl, threadID, text)}
	if cmd := m.spinner.Start(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if !m.ticking {
		m.ticking = true
		cmds = append(cmds, renderTickCmd())
	}
	return m, tea.Batch(cmds...)
}

// clearDraft empties threadID's saved draft.
func (m *Model) clearDraft(threadID string) {
	if threadID != "" {
		m.sessions.SetDraft(threadID, "")
	}
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// runCommand invokes a palette or slash command. Deleting a thread goes
// through a confirmation prompt first; every other action runs as
// registered.
func (m *Model) runCommand(cmd *commands.Command) tea.Cmd {
	if cmd == nil {
		return nil
	}
	if cmd.ID == "delete-thread" {
		if th, ok := m.sessions.ActiveThread(); ok {
			m.prompt.ShowConfirm(
				"delete:"+th.ID,
				"Delete this thread?",
				th.Title+" and its messages will be removed.",
			)
			return nil
		}
	}
	if cmd.Action == nil {
		return nil
	}
	return cmd.Action(m.cmdCtx)
}

// handlePromptResult applies a closed prompt: thread renames and confirmed
// deletions.
func (m Model) handlePromptResult(msg components.PromptResultMsg) (tea.Model, tea.Cmd) {
	switch {
	case strings.HasPrefix(msg.ID, "rename:"):
		if msg.OK && msg.Value != "" {
			m.sessions.RenameThread(strings.TrimPrefix(msg.ID, "rename:"), msg.Value)
			m.syncThreads()
			m.refreshHeader()
		}

	case strings.HasPrefix(msg.ID, "delete:"):
		if msg.OK {
			if cmd := m.cmdRegistry.Get("delete-thread"); cmd != nil && cmd.Action != nil {
				return m, cmd.Action(m.cmdCtx)
			}
		}
	}
	return m, m.input.Focus()
}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

func (m Model) handleThreadCreated(_ commands.ThreadCreatedMsg) (tea.Model, tea.Cmd) {
	m.syncThreads()
	m.loadActive()
	m.sidebar.Blur()
	return m, m.input.Focus()
}

func (m Model) handleThreadDeleted(msg commands.ThreadDeletedMsg) (tea.Model, tea.Cmd) {
	// The thread is gone from the registry; stop its stream too.
	m.turns.cancel(msg.ThreadID)

	m.syncThreads()
	m.loadActive()
	return m, m.input.Focus()
}

func (m Model) handleStatusChecked(msg commands.StatusCheckedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.status.SetBackend(false, "")
		m.banner.Show("Backend unreachable", msg.Err.Error(), "Start it with: penny serve")
		return m, nil
	}

	m.status.SetBackend(msg.Report.OK, msg.Report.Provider)
	if !msg.Report.OK {
		detail := msg.Report.Error
		if detail == "" {
			detail = "The advisor backend reports it is not ready."
		}
		m.banner.Show("Backend not ready", detail, "Check OPENAI_API_KEY and the provider settings")
	}
	return m, nil
}

func (m Model) handleSettingsChanged(msg components.SettingsChangedMsg) (tea.Model, tea.Cmd) {
	applied := m.sessions.UpdateSettings(func(s *model.Settings) {
		*s = msg.Settings
	})

	m.spinner.SetReduceMotion(applied.ReduceMotion)
	m.transcript.ShowTimestamps = applied.TextSize != model.TextSizeSmall
	m.status.SetModel(m.displayModel())

	m.cache.invalidate()
	m.refreshTranscript()
	return m, nil
}

// =============================================================================
// TURN LIFECYCLE
// =============================================================================

// handleRenderTick refreshes the streaming surfaces at a fixed rate while
// any turn is in flight, then lets the tick chain end.
func (m Model) handleRenderTick(_ RenderTickMsg) (tea.Model, tea.Cmd) {
	if m.turns.count() == 0 {
		m.ticking = false
		return m, nil
	}

	m.syncThreads()
	m.refreshHeader()
	m.refreshTranscript()

	if m.turns.active(m.sessions.ActiveID()) {
		m.viewport.GotoBottom()
		if !awaitingReply(m.sessions.ActiveMessages()) {
			m.status.SetStatus(components.StatusStreaming)
		}
	}

	return m, renderTickCmd()
}

// handleTurnDone clears the thread's turn slot and settles the chrome.
func (m Model) handleTurnDone(msg TurnDoneMsg) (tea.Model, tea.Cmd) {
	m.turns.finish(msg.ThreadID)

	if !m.turns.active(m.sessions.ActiveID()) {
		m.status.SetStatus(components.StatusReady)
	}
	if m.turns.count() == 0 {
		m.spinner.Stop()
	}

	if errors.Is(msg.Err, session.ErrBusy) {
		m.banner.Show(
			"Reply in progress",
			"penny is still answering in this thread.",
			"Wait for the reply or start a fresh thread with /new",
		)
	}

	m.syncThreads()
	m.refreshHeader()
	m.refreshTranscript()
	if msg.ThreadID == m.sessions.ActiveID() {
		m.viewport.GotoBottom()
	}
	return m, nil
}

// =============================================================================
// TOOL CARDS
// =============================================================================

// toggleLatestToolCard expands or collapses the newest calculator card in
// the active thread.
func (m *Model) toggleLatestToolCard() {
	msgs := m.sessions.ActiveMessages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].HasToolContent() {
			m.transcript.ToggleToolCard(i)
			m.refreshTranscript()
			return
		}
	}
}
