// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation screen of the penny TUI.
package chat

import (
	bspinner "github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pennyworth/penny-tui/internal/commands"
	"github.com/pennyworth/penny-tui/internal/config"
	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/session"
	"github.com/pennyworth/penny-tui/internal/ui/components"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// =============================================================================
// LAYOUT CONSTANTS
// =============================================================================

const (
	// sidebarWidth is the fixed width of the thread sidebar.
	sidebarWidth = 28

	// sidebarMinTermWidth is the terminal width below which the sidebar is
	// hidden to leave room for the transcript.
	sidebarMinTermWidth = 80

	// Conservative height estimates used to size the viewport on resize.
	// The view measures the rendered parts and corrects any drift.
	headerHeight   = 1
	inputHeight    = 3
	statusHeight   = 1
	chromeEstimate = headerHeight + inputHeight + statusHeight
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the conversation screen. It owns the
// widget tree and routes between the session registry, the controller that
// runs question turns, and the command registry shared by the palette and
// the slash input.
type Model struct {
	theme *styles.Theme
	cfg   *config.Config

	sessions *session.Registry
	ctrl     *session.Controller

	cmdRegistry *commands.Registry
	parser      *commands.Parser
	cmdCtx      *commands.Context

	keys KeyMap

	// Layout
	width  int
	height int
	ready  bool

	// Chat surface
	header     *components.Header
	sidebar    *components.ThreadList
	viewport   viewport.Model
	transcript *components.MessageList
	input      *components.InputArea
	status     *components.StatusBar
	spinner    components.Spinner

	// Overlays
	palette       *components.CommandPalette
	prompt        *components.Prompt
	settingsPanel *components.SettingsPanel
	banner        *components.ErrorBanner

	// markdown renders completed assistant bodies. Rebuilt on resize so
	// glamour wraps at the transcript width; nil falls back to plain text.
	markdown *glamour.TermRenderer

	// Turn state
	turns   *turnTracker
	cache   *renderCache
	ticking bool
}

// New assembles the conversation screen. The prober is the advisor client
// shared with the command system for /status checks and the startup probe.
func New(cfg *config.Config, theme *styles.Theme, sessions *session.Registry, ctrl *session.Controller, prober commands.StatusProber) Model {
	registry := commands.NewRegistry()

	m := Model{
		theme:         theme,
		cfg:           cfg,
		sessions:      sessions,
		ctrl:          ctrl,
		cmdRegistry:   registry,
		parser:        commands.NewParser(registry),
		cmdCtx:        commands.NewContext(cfg, sessions, prober),
		keys:          DefaultKeyMap(),
		header:        components.NewHeader(theme),
		sidebar:       components.NewThreadList(theme),
		viewport:      viewport.New(80, 20),
		transcript:    components.NewMessageList(theme),
		input:         components.NewInputArea(theme, registry),
		status:        components.NewStatusBar(theme),
		spinner:       components.NewThinkingSpinner(),
		palette:       components.NewCommandPalette(registry, theme),
		prompt:        components.NewPrompt(theme),
		settingsPanel: components.NewSettingsPanel(theme),
		banner:        components.NewErrorBanner(theme),
		turns:         newTurnTracker(),
		cache:         &renderCache{},
	}

	settings := sessions.Settings()
	m.spinner.SetReduceMotion(settings.ReduceMotion)
	m.transcript.ShowTimestamps = settings.TextSize != model.TextSizeSmall

	m.status.SetStatus(components.StatusReady)
	m.status.SetModel(m.displayModel())

	m.syncThreads()
	m.refreshHeader()
	m.input.SetValue(sessions.Draft(sessions.ActiveID()))
	m.refreshTranscript()

	return m
}

// Init focuses the input and probes the backend once.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.input.Focus(), probeBackendCmd(m.cmdCtx.Advisor))
}

// =============================================================================
// UPDATE
// =============================================================================

// Update routes incoming messages to the matching handler.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case RenderTickMsg:
		return m.handleRenderTick(msg)

	case TurnDoneMsg:
		return m.handleTurnDone(msg)

	case BackendProbeMsg:
		m.status.SetBackend(msg.Err == nil && msg.Report.OK, msg.Report.Provider)
		return m, nil

	case bspinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.ExecuteCommandMsg:
		return m, m.runCommand(msg.Command)

	case components.PromptResultMsg:
		return m.handlePromptResult(msg)

	case components.SettingsChangedMsg:
		return m.handleSettingsChanged(msg)

	case commands.ThreadCreatedMsg:
		return m.handleThreadCreated(msg)

	case commands.ShowRenameMsg:
		m.prompt.ShowText("rename:"+msg.ThreadID, "Rename thread", msg.Current)
		return m, nil

	case commands.ThreadDeletedMsg:
		return m.handleThreadDeleted(msg)

	case commands.StatusCheckedMsg:
		return m.handleStatusChecked(msg)

	case commands.ModelToggledMsg:
		m.status.SetModel(msg.Model)
		if m.settingsPanel.IsVisible() {
			m.settingsPanel.Show(m.sessions.Settings())
		}
		return m, nil

	case commands.ShowSettingsMsg:
		m.settingsPanel.Show(m.sessions.Settings())
		return m, nil

	case commands.ErrorMsg:
		m.banner.Show(msg.Title, msg.Message, msg.Tip)
		return m, nil
	}

	// Everything else: cursor blinks, mouse wheel scrolling, and whatever
	// the active overlay's text input needs.
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.prompt.IsVisible() {
		cmd, _ = m.prompt.Update(msg)
		return m, cmd
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleResize recomputes the layout for a new terminal size.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = m.width > 0 && m.height > 0

	m.theme.SetSize(m.width, m.height)

	chatWidth := m.chatWidth()
	bodyHeight := m.height - chromeEstimate
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	m.viewport.Width = chatWidth
	m.viewport.Height = bodyHeight

	m.header.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.input.SetWidth(m.width)
	m.banner.SetWidth(chatWidth)
	m.sidebar.SetSize(sidebarWidth, bodyHeight)

	m.palette.SetSize(m.width, m.height)
	m.prompt.SetSize(m.width, m.height)
	m.settingsPanel.SetSize(m.width, m.height)

	m.markdown = newMarkdownRenderer(chatWidth - 12)
	m.transcript.SetWidth(chatWidth)
	m.transcript.SetMarkdown(m.markdown)

	m.cache.invalidate()
	m.refreshTranscript()
	m.viewport.GotoBottom()

	return m, nil
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// showSidebar reports whether the terminal is wide enough for the sidebar.
func (m Model) showSidebar() bool {
	return m.width >= sidebarMinTermWidth
}

// chatWidth returns the width available to the transcript column.
func (m Model) chatWidth() int {
	w := m.width
	if m.showSidebar() {
		w -= sidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// displayModel returns the model name shown in the status bar: the settings
// override when set, otherwise the configured default.
func (m Model) displayModel() string {
	if s := m.sessions.Settings(); s.LLMModel != "" {
		return s.LLMModel
	}
	if m.cfg != nil && m.cfg.LLM.Model != "" {
		return m.cfg.LLM.Model
	}
	return ""
}

// syncThreads pushes the registry's thread list into the sidebar and the
// thread count into the status bar.
func (m *Model) syncThreads() {
	threads := m.sessions.Threads()
	m.sidebar.SetThreads(threads, m.sessions.ActiveID())
	m.status.SetThreadCount(len(threads))
}

// refreshHeader updates the header with the active thread's title and pin.
func (m *Model) refreshHeader() {
	if th, ok := m.sessions.ActiveThread(); ok {
		m.header.SetThread(th.Title, th.Pinned)
	} else {
		m.header.SetThread("", false)
	}
}

// refreshTranscript re-renders the active thread's messages into the
// viewport, skipping the write when nothing changed since the last frame.
func (m *Model) refreshTranscript() {
	msgs := m.sessions.ActiveMessages()
	m.transcript.SetMessages(msgs)
	m.transcript.StreamingIndex = m.streamingIndex(msgs)

	content := m.transcript.View()
	if m.turns.active(m.sessions.ActiveID()) && m.spinner.IsActive() && awaitingReply(msgs) {
		content += "\n\n" + m.spinner.View()
	}

	if !m.cache.changed(content) {
		return
	}
	m.viewport.SetContent(content)
}

// streamingIndex reports which message renders the streaming cursor: the
// trailing assistant message while its thread's turn is in flight.
func (m *Model) streamingIndex(msgs []model.Message) int {
	if !m.turns.active(m.sessions.ActiveID()) {
		return -1
	}
	if n := len(msgs); n > 0 && msgs[n-1].Role == model.RoleAssistant {
		return n - 1
	}
	return -1
}

// awaitingReply reports whether the transcript shows no reply text yet for
// the turn in flight. Covers both the empty streaming placeholder and the
// single-shot path, where no placeholder exists until the answer lands.
func awaitingReply(msgs []model.Message) bool {
	n := len(msgs)
	if n == 0 {
		return true
	}
	last := msgs[n-1]
	return last.Role != model.RoleAssistant || last.Content == ""
}

// loadActive points the chat surface at the active thread: header, draft,
// transcript, and the status cell, which tracks the shown thread rather
// than the busiest one.
func (m *Model) loadActive() {
	m.refreshHeader()
	m.input.SetValue(m.sessions.Draft(m.sessions.ActiveID()))

	if m.turns.active(m.sessions.ActiveID()) {
		m.status.SetStatus(components.StatusThinking)
	} else {
		m.status.SetStatus(components.StatusReady)
	}

	m.cache.invalidate()
	m.refreshTranscript()
	m.viewport.GotoBottom()
}

// activateThread switches the active thread and loads its state. The
// outgoing thread's draft is already saved keystroke by keystroke, and its
// in-flight turn, if any, keeps streaming into the registry.
func (m *Model) activateThread(id string) {
	if id == "" || id == m.sessions.ActiveID() {
		return
	}
	m.sessions.SelectThread(id)
	m.syncThreads()
	m.loadActive()
}

// newMarkdownRenderer builds the glamour renderer for assistant bodies.
func newMarkdownRenderer(wrap int) *glamour.TermRenderer {
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}
