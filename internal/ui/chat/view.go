// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation screen of the penny TUI.
package chat

import (
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the conversation screen. Modal overlays render instead of
// the chat surface; each centers itself on the full terminal.
func (m Model) View() string {
	if !m.ready {
		return "Starting penny..."
	}

	if m.prompt.IsVisible() {
		return m.prompt.View()
	}
	if m.settingsPanel.IsVisible() {
		return m.settingsPanel.View()
	}
	if m.palette.IsVisible() {
		return m.palette.View()
	}

	return m.renderChat()
}

// renderChat stacks header, body, optional error banner, input, and status
// bar. Part heights are measured from the rendered strings so the stack
// fits the terminal exactly even when the input grows a completion popup.
func (m Model) renderChat() string {
	header := m.header.View()
	input := m.input.View()
	status := m.status.View()

	var banner string
	if m.banner.IsVisible() {
		banner = m.banner.View()
	}

	chrome := lipgloss.Height(header) + lipgloss.Height(input) + lipgloss.Height(status)
	if banner != "" {
		chrome += lipgloss.Height(banner)
	}

	bodyHeight := m.height - chrome
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	body := m.renderBody(bodyHeight)

	parts := []string{header, body}
	if banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, input, status)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderBody lays the sidebar and transcript side by side, pinning both to
// the given height.
func (m Model) renderBody(height int) string {
	transcript := fitHeight(m.viewport.View(), m.chatWidth(), height)

	if !m.showSidebar() {
		return transcript
	}

	sidebar := fitHeight(m.sidebar.View(), sidebarWidth, height)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, transcript)
}

// fitHeight forces view to exactly height lines. Estimated sizes drift from
// rendered ones when borders or popups come and go; padding or cropping
// here keeps the vertical stack stable.
func fitHeight(view string, width, height int) string {
	if lipgloss.Height(view) == height {
		return view
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		MaxHeight(height).
		Render(view)
}
