// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// =============================================================================
// SETTINGS OVERLAY
// =============================================================================

// SettingsChangedMsg is emitted every time a setting is edited, so the
// change takes effect immediately rather than on close.
type SettingsChangedMsg struct {
	Settings model.Settings
}

// Settings rows, top to bottom.
const (
	settingRowStream = iota
	settingRowHistory
	settingRowMotion
	settingRowTextSize
	settingRowCount
)

// SettingsPanel is the centered settings overlay. It edits a copy of the
// session settings and reports each change via SettingsChangedMsg.
type SettingsPanel struct {
	settings model.Settings
	selected int

	visible bool
	width   int
	height  int
	theme   *styles.Theme
}

// NewSettingsPanel creates a new settings overlay.
func NewSettingsPanel(theme *styles.Theme) *SettingsPanel {
	return &SettingsPanel{
		theme: theme,
	}
}

// Show opens the overlay with the current settings.
func (p *SettingsPanel) Show(settings model.Settings) {
	p.settings = settings
	p.selected = 0
	p.visible = true
}

// Hide closes the overlay.
func (p *SettingsPanel) Hide() {
	p.visible = false
}

// IsVisible reports whether the overlay is open.
func (p *SettingsPanel) IsVisible() bool {
	return p.visible
}

// SetSize updates the area the overlay centers itself in.
func (p *SettingsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Update handles key events. While open, all key input is consumed.
func (p *SettingsPanel) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !p.visible {
		return nil, false
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}

	switch key.String() {
	case "esc", "q":
		p.Hide()
		return nil, true

	case "up", "k":
		if p.selected > 0 {
			p.selected--
		}
		return nil, true

	case "down", "j":
		if p.selected < settingRowCount-1 {
			p.selected++
		}
		return nil, true

	case "enter", " ", "right", "l":
		return p.edit(1), true

	case "left", "h":
		return p.edit(-1), true
	}

	return nil, true
}

// edit changes the selected row in the given direction and reports the
// new settings.
func (p *SettingsPanel) edit(dir int) tea.Cmd {
	switch p.selected {
	case settingRowStream:
		p.settings.StreamResponses = !p.settings.StreamResponses
	case settingRowHistory:
		p.settings.SaveHistory = !p.settings.SaveHistory
	case settingRowMotion:
		p.settings.ReduceMotion = !p.settings.ReduceMotion
	case settingRowTextSize:
		p.settings.TextSize = cycleTextSize(p.settings.TextSize, dir)
	}

	settings := p.settings
	return func() tea.Msg {
		return SettingsChangedMsg{Settings: settings}
	}
}

// cycleTextSize steps through small, medium, large in the given direction.
func cycleTextSize(current model.TextSize, dir int) model.TextSize {
	sizes := []model.TextSize{model.TextSizeSmall, model.TextSizeMedium, model.TextSizeLarge}
	idx := 1
	for i, s := range sizes {
		if s == current {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(sizes)) % len(sizes)
	return sizes[idx]
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the settings overlay centered in its area.
func (p *SettingsPanel) View() string {
	if !p.visible {
		return ""
	}

	boxWidth := 48
	if p.width > 0 && p.width < 56 {
		boxWidth = p.width - 8
	}
	if boxWidth < 32 {
		boxWidth = 32
	}

	var content strings.Builder
	content.WriteString(p.theme.SettingsTitle.Render("Settings"))
	content.WriteString("\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"Stream responses", onOff(p.settings.StreamResponses)},
		{"Save history", onOff(p.settings.SaveHistory)},
		{"Reduce motion", onOff(p.settings.ReduceMotion)},
		{"Text size", "< " + string(p.settings.TextSize) + " >"},
	}

	for i, row := range rows {
		content.WriteString(p.renderRow(row.label, row.value, i == p.selected))
		content.WriteString("\n")
	}

	// The model is switched with /model, not here
	if p.settings.LLMModel != "" {
		content.WriteString("\n")
		content.WriteString(p.theme.SettingsHint.Render(
			"Model: " + p.settings.LLMModel + " (/model to switch)"))
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(p.theme.SettingsHint.Render(
		"Up/Down select | Enter toggle | Esc close"))

	box := p.theme.SettingsBox.Width(boxWidth).Render(content.String())

	if p.width > 0 && p.height > 0 {
		return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

// renderRow renders one settings row.
func (p *SettingsPanel) renderRow(label, value string, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "> "
	}

	line := cursor + padRight(label, 18) + value
	if selected {
		return p.theme.SettingsSelected.Render(line)
	}
	return p.theme.SettingsLabel.Render(cursor+padRight(label, 18)) +
		p.theme.SettingsValue.Render(value)
}

// onOff renders a bool as a toggle.
func onOff(v bool) string {
	if v {
		return "[on]"
	}
	return "[off]"
}
