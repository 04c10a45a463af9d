// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/commands"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// =============================================================================
// COMPLETION POPUP COMPONENT
// =============================================================================

// CompletionPopup renders slash-command completions above the input box.
// Selection state lives in commands.CompletionState, which the input owns;
// the popup only draws it.
type CompletionPopup struct {
	maxVisible int
	width      int
	theme      *styles.Theme
}

// NewCompletionPopup creates a new completion popup.
func NewCompletionPopup(theme *styles.Theme) *CompletionPopup {
	return &CompletionPopup{
		maxVisible: 6,
		width:      50,
		theme:      theme,
	}
}

// SetWidth sets the popup width.
func (c *CompletionPopup) SetWidth(width int) {
	c.width = width
}

// SetMaxVisible sets the maximum number of rows shown at once.
func (c *CompletionPopup) SetMaxVisible(max int) {
	c.maxVisible = max
}

// View renders the boxed completion popup for the given state.
func (c *CompletionPopup) View(state *commands.CompletionState) string {
	if state == nil || !state.Visible || len(state.Completions) == 0 {
		return ""
	}

	// Scrolling window centered on the selection
	start := 0
	end := len(state.Completions)
	if len(state.Completions) > c.maxVisible {
		start = state.Selected - c.maxVisible/2
		if start < 0 {
			start = 0
		}
		end = start + c.maxVisible
		if end > len(state.Completions) {
			end = len(state.Completions)
			start = end - c.maxVisible
			if start < 0 {
				start = 0
			}
		}
	}

	typed := typedPrefix(state.OriginalInput)

	var rows []string
	for i := start; i < end; i++ {
		rows = append(rows, c.renderItem(state.Completions[i], typed, i == state.Selected))
	}

	if hidden := len(state.Completions) - (end - start); hidden > 0 {
		more := c.theme.SidebarMeta.Render("  +" + strconv.Itoa(hidden) + " more")
		rows = append(rows, more)
	}

	content := strings.Join(rows, "\n")

	return c.theme.CompletionPopup.Width(c.width).MaxWidth(c.width).Render(content)
}

// ViewInline renders the completions as a single line, used when the
// terminal is too narrow for the boxed popup.
func (c *CompletionPopup) ViewInline(state *commands.CompletionState) string {
	if state == nil || !state.Visible || len(state.Completions) == 0 {
		return ""
	}

	maxInline := 3
	if len(state.Completions) < maxInline {
		maxInline = len(state.Completions)
	}

	var parts []string
	for i := 0; i < maxInline; i++ {
		comp := state.Completions[i]
		value := comp.Value
		if i == state.Selected {
			parts = append(parts, c.theme.CompletionMatch.Render(value))
		} else {
			parts = append(parts, c.theme.CompletionItem.Render(value))
		}
	}

	if extra := len(state.Completions) - maxInline; extra > 0 {
		parts = append(parts, c.theme.SidebarMeta.Render("+"+strconv.Itoa(extra)))
	}

	return strings.Join(parts, " | ")
}

// renderItem renders a single completion row.
func (c *CompletionPopup) renderItem(comp commands.Completion, typed string, selected bool) string {
	value := comp.Display
	if value == "" {
		value = comp.Value
	}

	const valueWidth = 18
	value = truncateString(value, valueWidth)

	descWidth := c.width - valueWidth - 8
	if descWidth < 10 {
		descWidth = 10
	}
	desc := truncateString(comp.Description, descWidth)

	if selected {
		line := "> " + padRight(value, valueWidth) + "  " + desc
		return c.theme.CompletionSelected.Width(c.width - 2).Render(line)
	}

	// Highlight the typed prefix on unselected rows
	rendered := c.theme.CompletionItem.Render(value)
	if typed != "" && strings.HasPrefix(strings.ToLower(value), strings.ToLower(typed)) {
		n := len(typed)
		rendered = c.theme.CompletionMatch.Render(value[:n]) +
			c.theme.CompletionItem.Render(value[n:])
	}

	pad := valueWidth - runeLen(value)
	if pad < 0 {
		pad = 0
	}

	return "  " + rendered + strings.Repeat(" ", pad) + "  " +
		c.theme.PaletteDesc.Render(desc)
}

// typedPrefix extracts the slash token being completed from the raw input.
func typedPrefix(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ""
	}
	if i := strings.IndexByte(input, ' '); i >= 0 {
		input = input[:i]
	}
	return input
}

// padRight pads s with spaces to the given rune width.
func padRight(s string, width int) string {
	if n := width - runeLen(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
