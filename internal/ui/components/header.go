// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the one-line title bar: the penny brand on the left and the
// active thread title on the right. In narrow layouts the sidebar is hidden,
// so this is the only place the thread title shows.
type Header struct {
	ThreadTitle string
	Pinned      bool
	Width       int

	theme *styles.Theme
}

// NewHeader creates a new header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetThread updates the displayed thread title and pin state.
func (h *Header) SetThread(title string, pinned bool) {
	h.ThreadTitle = title
	h.Pinned = pinned
}

// View renders the header bar.
func (h *Header) View() string {
	brand := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Green).
		Render("penny")

	tagline := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(" | personal finance chat")

	left := brand + tagline

	right := ""
	if h.ThreadTitle != "" {
		maxTitle := h.Width - lipgloss.Width(left) - 8
		if maxTitle < 10 {
			maxTitle = 10
		}
		title := runewidth.Truncate(h.ThreadTitle, maxTitle, "...")

		if h.Pinned {
			right = h.theme.SidebarPin.Render("*") + " "
		}
		right += lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Render(title)
	}

	gap := h.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	bar := left + strings.Repeat(" ", gap) + right

	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Padding(0, 1).
		Width(h.Width).
		Render(bar)
}
