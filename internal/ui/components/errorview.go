// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// =============================================================================
// ERROR BANNER
// =============================================================================

// ErrorBanner shows a dismissible error above the input bar: offline
// backends, failed sends, bad command arguments. The parent decides when
// to hide it, typically on the next keypress.
type ErrorBanner struct {
	title   string
	message string
	tip     string

	visible bool
	width   int
	theme   *styles.Theme
}

// NewErrorBanner creates a new error banner.
func NewErrorBanner(theme *styles.Theme) *ErrorBanner {
	return &ErrorBanner{
		width: 80,
		theme: theme,
	}
}

// Show displays an error. An empty tip hides the tip line.
func (e *ErrorBanner) Show(title, message, tip string) {
	e.title = title
	e.message = message
	e.tip = tip
	e.visible = true
}

// ShowErr displays a bare error with a generic title.
func (e *ErrorBanner) ShowErr(err error) {
	if err == nil {
		return
	}
	e.Show("Something went wrong", err.Error(), "")
}

// Hide dismisses the banner.
func (e *ErrorBanner) Hide() {
	e.visible = false
}

// IsVisible reports whether the banner is showing.
func (e *ErrorBanner) IsVisible() bool {
	return e.visible
}

// SetWidth sets the banner width.
func (e *ErrorBanner) SetWidth(width int) {
	e.width = width
}

// View renders the banner.
func (e *ErrorBanner) View() string {
	if !e.visible {
		return ""
	}

	boxWidth := e.width - 4
	if boxWidth < 30 {
		boxWidth = 30
	}
	innerWidth := boxWidth - 6

	var lines []string

	title := e.title
	if title == "" {
		title = "Error"
	}
	lines = append(lines, e.theme.ErrorTitle.Render(
		styles.StatusIndicators.Error+" "+title))

	if e.message != "" {
		body := wordWrap(e.message, innerWidth)
		lines = append(lines, e.theme.ErrorMessage.Render(body))
	}

	if e.tip != "" {
		lines = append(lines, e.theme.ErrorTip.Render("Tip: "+e.tip))
	}

	content := strings.Join(lines, "\n")

	return e.theme.ErrorBox.Width(boxWidth).Render(content)
}

// ViewCentered renders the banner centered in the given area, used when
// the whole chat surface is unusable rather than a single action failing.
func (e *ErrorBanner) ViewCentered(width, height int) string {
	if !e.visible {
		return ""
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, e.View())
}
