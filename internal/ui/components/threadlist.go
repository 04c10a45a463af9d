// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
	"github.com/pennyworth/penny-tui/internal/util"
)

// =============================================================================
// THREAD LIST SIDEBAR
// =============================================================================

// ThreadList is the conversation sidebar. The list arrives pre-sorted from
// the registry (pinned first, then most recent activity) and the component
// only handles cursor movement and rendering.
type ThreadList struct {
	threads  []model.Thread
	activeID string

	// Cursor position while the sidebar has focus
	selected int
	focused  bool

	width  int
	height int

	theme *styles.Theme
}

// NewThreadList creates a new thread sidebar.
func NewThreadList(theme *styles.Theme) *ThreadList {
	return &ThreadList{
		width:  28,
		height: 20,
		theme:  theme,
	}
}

// SetThreads replaces the listed threads and remembers the active id.
// The cursor follows the active thread so focus lands somewhere sensible.
func (tl *ThreadList) SetThreads(threads []model.Thread, activeID string) {
	tl.threads = threads
	tl.activeID = activeID

	tl.selected = 0
	for i, t := range threads {
		if t.ID == activeID {
			tl.selected = i
			break
		}
	}
}

// SetSize sets the sidebar dimensions.
func (tl *ThreadList) SetSize(width, height int) {
	tl.width = width
	tl.height = height
}

// Focus gives the sidebar keyboard focus.
func (tl *ThreadList) Focus() {
	tl.focused = true
}

// Blur removes keyboard focus.
func (tl *ThreadList) Blur() {
	tl.focused = false
}

// IsFocused reports whether the sidebar has keyboard focus.
func (tl *ThreadList) IsFocused() bool {
	return tl.focused
}

// MoveUp moves the cursor up, clamped at the top.
func (tl *ThreadList) MoveUp() {
	tl.selected = clampListIndex(tl.selected-1, len(tl.threads))
}

// MoveDown moves the cursor down, clamped at the bottom.
func (tl *ThreadList) MoveDown() {
	tl.selected = clampListIndex(tl.selected+1, len(tl.threads))
}

// SelectedID returns the thread id under the cursor, or "" for an empty list.
func (tl *ThreadList) SelectedID() string {
	if tl.selected < 0 || tl.selected >= len(tl.threads) {
		return ""
	}
	return tl.threads[tl.selected].ID
}

// Count returns the number of listed threads.
func (tl *ThreadList) Count() int {
	return len(tl.threads)
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the sidebar.
func (tl *ThreadList) View() string {
	title := tl.theme.SidebarTitle.Render("Threads")

	if len(tl.threads) == 0 {
		empty := tl.theme.SidebarMeta.Render("No threads yet")
		return tl.theme.SidebarBox.Height(tl.height).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, empty))
	}

	// Scrolling window around the cursor
	maxItems := tl.height - 2
	if maxItems < 1 {
		maxItems = 1
	}
	start := 0
	if len(tl.threads) > maxItems {
		start = tl.selected - maxItems/2
		if start < 0 {
			start = 0
		}
		if start+maxItems > len(tl.threads) {
			start = len(tl.threads) - maxItems
		}
	}
	end := start + maxItems
	if end > len(tl.threads) {
		end = len(tl.threads)
	}

	var rows []string
	for i := start; i < end; i++ {
		rows = append(rows, tl.renderItem(tl.threads[i], i))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{title}, rows...)...)

	return tl.theme.SidebarBox.Height(tl.height).Render(content)
}

// renderItem renders one thread row: cursor, pin marker, title, and the
// relative time of the last activity.
func (tl *ThreadList) renderItem(t model.Thread, index int) string {
	cursor := "  "
	if tl.focused && index == tl.selected {
		cursor = "> "
	}

	pin := ""
	if t.Pinned {
		pin = tl.theme.SidebarPin.Render("*") + " "
	}

	meta := relativeTime(t.LastActivity())

	// Title gets whatever width the pin, cursor, and meta leave over
	titleWidth := tl.width - runewidth.StringWidth(cursor) - runewidth.StringWidth(meta) - 4
	if t.Pinned {
		titleWidth -= 2
	}
	if titleWidth < 6 {
		titleWidth = 6
	}
	title := runewidth.Truncate(t.Title, titleWidth, "...")

	line := cursor + pin + title

	// Right-align the meta inside the row. The pin is already styled, so
	// measure with lipgloss rather than raw rune width.
	gap := tl.width - lipgloss.Width(line) - runewidth.StringWidth(meta) - 2
	if gap < 1 {
		gap = 1
	}
	line += strings.Repeat(" ", gap) + tl.theme.SidebarMeta.Render(meta)

	if t.ID == tl.activeID {
		return tl.theme.SidebarItemSelected.Width(tl.width - 2).Render(line)
	}
	return tl.theme.SidebarItem.Render(line)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// clampListIndex clamps i into [0, n) with 0 for an empty list.
func clampListIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// relativeTime renders epoch millis as a compact age: "now", "5m", "2h",
// "3d", then a short date.
func relativeTime(ms int64) string {
	if ms == 0 {
		return ""
	}

	ts := time.UnixMilli(ms)
	elapsed := time.Since(ts)

	switch {
	case elapsed < time.Minute:
		return "now"
	case elapsed < time.Hour:
		return util.FormatCount(int(elapsed.Minutes())) + "m"
	case elapsed < 24*time.Hour:
		return util.FormatCount(int(elapsed.Hours())) + "h"
	case elapsed < 7*24*time.Hour:
		return util.FormatCount(int(elapsed.Hours()/24)) + "d"
	default:
		return formatDate(ts)
	}
}
