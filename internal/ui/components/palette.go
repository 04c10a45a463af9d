// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/commands"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// =============================================================================
// COMMAND PALETTE
// =============================================================================

// CommandPalette is an overlay component for searching and executing commands.
// It filters by case-insensitive substring over each command's title and hint,
// and keeps the registry's stable ordering within the matches.
type CommandPalette struct {
	// Input field for filtering
	input textinput.Model

	// Registry of commands
	registry *commands.Registry

	// Commands matching the current filter, in registry order
	filtered []*commands.Command

	// Selected index, clamped to the filtered list
	selected int

	// Dimensions
	width  int
	height int

	// Visibility
	visible bool

	// Theme
	theme *styles.Theme

	// Maximum items to show
	maxItems int
}

// NewCommandPalette creates a new command palette.
func NewCommandPalette(registry *commands.Registry, theme *styles.Theme) *CommandPalette {
	ti := textinput.New()
	ti.Placeholder = "Type a command..."
	ti.Prompt = "> "
	ti.CharLimit = 100
	ti.Width = 50
	ti.PromptStyle = theme.InputPrompt
	ti.TextStyle = theme.InputText
	ti.PlaceholderStyle = theme.InputPlaceholder

	cp := &CommandPalette{
		input:    ti,
		registry: registry,
		theme:    theme,
		maxItems: 10,
		selected: 0,
	}

	cp.updateFiltered()

	return cp
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the command palette.
func (cp *CommandPalette) Init() tea.Cmd {
	return nil
}

// Update handles messages for the command palette.
func (cp *CommandPalette) Update(msg tea.Msg) (*CommandPalette, tea.Cmd) {
	if !cp.visible {
		return cp, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			// Close without invoking anything
			cp.Hide()
			return cp, nil

		case "enter":
			if cp.selected >= 0 && cp.selected < len(cp.filtered) {
				selectedCmd := cp.filtered[cp.selected]
				cp.Hide()
				// The returned closure runs after this Update cycle,
				// so the palette is already closed when the command fires.
				return cp, cp.executeCommand(selectedCmd)
			}
			return cp, nil

		case "up":
			cp.selected = commands.ClampIndex(cp.selected-1, len(cp.filtered))
			return cp, nil

		case "down", "ctrl+n":
			cp.selected = commands.ClampIndex(cp.selected+1, len(cp.filtered))
			return cp, nil

		case "tab":
			// Tab also moves down
			cp.selected = commands.ClampIndex(cp.selected+1, len(cp.filtered))
			return cp, nil
		}
	}

	// Update the input field
	previousValue := cp.input.Value()
	cp.input, cmd = cp.input.Update(msg)

	// If input changed, update filtered list and reset selection
	if cp.input.Value() != previousValue {
		cp.updateFiltered()
		cp.selected = 0
	}

	return cp, cmd
}

// View renders the command palette.
func (cp *CommandPalette) View() string {
	if !cp.visible {
		return ""
	}

	// Box dimensions
	boxWidth := 60
	if cp.width > 0 && cp.width < boxWidth+10 {
		boxWidth = cp.width - 10
	}
	if boxWidth < 40 {
		boxWidth = 40
	}

	// Header
	headerStyle := lipgloss.NewStyle().
		Foreground(styles.Green).
		Bold(true).
		Padding(0, 1)
	header := headerStyle.Render("Commands")

	// Separator
	sepStyle := lipgloss.NewStyle().
		Foreground(styles.Overlay)
	separator := sepStyle.Render(strings.Repeat("-", boxWidth-4))

	// Input
	cp.input.Width = boxWidth - 6
	inputView := cp.input.View()

	// Command list
	var listItems []string
	for i, c := range cp.filtered {
		if i >= cp.maxItems {
			remaining := len(cp.filtered) - cp.maxItems
			if remaining > 0 {
				moreStyle := lipgloss.NewStyle().
					Foreground(styles.TextMuted).
					Italic(true)
				listItems = append(listItems, moreStyle.Render("  ... "+strconv.Itoa(remaining)+" more"))
			}
			break
		}

		item := cp.renderItem(c, i == cp.selected, boxWidth-6)
		listItems = append(listItems, item)
	}

	list := strings.Join(listItems, "\n")

	// If no commands match
	if len(cp.filtered) == 0 {
		noMatchStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Padding(1, 0)
		list = noMatchStyle.Render("No matching commands")
	}

	// Help text
	helpStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Padding(1, 0, 0, 0)
	help := helpStyle.Render("Up/Down navigate | Enter select | Esc close")

	// Combine all parts
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		separator,
		inputView,
		separator,
		list,
		help,
	)

	box := cp.theme.PaletteBox.Width(boxWidth).Render(content)

	// Center the box
	if cp.width > 0 && cp.height > 0 {
		return lipgloss.Place(
			cp.width, cp.height,
			lipgloss.Center, lipgloss.Center,
			box,
			lipgloss.WithWhitespaceChars(" "),
			lipgloss.WithWhitespaceForeground(lipgloss.Color("#000000")),
		)
	}

	return box
}

// =============================================================================
// INTERNAL METHODS
// =============================================================================

// renderItem renders a single command item.
func (cp *CommandPalette) renderItem(cmd *commands.Command, selected bool, width int) string {
	// Selection indicator (ASCII)
	indicator := "  "
	if selected {
		indicator = "> "
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Bold(true)

	title := titleStyle.Render(cmd.Title)
	slash := cp.theme.PaletteCommand.Render(cmd.Slash)

	// Calculate remaining width for the hint
	usedWidth := lipgloss.Width(indicator) + lipgloss.Width(title) + lipgloss.Width(slash) + 4
	hintWidth := width - usedWidth
	if hintWidth < 10 {
		hintWidth = 10
	}

	hint := cp.theme.PaletteDesc.Render(truncateString(cmd.Hint, hintWidth))

	item := indicator + title + "  " + slash + "  " + hint

	if selected {
		return cp.theme.PaletteItemSelected.Width(width).Render(item)
	}

	return item
}

// updateFiltered recomputes the filtered list from the current input.
func (cp *CommandPalette) updateFiltered() {
	if cp.registry == nil {
		cp.filtered = nil
		return
	}

	cp.filtered = commands.Filter(cp.registry.All(), cp.input.Value())
	cp.selected = commands.ClampIndex(cp.selected, len(cp.filtered))
}

// executeCommand returns a command to execute the selected command.
func (cp *CommandPalette) executeCommand(cmd *commands.Command) tea.Cmd {
	return func() tea.Msg {
		return ExecuteCommandMsg{
			Command: cmd,
		}
	}
}

// =============================================================================
// PUBLIC METHODS
// =============================================================================

// Show shows the command palette with a cleared filter.
func (cp *CommandPalette) Show() {
	cp.visible = true
	cp.input.Reset()
	cp.input.Focus()
	cp.updateFiltered()
	cp.selected = 0
}

// Hide hides the command palette.
func (cp *CommandPalette) Hide() {
	cp.visible = false
	cp.input.Blur()
}

// Toggle toggles the visibility of the command palette.
func (cp *CommandPalette) Toggle() {
	if cp.visible {
		cp.Hide()
	} else {
		cp.Show()
	}
}

// IsVisible returns true if the command palette is visible.
func (cp *CommandPalette) IsVisible() bool {
	return cp.visible
}

// Selected returns the index of the highlighted command.
func (cp *CommandPalette) Selected() int {
	return cp.selected
}

// Filtered returns the commands matching the current filter.
func (cp *CommandPalette) Filtered() []*commands.Command {
	return cp.filtered
}

// SetSize sets the dimensions for centering the palette.
func (cp *CommandPalette) SetSize(width, height int) {
	cp.width = width
	cp.height = height
}

// Focus focuses the input field.
func (cp *CommandPalette) Focus() tea.Cmd {
	return cp.input.Focus()
}

// =============================================================================
// MESSAGES
// =============================================================================

// ExecuteCommandMsg is sent when a command is selected from the palette.
// The palette has already closed by the time this message is delivered.
type ExecuteCommandMsg struct {
	Command *commands.Command
}

// ShowPaletteMsg is sent to show the command palette.
type ShowPaletteMsg struct{}

// HidePaletteMsg is sent to hide the command palette.
type HidePaletteMsg struct{}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// truncateString truncates a string to maxLen characters.
// Uses rune-based truncation to handle Unicode correctly.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
