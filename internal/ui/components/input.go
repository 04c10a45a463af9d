// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/commands"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
	"github.com/pennyworth/penny-tui/internal/util"
)

// =============================================================================
// INPUT AREA COMPONENT
// =============================================================================

// InputArea is the message input bar. It owns the slash-command completion
// state: typing "/" pops suggestions, Tab cycles them, Escape dismisses.
// Submit and draft handling stay with the parent model, which reads Value
// and calls Reset or SetValue around thread switches.
type InputArea struct {
	input       textinput.Model
	completer   *commands.Completer
	completions commands.CompletionState
	popup       *CompletionPopup

	// cycling is set while Tab walks the completion list, so the applied
	// value does not immediately re-filter the suggestions
	cycling bool

	maxChars int
	width    int
	focused  bool
	theme    *styles.Theme
}

// NewInputArea creates the input bar. The registry feeds slash-command
// completion; a nil registry disables it.
func NewInputArea(theme *styles.Theme, registry *commands.Registry) *InputArea {
	ti := textinput.New()
	ti.Placeholder = "Ask penny about your money... (/ for commands)"
	ti.CharLimit = 4096
	ti.Width = 70
	ti.Prompt = "> "

	ti.PromptStyle = theme.InputPrompt
	ti.TextStyle = theme.InputText
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	var completer *commands.Completer
	if registry != nil {
		completer = commands.NewCompleter(registry)
	}

	return &InputArea{
		input:     ti,
		completer: completer,
		popup:     NewCompletionPopup(theme),
		maxChars:  4096,
		width:     80,
		theme:     theme,
	}
}

// Focus focuses the input and starts the cursor blink.
func (i *InputArea) Focus() tea.Cmd {
	i.focused = true
	return i.input.Focus()
}

// Blur removes focus and dismisses any open completion popup.
func (i *InputArea) Blur() {
	i.focused = false
	i.input.Blur()
	i.completions.Clear()
	i.cycling = false
}

// Focused reports whether the input has focus.
func (i *InputArea) Focused() bool {
	return i.focused
}

// SetWidth sets the bar width.
func (i *InputArea) SetWidth(width int) {
	i.width = width
	inputWidth := width - 10
	if inputWidth < 20 {
		inputWidth = 20
	}
	i.input.Width = inputWidth
}

// Value returns the current input text.
func (i *InputArea) Value() string {
	return i.input.Value()
}

// SetValue replaces the input text, used when restoring a thread draft.
// Restoring never pops the completion list.
func (i *InputArea) SetValue(value string) {
	i.input.SetValue(value)
	i.input.CursorEnd()
	i.completions.Clear()
	i.cycling = false
}

// Reset clears the input and the completion state.
func (i *InputArea) Reset() {
	i.input.Reset()
	i.completions.Clear()
	i.cycling = false
}

// CompletionsVisible reports whether the completion popup is open. The
// parent checks this before treating Escape as anything else.
func (i *InputArea) CompletionsVisible() bool {
	return i.completions.Visible
}

// Update handles key input. Tab, Shift+Tab, and Escape are consumed while
// the completion popup is open; everything else goes to the text input.
func (i *InputArea) Update(msg tea.Msg) (*InputArea, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && i.completions.Visible {
		switch key.String() {
		case "tab":
			if i.cycling {
				i.completions.Next()
			}
			i.applySelected()
			return i, nil
		case "shift+tab":
			if i.cycling {
				i.completions.Prev()
			}
			i.applySelected()
			return i, nil
		case "esc":
			i.completions.Clear()
			i.cycling = false
			return i, nil
		}
	}

	before := i.input.Value()
	var cmd tea.Cmd
	i.input, cmd = i.input.Update(msg)

	// Only re-filter when the text actually changed. Blink ticks and
	// cursor movement must not reset the selection mid-cycle.
	if i.input.Value() != before {
		i.refreshCompletions()
	}

	return i, cmd
}

// applySelected writes the selected completion into the input.
func (i *InputArea) applySelected() {
	v := i.completions.Accept()
	if v == "" {
		return
	}
	i.input.SetValue(v)
	i.input.CursorEnd()
	i.cycling = true
}

// refreshCompletions recomputes the suggestion list from the input text.
func (i *InputArea) refreshCompletions() {
	i.cycling = false
	if i.completer == nil {
		return
	}

	value := i.input.Value()
	if !strings.HasPrefix(strings.TrimSpace(value), "/") {
		i.completions.Clear()
		return
	}

	comps := i.completer.Complete(value, i.input.Position())
	i.completions.Update(value, comps)
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the input bar, with the completion popup stacked above it
// while suggestions are open.
func (i *InputArea) View() string {
	innerWidth := i.width - 4
	if innerWidth < 20 {
		innerWidth = 20
	}

	counter := i.renderCharCount()
	bar := lipgloss.JoinVertical(lipgloss.Left,
		i.input.View(),
		i.charCountStyle().Width(innerWidth).Render(counter),
	)

	box := i.theme.InputContainer.Width(i.width - 2).Render(bar)

	if !i.completions.Visible {
		return box
	}

	popupWidth := i.width - 4
	if popupWidth > 56 {
		popupWidth = 56
	}
	i.popup.SetWidth(popupWidth)

	return lipgloss.JoinVertical(lipgloss.Left,
		i.popup.View(&i.completions),
		box,
	)
}

// renderCharCount formats the character counter, empty while the input is.
func (i *InputArea) renderCharCount() string {
	count := runeLen(i.input.Value())
	if count == 0 {
		return ""
	}

	text := util.FormatCount(count) + " / " + util.FormatCount(i.maxChars)

	switch {
	case i.nearLimit(count, 90):
		return text + " [!]"
	case i.nearLimit(count, 75):
		return text + " [~]"
	}
	return text
}

// charCountStyle picks the counter style by how full the input is.
func (i *InputArea) charCountStyle() lipgloss.Style {
	count := runeLen(i.input.Value())
	switch {
	case i.nearLimit(count, 90):
		return i.theme.CharCountDanger
	case i.nearLimit(count, 75):
		return i.theme.CharCountWarning
	}
	return i.theme.CharCount
}

// nearLimit reports whether count is at or past the given percent of the
// character limit.
func (i *InputArea) nearLimit(count, percent int) bool {
	if i.maxChars <= 0 {
		return false
	}
	return count*100 >= i.maxChars*percent
}
