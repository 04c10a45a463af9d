// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// =============================================================================
// MODAL PROMPT
// =============================================================================

// PromptMode selects what the prompt asks for.
type PromptMode int

const (
	// PromptText asks for a line of text, e.g. a new thread title.
	PromptText PromptMode = iota
	// PromptConfirm asks a yes/no question, e.g. before deleting a thread.
	PromptConfirm
)

// PromptResultMsg is emitted when the prompt closes. ID is whatever the
// caller passed to Show, so it can route the answer. OK is false when the
// prompt was cancelled; for confirm prompts it carries the yes/no answer.
type PromptResultMsg struct {
	ID    string
	Value string
	OK    bool
}

// Prompt is a centered modal that asks for a line of text or a yes/no
// confirmation. At most one prompt is open at a time.
type Prompt struct {
	mode   PromptMode
	id     string
	title  string
	detail string

	input      textinput.Model
	confirmYes bool

	visible bool
	width   int
	height  int
	theme   *styles.Theme
}

// NewPrompt creates a new modal prompt.
func NewPrompt(theme *styles.Theme) *Prompt {
	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 40
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.TextStyle = theme.InputText

	return &Prompt{
		input: ti,
		theme: theme,
	}
}

// ShowText opens a text prompt pre-filled with initial.
func (p *Prompt) ShowText(id, title, initial string) tea.Cmd {
	p.mode = PromptText
	p.id = id
	p.title = title
	p.detail = ""
	p.visible = true
	p.input.SetValue(initial)
	p.input.CursorEnd()
	return p.input.Focus()
}

// ShowConfirm opens a yes/no prompt. No is preselected.
func (p *Prompt) ShowConfirm(id, title, detail string) {
	p.mode = PromptConfirm
	p.id = id
	p.title = title
	p.detail = detail
	p.confirmYes = false
	p.visible = true
}

// Hide closes the prompt without emitting a result.
func (p *Prompt) Hide() {
	p.visible = false
	p.input.Blur()
	p.input.Reset()
}

// IsVisible reports whether the prompt is open.
func (p *Prompt) IsVisible() bool {
	return p.visible
}

// SetSize updates the area the prompt centers itself in.
func (p *Prompt) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Update handles key events. The bool reports whether the event was
// consumed; while the prompt is open it swallows all key input.
func (p *Prompt) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !p.visible {
		return nil, false
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if p.mode == PromptText {
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return cmd, false
		}
		return nil, false
	}

	switch key.String() {
	case "esc":
		return p.close(false), true
	case "enter":
		if p.mode == PromptConfirm {
			return p.close(p.confirmYes), true
		}
		return p.close(true), true
	}

	if p.mode == PromptConfirm {
		switch key.String() {
		case "left", "right", "tab", "h", "l":
			p.confirmYes = !p.confirmYes
		case "y":
			return p.close(true), true
		case "n":
			return p.close(false), true
		}
		return nil, true
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd, true
}

// close hides the prompt and emits the result message.
func (p *Prompt) close(ok bool) tea.Cmd {
	id := p.id
	value := strings.TrimSpace(p.input.Value())
	p.Hide()

	return func() tea.Msg {
		return PromptResultMsg{ID: id, Value: value, OK: ok}
	}
}

// =============================================================================
// VIEW RENDERING
// =============================================================================

// View renders the prompt centered in its area.
func (p *Prompt) View() string {
	if !p.visible {
		return ""
	}

	boxWidth := 50
	if p.width > 0 && p.width < 60 {
		boxWidth = p.width - 8
	}
	if boxWidth < 30 {
		boxWidth = 30
	}

	var content strings.Builder
	content.WriteString(p.theme.PromptTitle.Render(p.title))
	content.WriteString("\n\n")

	hint := "Enter confirm | Esc cancel"
	if p.mode == PromptConfirm {
		if p.detail != "" {
			content.WriteString(wordWrap(p.detail, boxWidth-6))
			content.WriteString("\n\n")
		}
		content.WriteString(p.renderButtons())
		hint = "y/n answer | Enter confirm | Esc cancel"
	} else {
		content.WriteString(p.input.View())
	}

	content.WriteString("\n\n")
	content.WriteString(lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render(hint))

	box := p.theme.PromptBox.Width(boxWidth).Render(content.String())

	if p.width > 0 && p.height > 0 {
		return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

// renderButtons renders the yes/no button row.
func (p *Prompt) renderButtons() string {
	idle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Background(styles.Overlay).
		Padding(0, 2).
		MarginRight(1)

	yes := idle.Render("Yes")
	no := idle.Render("No")

	if p.confirmYes {
		yes = idle.
			Background(styles.Rose).
			Foreground(styles.TextInverse).
			Bold(true).
			Render("Yes")
	} else {
		no = idle.
			Background(styles.Green).
			Foreground(styles.TextInverse).
			Bold(true).
			Render("No")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, yes, no)
}
