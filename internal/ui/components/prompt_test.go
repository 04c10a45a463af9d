// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

func promptResult(t *testing.T, cmd tea.Cmd) PromptResultMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a result command")
	}
	msg, ok := cmd().(PromptResultMsg)
	if !ok {
		t.Fatalf("cmd() = %T, want PromptResultMsg", cmd())
	}
	return msg
}

func TestPromptTextSubmit(t *testing.T) {
	p := NewPrompt(styles.NewTheme())
	p.ShowText("rename:t1", "Rename thread", "Mortgage questions")

	if !p.IsVisible() {
		t.Fatal("ShowText should open the prompt")
	}

	// Append to the prefilled title
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'!'}})
	cmd, handled := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !handled {
		t.Error("enter should be consumed")
	}

	msg := promptResult(t, cmd)
	if msg.ID != "rename:t1" {
		t.Errorf("ID = %q, want rename:t1", msg.ID)
	}
	if msg.Value != "Mortgage questions!" {
		t.Errorf("Value = %q", msg.Value)
	}
	if !msg.OK {
		t.Error("enter should report OK")
	}
	if p.IsVisible() {
		t.Error("prompt should close on submit")
	}
}

func TestPromptTextCancel(t *testing.T) {
	p := NewPrompt(styles.NewTheme())
	p.ShowText("rename:t1", "Rename thread", "Old title")

	cmd, handled := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !handled {
		t.Error("esc should be consumed")
	}

	msg := promptResult(t, cmd)
	if msg.OK {
		t.Error("esc should report cancelled")
	}
	if p.IsVisible() {
		t.Error("prompt should close on cancel")
	}
}

func TestPromptConfirmDefaultsToNo(t *testing.T) {
	p := NewPrompt(styles.NewTheme())
	p.ShowConfirm("delete:t1", "Delete thread?", "This cannot be undone.")

	cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := promptResult(t, cmd)

	if msg.OK {
		t.Error("enter on a fresh confirm should answer no")
	}
	if msg.ID != "delete:t1" {
		t.Errorf("ID = %q, want delete:t1", msg.ID)
	}
}

func TestPromptConfirmShortcuts(t *testing.T) {
	t.Run("y answers yes", func(t *testing.T) {
		p := NewPrompt(styles.NewTheme())
		p.ShowConfirm("delete:t1", "Delete thread?", "")

		cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
		if !promptResult(t, cmd).OK {
			t.Error("y should answer yes")
		}
	})

	t.Run("n answers no", func(t *testing.T) {
		p := NewPrompt(styles.NewTheme())
		p.ShowConfirm("delete:t1", "Delete thread?", "")

		cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
		if promptResult(t, cmd).OK {
			t.Error("n should answer no")
		}
	})

	t.Run("tab toggles then enter", func(t *testing.T) {
		p := NewPrompt(styles.NewTheme())
		p.ShowConfirm("delete:t1", "Delete thread?", "")

		p.Update(tea.KeyMsg{Type: tea.KeyTab})
		cmd, _ := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if !promptResult(t, cmd).OK {
			t.Error("enter after toggling to yes should answer yes")
		}
	})
}

func TestPromptSwallowsKeysWhileOpen(t *testing.T) {
	p := NewPrompt(styles.NewTheme())
	p.ShowConfirm("x", "Sure?", "")

	_, handled := p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if !handled {
		t.Error("open prompt should consume stray keys")
	}
}

func TestPromptHiddenIgnoresKeys(t *testing.T) {
	p := NewPrompt(styles.NewTheme())

	cmd, handled := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if handled || cmd != nil {
		t.Error("hidden prompt should pass keys through")
	}
}

func TestPromptView(t *testing.T) {
	p := NewPrompt(styles.NewTheme())

	if p.View() != "" {
		t.Error("hidden prompt should render nothing")
	}

	p.ShowConfirm("delete:t1", "Delete thread?", "This cannot be undone.")
	view := p.View()

	for _, want := range []string{"Delete thread?", "This cannot be undone.", "Yes", "No", "Esc cancel"} {
		if !strings.Contains(view, want) {
			t.Errorf("confirm view missing %q", want)
		}
	}

	p.Hide()
	cmd := p.ShowText("rename:t1", "Rename thread", "Budget")
	if cmd == nil {
		t.Error("ShowText should return the focus command")
	}
	if !strings.Contains(p.View(), "Rename thread") {
		t.Error("text view should show the title")
	}
}
