// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/ui/styles"
	"github.com/pennyworth/penny-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current activity of the active thread.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusStreaming
	StatusError
	StatusIdle
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	case StatusIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// Icon returns a shape indicator for the status, readable without color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusThinking:
		return styles.StatusIndicators.Pending
	case StatusStreaming:
		return "~"
	case StatusError:
		return styles.StatusIndicators.Error
	case StatusIdle:
		return "-"
	default:
		return "?"
	}
}

// StatusBar is the bottom bar: backend reachability, active model, thread
// count, current activity, and key hints when there is room.
type StatusBar struct {
	BackendOK    bool
	BackendKnown bool
	Provider     string
	ModelName    string
	Status       Status
	ThreadCount  int
	Width        int
	ShowHints    bool

	theme *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status:    StatusReady,
		Width:     80,
		ShowHints: true,
		theme:     theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetBackend records the result of a backend status probe.
func (s *StatusBar) SetBackend(ok bool, provider string) {
	s.BackendOK = ok
	s.BackendKnown = true
	s.Provider = provider
}

// SetModel updates the model badge.
func (s *StatusBar) SetModel(name string) {
	s.ModelName = name
}

// SetStatus updates the current activity.
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// SetThreadCount updates the thread counter.
func (s *StatusBar) SetThreadCount(n int) {
	s.ThreadCount = n
}

// View renders the status bar.
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	if s.Width < 100 {
		return s.viewMedium()
	}
	return s.viewWide()
}

// viewNarrow renders a compact bar: backend indicator, status icon, model.
func (s *StatusBar) viewNarrow() string {
	parts := []string{s.renderBackend(true)}

	statusStyle := s.statusStyle()
	parts = append(parts, statusStyle.Render(s.Status.Icon()))

	if s.ModelName != "" {
		parts = append(parts, s.theme.ModelBadge.Render(truncateString(s.ModelName, 14)))
	}

	result := strings.Join(parts, " ")

	return s.theme.StatusBar.Width(s.Width).Render(result)
}

// viewMedium renders: backend | model | threads | status.
func (s *StatusBar) viewMedium() string {
	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	parts := []string{s.renderBackend(false)}

	if s.ModelName != "" {
		parts = append(parts, s.theme.ModelBadge.Render(truncateString(s.ModelName, 18)))
	}

	parts = append(parts, s.renderThreadCount())
	parts = append(parts, s.statusStyle().Render(s.Status.String()))

	result := strings.Join(parts, separator)

	return s.theme.StatusBar.Width(s.Width).Render(result)
}

// viewWide adds right-aligned key hints to the medium layout.
func (s *StatusBar) viewWide() string {
	separator := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(" | ")

	leftParts := []string{s.renderBackend(false)}

	if s.ModelName != "" {
		leftParts = append(leftParts, s.theme.ModelBadge.Render(s.ModelName))
	}

	leftParts = append(leftParts, s.renderThreadCount())
	leftParts = append(leftParts, s.statusStyle().Render(s.Status.String()))

	left := strings.Join(leftParts, separator)

	right := ""
	if s.ShowHints {
		right = s.renderHints()
	}

	// Pad the middle so hints sit at the right edge
	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	result := left + strings.Repeat(" ", gap) + right

	return s.theme.StatusBar.Width(s.Width).Render(result)
}

// renderBackend renders the reachability indicator.
func (s *StatusBar) renderBackend(compact bool) string {
	if !s.BackendKnown {
		return lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(styles.StatusIndicators.Pending + " backend")
	}

	if s.BackendOK {
		label := styles.StatusIndicators.Success
		if !compact {
			provider := s.Provider
			if provider == "" {
				provider = "backend"
			}
			label += " " + provider
		}
		return s.theme.ConnGood.Render(label)
	}

	label := styles.StatusIndicators.Error
	if !compact {
		label += " offline"
	}
	return s.theme.ConnBad.Render(label)
}

// renderThreadCount renders the thread counter.
func (s *StatusBar) renderThreadCount() string {
	label := "thread"
	if s.ThreadCount != 1 {
		label = "threads"
	}
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(util.FormatCount(s.ThreadCount) + " " + label)
}

// renderHints renders the keyboard shortcut hints.
func (s *StatusBar) renderHints() string {
	hints := []struct {
		key  string
		desc string
	}{
		{"Ctrl+K", "commands"},
		{"Ctrl+N", "new"},
		{"Tab", "threads"},
		{"Ctrl+C", "quit"},
	}

	var parts []string
	for _, h := range hints {
		parts = append(parts, s.theme.ShortcutKey.Render(h.key)+" "+s.theme.ShortcutDesc.Render(h.desc))
	}

	sep := lipgloss.NewStyle().Foreground(styles.Overlay).Render("  ")
	return strings.Join(parts, sep)
}

// statusStyle returns the style for the current status.
func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusReady:
		return s.theme.ConnGood
	case StatusError:
		return s.theme.ConnBad
	case StatusThinking, StatusStreaming:
		return lipgloss.NewStyle().Foreground(styles.Cyan)
	default:
		return lipgloss.NewStyle().Foreground(styles.TextMuted)
	}
}
