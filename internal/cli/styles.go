// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// CLI STYLES
// =============================================================================

// Styles for plain-terminal command output. The full-screen TUI carries its
// own theme; these cover ask/chat/status and friends. lipgloss degrades to
// plain text automatically when the profile is Ascii.

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// TitleStyle renders command headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	// SectionStyle renders section names within a command's output.
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			MarginTop(1)

	// LabelStyle renders field labels in aligned label/value listings.
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(20)

	// ValueStyle renders field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// SuccessStyle renders passing states.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// ErrorStyle renders failing states.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// WarningStyle renders degraded states.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// DimStyle renders secondary detail.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// SeparatorStyle renders horizontal rules.
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// HighlightStyle renders values worth drawing the eye to.
	HighlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	// InfoStyle renders informational notes.
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))
)

// =============================================================================
// RENDER HELPERS
// =============================================================================

// RenderSeparator returns a horizontal rule. Width defaults to 70.
func RenderSeparator(width ...int) string {
	w := 70
	if len(width) > 0 && width[0] > 0 {
		w = width[0]
	}
	return SeparatorStyle.Render(strings.Repeat("=", w))
}

// RenderStatus renders a status word as a bracketed, colored tag.
func RenderStatus(status string) string {
	switch strings.ToLower(status) {
	case "ok", "pass", "success", "healthy":
		return SuccessStyle.Render("[OK]")
	case "fail", "failed", "error":
		return ErrorStyle.Render("[FAIL]")
	case "warn", "warning", "degraded":
		return WarningStyle.Render("[WARN]")
	default:
		return DimStyle.Render("[" + strings.ToUpper(status) + "]")
	}
}

// RenderLabel renders an aligned label/value pair.
func RenderLabel(label, value string) string {
	return LabelStyle.Render(label+":") + " " + ValueStyle.Render(value)
}
