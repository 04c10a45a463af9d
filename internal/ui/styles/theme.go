// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the penny TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// THREAD SIDEBAR STYLES
	// ==========================================================================

	SidebarBox          lipgloss.Style
	SidebarTitle        lipgloss.Style
	SidebarItem         lipgloss.Style
	SidebarItemSelected lipgloss.Style
	SidebarPin          lipgloss.Style
	SidebarMeta         lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserBubble    lipgloss.Style
	AssistantBody lipgloss.Style
	StreamCursor  lipgloss.Style
	MessageTime   lipgloss.Style

	// ==========================================================================
	// CALCULATOR RESULT STYLES
	// ==========================================================================

	ToolCard      lipgloss.Style
	ToolCardError lipgloss.Style
	ToolTitle     lipgloss.Style
	ToolLabel     lipgloss.Style
	ToolValue     lipgloss.Style
	MissingBanner lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style
	CharCount        lipgloss.Style
	CharCountWarning lipgloss.Style
	CharCountDanger  lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ModelBadge   lipgloss.Style
	ConnGood     lipgloss.Style
	ConnBad      lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// COMMAND PALETTE STYLES
	// ==========================================================================

	PaletteBox          lipgloss.Style
	PaletteItem         lipgloss.Style
	PaletteItemSelected lipgloss.Style
	PaletteCommand      lipgloss.Style
	PaletteDesc         lipgloss.Style

	// ==========================================================================
	// COMPLETION POPUP STYLES
	// ==========================================================================

	CompletionPopup    lipgloss.Style
	CompletionItem     lipgloss.Style
	CompletionSelected lipgloss.Style
	CompletionMatch    lipgloss.Style

	// ==========================================================================
	// SPINNER AND LOADING STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	ThinkingDots lipgloss.Style

	// ==========================================================================
	// OVERLAY STYLES (settings, rename prompt, errors)
	// ==========================================================================

	SettingsBox      lipgloss.Style
	SettingsTitle    lipgloss.Style
	SettingsLabel    lipgloss.Style
	SettingsValue    lipgloss.Style
	SettingsSelected lipgloss.Style
	SettingsHint     lipgloss.Style

	PromptBox   lipgloss.Style
	PromptTitle lipgloss.Style

	ErrorBox     lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style
	ErrorTip     lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	// Detect terminal capabilities
	colorProfile := termenv.ColorProfile()
	hasTrueColor := colorProfile == termenv.TrueColor
	isDark := termenv.HasDarkBackground()

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: hasTrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// ApplyBackgroundMode forces the light/dark variant of every adaptive color.
// Mode "auto" (or anything unrecognized) keeps terminal detection.
// Call before NewTheme so styles resolve against the forced background.
func ApplyBackgroundMode(mode string) {
	switch mode {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Thread sidebar
	t.SidebarBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Green).
		Padding(0, 1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.SidebarItemSelected = lipgloss.NewStyle().
		Background(SelectionBg).
		Foreground(TextPrimary).
		Bold(true).
		Padding(0, 1)

	t.SidebarPin = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.SidebarMeta = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Messages
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2).
		MarginLeft(4)

	t.AssistantBody = lipgloss.NewStyle().
		Foreground(AssistantFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantAccent).
		PaddingLeft(2).
		MarginRight(4)

	t.StreamCursor = lipgloss.NewStyle().
		Foreground(Green).
		Bold(true)

	t.MessageTime = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Calculator result cards
	t.ToolCard = lipgloss.NewStyle().
		Foreground(ToolSuccessFg).
		Background(ToolSuccessBg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Green).
		PaddingLeft(2)

	t.ToolCardError = lipgloss.NewStyle().
		Foreground(ToolErrorFg).
		Background(ToolErrorBg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Rose).
		PaddingLeft(2)

	t.ToolTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Green)

	t.ToolLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.ToolValue = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)

	t.MissingBanner = lipgloss.NewStyle().
		Foreground(Amber).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Amber).
		PaddingLeft(2)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.CharCount = lipgloss.NewStyle().
		Foreground(TextMuted).
		Align(lipgloss.Right)

	t.CharCountWarning = lipgloss.NewStyle().
		Foreground(Amber).
		Align(lipgloss.Right)

	t.CharCountDanger = lipgloss.NewStyle().
		Foreground(Rose).
		Align(lipgloss.Right)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ModelBadge = lipgloss.NewStyle().
		Foreground(Green).
		Bold(true)

	t.ConnGood = lipgloss.NewStyle().
		Foreground(Green).
		Bold(true)

	t.ConnBad = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Command palette
	t.PaletteBox = lipgloss.NewStyle().
		Background(Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Green).
		Padding(1, 2)

	t.PaletteItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.PaletteItemSelected = lipgloss.NewStyle().
		Background(Green).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1)

	t.PaletteCommand = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.PaletteDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Completion popup
	t.CompletionPopup = lipgloss.NewStyle().
		Background(Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.CompletionItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.CompletionSelected = lipgloss.NewStyle().
		Background(Green).
		Foreground(TextInverse).
		Bold(true)

	t.CompletionMatch = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	// Spinner and loading
	t.Spinner = lipgloss.NewStyle().
		Foreground(Green)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.ThinkingDots = lipgloss.NewStyle().
		Foreground(Green)

	// Settings overlay
	t.SettingsBox = lipgloss.NewStyle().
		Background(Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Green).
		Padding(1, 2)

	t.SettingsTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Green)

	t.SettingsLabel = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SettingsValue = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.SettingsSelected = lipgloss.NewStyle().
		Background(SelectionBg).
		Foreground(TextPrimary).
		Bold(true)

	t.SettingsHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Rename prompt
	t.PromptBox = lipgloss.NewStyle().
		Background(Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 2)

	t.PromptTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	// Error boxes
	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(1, 2)

	t.ErrorTitle = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ErrorTip = lipgloss.NewStyle().
		Foreground(Cyan).
		Italic(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
// The thread sidebar is hidden below LayoutMedium.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
