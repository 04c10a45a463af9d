// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the penny TUI.

This package defines the complete color palette, theme, and animation
system used throughout the application. All colors use Lip Gloss
AdaptiveColor for automatic light/dark terminal detection.

# Color System (colors.go)

## Accent Colors

  - Green - Primary brand accent for the advisor, success states, and selection
  - Cyan - Secondary accent for commands, prompts, and tips
  - Amber - Warnings, missing-input banners, and pinned threads
  - Rose - Errors and destructive actions

## Semantic Colors

Message bubbles and calculator cards use semantic color tokens:

	UserBubbleBg    - Background for user messages
	UserBubbleFg    - Text color for user messages
	AssistantAccent - Border rail next to assistant markdown
	ToolSuccessBg   - Background for calculator result cards
	ToolErrorBg     - Background for failed calculator runs

## Surface Colors

Layered surface system for depth:

	Surface    - Elevated elements (palette, overlays)
	SurfaceDim - Subtle backgrounds (status bar)
	Overlay    - Borders and separators

## Text Colors

Hierarchical text color system:

	TextPrimary   - Main content text
	TextSecondary - Supporting text
	TextMuted     - De-emphasized text
	TextInverse   - Text on colored backgrounds

# Theme System (theme.go)

The Theme struct groups every style the chat screen renders with:

	theme := styles.NewTheme()
	bubble := theme.UserBubble.Render("How much house can I afford?")

The configured theme mode ("dark", "light", "auto") is applied before
construction:

	styles.ApplyBackgroundMode(cfg.UI.Theme)
	theme := styles.NewTheme()

Layout breakpoints drive sidebar visibility:

	theme.SetSize(width, height)
	if theme.GetLayoutMode() == styles.LayoutWide {
		// render the thread sidebar
	}

# Animation System (animations.go)

Pre-defined spinner styles:

	LineSpinner - Simple line rotation
	DotsSpinner - Three-dot thinking animation
	PulseSpinner - Pulsing indicator

Spinners respect the reduce-motion setting:

	spin := styles.DotsSpinner.ForMotionPreference(settings.ReduceMotion)

# Status Indicators

ASCII-safe indicators for backend status and notices:

	StatusIndicators.Success - [OK]
	StatusIndicators.Error   - [X]
	StatusIndicators.Warning - [!]
	StatusIndicators.Info    - [i]
*/
package styles
