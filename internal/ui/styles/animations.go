// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the penny TUI.
package styles

import "time"

// =============================================================================
// SPINNER ANIMATIONS
// =============================================================================

// LineSpinner - Simple line rotation
var LineSpinner = SpinnerConfig{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    10,
}

// DotsSpinner - Classic three-dot animation, used while the advisor thinks
var DotsSpinner = SpinnerConfig{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    6,
}

// PulseSpinner - Pulsing indicator
var PulseSpinner = SpinnerConfig{
	Frames: []string{"( )", "(.)", "(o)", "(O)", "(o)", "(.)", "( )", "   "},
	FPS:    8,
}

// StaticSpinner - Single motionless frame for reduce-motion mode
var StaticSpinner = SpinnerConfig{
	Frames: []string{"..."},
	FPS:    1,
}

// SpinnerConfig holds the configuration for a spinner animation.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the duration for each frame.
func (s SpinnerConfig) Duration() time.Duration {
	return time.Second / time.Duration(s.FPS)
}

// ForMotionPreference returns the spinner itself, or the static fallback
// when the user has reduce-motion enabled in settings.
func (s SpinnerConfig) ForMotionPreference(reduceMotion bool) SpinnerConfig {
	if reduceMotion {
		return StaticSpinner
	}
	return s
}

// =============================================================================
// TYPING AND CURSOR ANIMATIONS
// =============================================================================

// TypingCursor frames shown at the tail of a streaming assistant message.
var TypingCursor = []string{"_", " "}

// CursorBlinkRate is the standard cursor blink rate.
var CursorBlinkRate = 530 * time.Millisecond
