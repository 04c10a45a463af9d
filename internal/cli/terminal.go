// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY reports whether stdin is attached to a terminal. False means input
// is piped or redirected.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY reports whether stdout is attached to a terminal. False means
// output is piped, so decorative rendering should be skipped.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStderrTTY reports whether stderr is attached to a terminal.
func IsStderrTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// =============================================================================
// TERMINAL DIMENSIONS
// =============================================================================

const (
	// DefaultTerminalWidth is used when the real width cannot be determined.
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width output is formatted for.
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the current terminal width in columns, falling
// back to DefaultTerminalWidth when stdout is not a terminal.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// GetTerminalSize returns the terminal dimensions, with an 80x24 fallback.
func GetTerminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		return DefaultTerminalWidth, 24
	}
	return width, height
}

// WrapText word-wraps text to the given width, preserving existing newlines.
// A small right margin keeps wrapped lines clear of the terminal edge.
func WrapText(text string, width int) string {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	limit := width - 2
	if limit < 10 {
		limit = 10
	}

	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(wrapLine(line, limit))
	}
	return out.String()
}

func wrapLine(line string, limit int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return line
	}

	var out strings.Builder
	lineLen := 0
	for i, word := range words {
		if i > 0 {
			if lineLen+1+len(word) > limit {
				out.WriteString("\n")
				lineLen = 0
			} else {
				out.WriteString(" ")
				lineLen++
			}
		}
		out.WriteString(word)
		lineLen += len(word)
	}
	return out.String()
}

// =============================================================================
// COLOR SUPPORT
// =============================================================================

var (
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
)

// ColorsEnabled reports whether colored output should be used. NO_COLOR
// disables, FORCE_COLOR enables, and otherwise colors follow stdout being
// a terminal. The decision is made once per process.
func ColorsEnabled() bool {
	colorsEnabledOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" {
			colorsEnabled = false
			return
		}
		if os.Getenv("FORCE_COLOR") != "" {
			colorsEnabled = true
			return
		}
		colorsEnabled = IsStdoutTTY()
	})
	return colorsEnabled
}

// ForceColorsEnabled overrides color detection. Test hook.
func ForceColorsEnabled(enabled bool) {
	colorsEnabledOnce.Do(func() {})
	colorsEnabled = enabled
}

// GetColorProfile returns the termenv color profile to render with,
// degrading to plain ASCII when colors are disabled.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// INTERACTIVITY
// =============================================================================

// CanPrompt reports whether the user can be prompted interactively. Requires
// both stdin and stdout to be terminals.
func CanPrompt() bool {
	return IsTTY() && IsStdoutTTY()
}

// TTYRequiredError indicates an operation that needs a terminal was invoked
// without one.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	return fmt.Sprintf("%s requires an interactive terminal", e.Operation)
}

// RequiresTTY returns an error when the named operation cannot run because
// there is no terminal attached.
func RequiresTTY(operation string) error {
	if !CanPrompt() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}
