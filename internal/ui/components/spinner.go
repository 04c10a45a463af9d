// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// =============================================================================
// SPINNER MODEL
// =============================================================================

// Spinner is the loading indicator shown while the advisor works. With
// reduce-motion enabled it renders a single static frame and never ticks.
type Spinner struct {
	// Core spinner from bubbles
	spinner spinner.Model

	// Configuration
	config       styles.SpinnerConfig
	message      string
	startTime    time.Time
	reduceMotion bool

	// State
	isActive  bool
	showTimer bool
}

// NewSpinner creates a new spinner with the default line animation.
func NewSpinner() Spinner {
	s := Spinner{
		spinner:   spinner.New(),
		config:    styles.LineSpinner,
		message:   "Loading",
		showTimer: true,
	}
	s.applyConfig()
	return s
}

// NewThinkingSpinner creates the spinner for the "Thinking..." state shown
// between send and the first streamed chunk.
func NewThinkingSpinner() Spinner {
	s := NewSpinner()
	s.config = styles.DotsSpinner
	s.message = "Thinking"
	s.applyConfig()
	return s
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetMessage sets the text displayed next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.message = msg
}

// SetShowTimer enables or disables the elapsed time display.
func (s *Spinner) SetShowTimer(show bool) {
	s.showTimer = show
}

// SetReduceMotion switches between the animated frames and a static frame.
func (s *Spinner) SetReduceMotion(enabled bool) {
	s.reduceMotion = enabled
	s.applyConfig()
}

// applyConfig pushes the active frame set into the bubbles spinner.
func (s *Spinner) applyConfig() {
	cfg := s.config.ForMotionPreference(s.reduceMotion)
	s.spinner.Spinner = spinner.Spinner{
		Frames: cfg.Frames,
		FPS:    cfg.Duration(),
	}
}

// =============================================================================
// STATE MANAGEMENT
// =============================================================================

// Start activates the spinner and records the start time. A static spinner
// needs no tick, so Start returns nil under reduce motion.
func (s *Spinner) Start() tea.Cmd {
	s.isActive = true
	s.startTime = time.Now()
	if s.reduceMotion {
		return nil
	}
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.isActive = false
}

// IsActive returns whether the spinner is currently running.
func (s *Spinner) IsActive() bool {
	return s.isActive
}

// GetElapsed returns the duration since the spinner started.
func (s *Spinner) GetElapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the spinner.
func (s Spinner) Init() tea.Cmd {
	return nil
}

// Update handles messages for the spinner.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.isActive || s.reduceMotion {
		return s, nil
	}

	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the spinner.
func (s Spinner) View() string {
	if !s.isActive {
		return ""
	}

	spinnerView := lipgloss.NewStyle().
		Foreground(styles.Green).
		Render(s.spinner.View())

	messageView := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(s.message)

	dotsView := lipgloss.NewStyle().
		Foreground(styles.Green).
		Render("...")

	result := spinnerView + " " + messageView + dotsView

	if s.showTimer && !s.startTime.IsZero() {
		elapsed := time.Since(s.startTime)
		timerView := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(" (" + formatElapsed(elapsed) + ")")
		result += timerView
	}

	return result
}

// =============================================================================
// INLINE SPINNER
// =============================================================================

// InlineSpinner is a minimal one-character spinner for the status bar.
type InlineSpinner struct {
	spinner      spinner.Model
	active       bool
	reduceMotion bool
}

// NewInlineSpinner creates a minimal inline spinner.
func NewInlineSpinner() InlineSpinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: styles.LineSpinner.Frames,
		FPS:    styles.LineSpinner.Duration(),
	}
	return InlineSpinner{spinner: s}
}

// SetReduceMotion switches to a static frame.
func (i *InlineSpinner) SetReduceMotion(enabled bool) {
	i.reduceMotion = enabled
	cfg := styles.LineSpinner.ForMotionPreference(enabled)
	i.spinner.Spinner = spinner.Spinner{
		Frames: cfg.Frames,
		FPS:    cfg.Duration(),
	}
}

// Start begins the spinner.
func (i *InlineSpinner) Start() tea.Cmd {
	i.active = true
	if i.reduceMotion {
		return nil
	}
	return i.spinner.Tick
}

// Stop ends the spinner.
func (i *InlineSpinner) Stop() {
	i.active = false
}

// Update handles messages.
func (i InlineSpinner) Update(msg tea.Msg) (InlineSpinner, tea.Cmd) {
	if !i.active || i.reduceMotion {
		return i, nil
	}
	var cmd tea.Cmd
	i.spinner, cmd = i.spinner.Update(msg)
	return i, cmd
}

// View renders just the spinner character.
func (i InlineSpinner) View() string {
	if !i.active {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(styles.Green).
		Render(i.spinner.View())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatElapsed formats a duration for display.
func formatElapsed(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return strconv.Itoa(seconds) + "s"
	}
	minutes := seconds / 60
	secs := seconds % 60
	return strconv.Itoa(minutes) + "m " + strconv.Itoa(secs) + "s"
}
