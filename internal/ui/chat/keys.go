// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation screen of the penny TUI.
package chat

import "github.com/charmbracelet/bubbles/key"

// =============================================================================
// KEY BINDINGS
// =============================================================================

// KeyMap holds the chat screen's keyboard bindings. Routing matches on
// bindings rather than raw key strings, so remapping stays in one place.
type KeyMap struct {
	// Global
	Quit      key.Binding
	Palette   key.Binding
	NewThread key.Binding
	Focus     key.Binding
	Cancel    key.Binding

	// Input focused
	Submit     key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Top        key.Binding
	Bottom     key.Binding
	ToggleCard key.Binding

	// Sidebar focused
	SidebarUp   key.Binding
	SidebarDown key.Binding
	Pin         key.Binding
}

// DefaultKeyMap returns the default bindings. The status bar's hint row
// advertises Quit, Palette, NewThread, and Focus.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "quit"),
		),
		Palette: key.NewBinding(
			key.WithKeys("ctrl+k", "ctrl+p"),
			key.WithHelp("Ctrl+K", "command palette"),
		),
		NewThread: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("Ctrl+N", "new thread"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("Tab", "switch focus"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "dismiss / stop reply"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("Up", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("Down", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "half page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "half page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("Home", "go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("End", "go to bottom"),
		),
		ToggleCard: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("Ctrl+O", "expand calculations"),
		),
		SidebarUp: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("Up/k", "previous thread"),
		),
		SidebarDown: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("Down/j", "next thread"),
		),
		Pin: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pin thread"),
		),
	}
}
