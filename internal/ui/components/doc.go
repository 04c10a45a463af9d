// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the penny TUI.

This package contains styled, interactive components built on top of the
Bubble Tea and Lip Gloss libraries. Components hold no session state of
their own; the chat model feeds them registry snapshots and routes their
messages.

# Chat Surface

MessageBubble / MessageList (message.go) - User and assistant turns, with
markdown rendering for finished assistant replies and a plain-text cursor
while streaming.
ToolResultCard (toolresult.go) - Calculator results as collapsible cards,
with a missing-inputs banner and a highlighted JSON payload when expanded.
ThreadList (threadlist.go) - Conversation sidebar with pin markers and
last-activity times.
Header (header.go) - One-line brand bar with the active thread title.
StatusBar (statusbar.go) - Backend health, model, thread count, shortcuts.

# Input

InputArea (input.go) - Message input with a character counter and slash
command completion; Tab cycles suggestions.
CompletionPopup (completion.go) - Renders the completion list owned by
commands.CompletionState.
CommandPalette (palette.go) - Searchable command list (Ctrl+K). Filtering
matches a substring of the title or hint, Enter runs the selection after
the palette closes.

# Overlays and Feedback

Prompt (prompt.go) - Centered modal asking for a line of text or a yes/no
answer; results come back as PromptResultMsg.
SettingsPanel (settings.go) - Settings overlay; each edit is reported via
SettingsChangedMsg so it applies immediately.
ErrorBanner (errorview.go) - Dismissible error box with an optional tip.
Spinner / InlineSpinner (spinner.go) - Thinking indicators that honor the
reduce-motion setting.

# Theme Integration

All components take a *styles.Theme:

	theme := styles.NewTheme()
	list := components.NewThreadList(theme)
	list.SetThreads(registry.Threads(), registry.ActiveID())
	view := list.View()
*/
package components
