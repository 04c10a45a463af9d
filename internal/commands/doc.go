// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command system for the TUI.
//
// Commands are explicit objects decoupled from key bindings: the command
// palette and the slash-command parser both consume the same Registry, so
// a command behaves identically whether it is picked from the palette or
// typed as /name into the chat input. Every command is a zero-argument
// action; commands that need further input (such as a rename) emit a
// message asking the UI to collect it.
//
// # Key Types
//
//   - Registry: holds the built-in commands in a stable order
//   - Command: palette entry with id, title, hint, and action
//   - Parser: resolves slash input against the registry
//   - Completer: tab completion for slash command names
//
// # Built-in Commands
//
//   - /new: Start a fresh conversation
//   - /rename: Rename the current conversation
//   - /delete: Delete the current conversation
//   - /status: Check the advisor backend
//   - /model: Toggle the advisor model
//   - /settings: Open the settings overlay
//
// # Usage
//
// Parse and execute a command:
//
//	result := parser.Parse(input)
//	if result.IsCommand && result.Command != nil {
//	    return result.Command.Action(cmdCtx)
//	}
//
// Filter commands for the palette:
//
//	matches := commands.Filter(registry.All(), "thr")
//	// Returns the thread commands
package commands
