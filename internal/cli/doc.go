// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for penny.
//
// This package implements all CLI commands for the penny TUI application,
// covering both interactive use (the default TUI, the plain-terminal chat
// REPL) and one-shot scripting commands (ask, import, export, status).
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - JSONResponse: Machine-readable output envelope behind the --json flag
//
// # Usage
//
// Parse and dispatch commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    cli.HandleAsk(args)
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
// Core Commands:
//   - (none): Start the full-screen chat TUI
//   - ask: Single question against the advisor backend
//   - chat: Interactive chat session in plain terminal mode
//   - serve: Run the advisor backend locally
//
// Ledger Commands:
//   - import: Load a bank statement CSV into the local ledger
//   - status: Backend and ledger health at a glance
//
// Utility Commands:
//   - export: Write a conversation transcript to Markdown or JSON
//   - config: Show and edit configuration
//   - doctor: Environment checks with suggested fixes
//
// All non-interactive commands support the --json flag for scripting.
package cli
