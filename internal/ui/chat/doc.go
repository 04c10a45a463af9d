// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation screen of the penny TUI.
//
// The screen is a single Bubble Tea model that composes the widgets from
// internal/ui/components: a thread sidebar, the message viewport, the input
// area with slash completion, a status bar, and the modal overlays (command
// palette, text/confirm prompts, settings panel).
//
// All conversation state lives in the session registry; the model never
// caches threads or messages itself. Question turns run on the session
// controller inside command goroutines, and a fixed-rate render tick re-reads
// the registry while replies stream in, so the screen stays responsive
// without re-rendering once per token.
package chat
