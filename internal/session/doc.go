// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns conversation state for the penny TUI and CLI: the
// thread registry, per-thread message lists, drafts, settings, and the
// controller that turns a user question into an assembled assistant reply.
//
// All mutation flows through the Registry, which mirrors state to the
// injected store while history saving is enabled. The Controller drives the
// advisor backend in streaming or single-shot mode and reconciles failures
// without surfacing them as errors: a failed turn ends as a regular
// assistant message carrying guidance text, and the conversation stays
// usable. In-flight streams are bound to the thread they started on, so
// switching the active thread mid-stream never misroutes tokens.
package session
