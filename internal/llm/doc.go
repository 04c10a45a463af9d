// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package llm talks to an OpenAI-compatible chat completions provider and
// turns finance questions into grounded answers.
//
// The package has two layers. Client wraps the raw HTTP surface: Generate
// posts chat messages, Status checks that the provider is reachable, and
// Probe performs a minimal round trip for diagnostics. The orchestration
// layer sits on top: it asks the model to plan tool calls, executes the
// plan against the local calculators, and composes a final answer that
// cites only local analytics and tool output.
//
// Providers on this path do not stream. StreamCompose slices a full
// completion into fixed-size chunks so the serving layer can deliver
// uniform token events either way.
package llm
