// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to disk.
//
// A transcript is a thread plus its message list. Exporters format the
// transcript and ExportToFile writes it under a timestamped, sanitized
// filename, optionally opening the result in the default application.
//
// # Key Types
//
//   - Transcript: a thread bundled with its messages
//   - Exporter: the format interface (Markdown, JSON)
//   - Options: export configuration
//
// # Supported Formats
//
//   - Markdown: human-readable, calculator results as fenced JSON blocks
//   - JSON: machine-readable, the complete stored state
//
// # Usage
//
// Export the active thread to Markdown:
//
//	tr := export.NewTranscript(thread, messages)
//	path, err := export.ExportMarkdown(tr, export.DefaultOptions())
//
// Dispatch on a format name:
//
//	path, err := export.ExportAs(tr, "json", opts)
package export
