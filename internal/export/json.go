// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to JSON format.
// NOTE: JSON exports always include the complete transcript and do not respect
// the filtering options. The output is a faithful copy of the stored thread
// state, tool payloads included.
type JSONExporter struct {
	// Options are accepted but currently not used for filtering.
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
// The options parameter is accepted for consistency with other exporters,
// but JSON exports always include complete transcript data.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a transcript to JSON format.
// NOTE: This always exports the complete transcript regardless of options.
func (e *JSONExporter) Export(tr *Transcript) ([]byte, error) {
	// Validate transcript data
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}

	return json.MarshalIndent(tr, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
