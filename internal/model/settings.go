// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// TEXT SIZE
// =============================================================================

// TextSize scales chat typography.
type TextSize string

const (
	TextSizeSmall  TextSize = "small"
	TextSizeMedium TextSize = "medium"
	TextSizeLarge  TextSize = "large"
)

// Valid reports whether the value is a known size.
func (ts TextSize) Valid() bool {
	switch ts {
	case TextSizeSmall, TextSizeMedium, TextSizeLarge:
		return true
	}
	return false
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings are the user preferences persisted under the "settings" key.
// SaveHistory gates persistence only: with it off, threads and messages still
// mutate in memory but nothing is written through the store.
type Settings struct {
	StreamResponses bool     `json:"streamResponses"`
	SaveHistory     bool     `json:"saveHistory"`
	ReduceMotion    bool     `json:"reduceMotion"`
	TextSize        TextSize `json:"textSize"`
	LLMModel        string   `json:"llmModel"`
}

// DefaultSettings returns the out-of-box preferences: streaming on, history
// on, medium text, and the advisor's default model.
func DefaultSettings() Settings {
	return Settings{
		StreamResponses: true,
		SaveHistory:     true,
		ReduceMotion:    false,
		TextSize:        TextSizeMedium,
		LLMModel:        "",
	}
}

// Normalize repairs out-of-range values loaded from disk.
func (s *Settings) Normalize() {
	if !s.TextSize.Valid() {
		s.TextSize = TextSizeMedium
	}
}
