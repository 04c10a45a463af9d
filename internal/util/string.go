// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "strings"

// ============================================================================
// STRING TRUNCATION
// ============================================================================

// TruncateRunes truncates a string to at most maxRunes runes, appending "..."
// when truncation occurred. UNICODE: operates on runes, never splits a
// multi-byte character.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	// No room for an ellipsis at tiny widths.
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateRunesNoEllipsis truncates to at most maxRunes runes with no marker.
func TruncateRunesNoEllipsis(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// Ellipsize truncates to at most maxRunes runes and appends a single "…" rune
// when the input was longer. Thread titles derive from the first user message
// this way: the kept prefix is exactly maxRunes runes, the ellipsis extra.
func Ellipsize(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "…"
}

// SafeSubstring returns s[start:end] in rune positions, clamping out-of-range
// bounds instead of panicking.
func SafeSubstring(s string, start, end int) string {
	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end || start >= len(runes) {
		return ""
	}
	return string(runes[start:end])
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}

// CollapseSpace trims s and collapses internal whitespace runs to single
// spaces. Draft and title inputs normalize through here.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ============================================================================
// DISPLAY WIDTH
// ============================================================================

// StringWidth returns the display width of s in terminal cells.
func StringWidth(s string) int {
	width := 0
	for _, r := range s {
		width += runeWidth(r)
	}
	return width
}

// TruncateWidth truncates s to fit maxWidth display cells, appending "..."
// when truncation occurred.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if StringWidth(s) <= maxWidth {
		return s
	}

	width := 0
	var b strings.Builder
	for _, r := range s {
		w := runeWidth(r)
		if width+w > maxWidth-3 {
			break
		}
		b.WriteRune(r)
		width += w
	}
	return b.String() + "..."
}

// runeWidth returns the display width of a single rune. Covers the wide
// (CJK, Hangul, fullwidth) ranges that matter for chat content; everything
// else counts as one cell.
func runeWidth(r rune) int {
	switch {
	case r >= 0x1100 && r <= 0x115F, // Hangul Jamo
		r >= 0x2E80 && r <= 0x303E, // CJK radicals, punctuation
		r >= 0x3041 && r <= 0x33FF, // Hiragana, Katakana, CJK misc
		r >= 0x3400 && r <= 0x4DBF, // CJK extension A
		r >= 0x4E00 && r <= 0x9FFF, // CJK unified
		r >= 0xA000 && r <= 0xA4CF, // Yi
		r >= 0xAC00 && r <= 0xD7A3, // Hangul syllables
		r >= 0xF900 && r <= 0xFAFF, // CJK compatibility
		r >= 0xFE30 && r <= 0xFE4F, // CJK compatibility forms
		r >= 0xFF00 && r <= 0xFF60, // Fullwidth forms
		r >= 0xFFE0 && r <= 0xFFE6: // Fullwidth signs
		return 2
	}
	return 1
}
