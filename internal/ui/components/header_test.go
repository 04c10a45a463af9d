// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

func TestHeaderBrand(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.SetWidth(100)

	view := h.View()
	if !strings.Contains(view, "penny") {
		t.Error("header should carry the brand")
	}
	if !strings.Contains(view, "personal finance chat") {
		t.Error("header should carry the tagline")
	}
}

func TestHeaderThreadTitle(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.SetWidth(100)
	h.SetThread("Mortgage questions", false)

	if !strings.Contains(h.View(), "Mortgage questions") {
		t.Error("header should show the active thread title")
	}
}

func TestHeaderPinnedMarker(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.SetWidth(100)

	h.SetThread("Budget review", false)
	if strings.Contains(h.View(), "*") {
		t.Error("unpinned thread should not show the pin marker")
	}

	h.SetThread("Budget review", true)
	if !strings.Contains(h.View(), "*") {
		t.Error("pinned thread should show the pin marker")
	}
}

func TestHeaderTruncatesLongTitles(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.SetWidth(60)
	long := strings.Repeat("budget ", 20)
	h.SetThread(long, false)

	view := h.View()
	if !strings.Contains(view, "...") {
		t.Error("overlong titles should be truncated")
	}
	if strings.Contains(view, strings.TrimSpace(long)) {
		t.Error("the full title should not fit in the header")
	}
}
