// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// FILE STORE TESTS
// =============================================================================

func TestFileStore_SetGetRoundTrip(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	if err := fs.Set(KeyThreads, `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := fs.Get(KeyThreads)
	if !ok {
		t.Fatal("Get reported missing after Set")
	}
	if got != `[{"id":"1"}]` {
		t.Errorf("Get = %q, want stored value", got)
	}
}

func TestFileStore_MissingKey(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	if _, ok := fs.Get("never_written"); ok {
		t.Error("Get reported presence for missing key")
	}
}

func TestFileStore_Delete(t *testing.T) {
	fs := NewFileStore(t.TempDir())

	if err := fs.Set(DraftKey("123"), `"half-typed question"`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := fs.Delete(DraftKey("123")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := fs.Get(DraftKey("123")); ok {
		t.Error("Key still present after Delete")
	}

	// Deleting again is fine.
	if err := fs.Delete(DraftKey("123")); err != nil {
		t.Errorf("Delete of missing key errored: %v", err)
	}
}

func TestFileStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)

	if err := fs.Set(KeySettings, `{}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, KeySettings+".json"))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("File mode = %o, want 0600", perm)
	}
}

func TestFileStore_KeyCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)

	if err := fs.Set("../escape", "x"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json")); err == nil {
		t.Error("Value escaped the store directory")
	}

	got, ok := fs.Get("../escape")
	if !ok || got != "x" {
		t.Errorf("Sanitized key not readable back: %q, %v", got, ok)
	}
}

// =============================================================================
// MEMORY STORE TESTS
// =============================================================================

func TestMemStore_Basics(t *testing.T) {
	ms := NewMemStore()

	if _, ok := ms.Get(KeyActiveThread); ok {
		t.Error("Empty store reported a value")
	}

	if err := ms.Set(KeyActiveThread, `"42"`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := ms.Get(KeyActiveThread)
	if !ok || got != `"42"` {
		t.Errorf("Get = %q, %v", got, ok)
	}

	if err := ms.Delete(KeyActiveThread); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ms.Len() != 0 {
		t.Errorf("Len = %d after delete, want 0", ms.Len())
	}
}

// =============================================================================
// JSON HELPER TESTS
// =============================================================================

func TestGetJSON_DecodesValue(t *testing.T) {
	ms := NewMemStore()
	ms.Set(KeySettings, `{"streamResponses":true}`)

	var out struct {
		StreamResponses bool `json:"streamResponses"`
	}
	if !GetJSON(ms, KeySettings, &out) {
		t.Fatal("GetJSON reported failure for valid value")
	}
	if !out.StreamResponses {
		t.Error("Decoded value lost field")
	}
}

func TestGetJSON_MalformedDegradesToDefault(t *testing.T) {
	ms := NewMemStore()
	ms.Set(KeyThreads, `{corrupt json!`)

	out := []string{"sentinel"}
	if GetJSON(ms, KeyThreads, &out) {
		t.Error("GetJSON reported success for malformed value")
	}
	if len(out) != 1 || out[0] != "sentinel" {
		t.Errorf("Malformed decode touched out: %v", out)
	}
}

func TestGetJSON_MissingKey(t *testing.T) {
	ms := NewMemStore()
	var out map[string]string
	if GetJSON(ms, "absent", &out) {
		t.Error("GetJSON reported success for missing key")
	}
}

func TestSetJSON_WritesEncodedValue(t *testing.T) {
	ms := NewMemStore()
	if err := SetJSON(ms, KeyBudgets, map[string]float64{"groceries": 450}); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}

	raw, ok := ms.Get(KeyBudgets)
	if !ok {
		t.Fatal("Value missing after SetJSON")
	}
	if raw != `{"groceries":450}` {
		t.Errorf("Stored = %q", raw)
	}
}
