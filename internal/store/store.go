// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "encoding/json"

// ============================================================================
// KEYS
// ============================================================================

// Persisted state keys. DraftKey derives the per-thread draft key.
const (
	KeyThreads      = "threads"
	KeyActiveThread = "active_thread"
	KeyMessagesMap  = "messages_map"
	KeySettings     = "settings"

	// Analytics inputs the user maintains outside the transaction ledger.
	KeyLiquidSavings = "liquid_savings"
	KeyMonthlyDebts  = "monthly_debt_payments"
	KeyBudgets       = "budgets"

	draftKeyPrefix = "draft_"
)

// DraftKey returns the storage key for a thread's draft text.
func DraftKey(threadID string) string {
	return draftKeyPrefix + threadID
}

// ============================================================================
// STORE INTERFACE
// ============================================================================

// Store is the swappable persistence adapter. Implementations hold raw JSON
// strings; Get reports absence through its second return rather than an
// error, and Set is best-effort (callers treat failures as fire-and-forget).
type Store interface {
	// Get returns the raw value for key and whether it exists.
	Get(key string) (string, bool)

	// Set writes the raw value for key.
	Set(key, value string) error

	// Delete removes key. Removing a missing key is not an error.
	Delete(key string) error
}

// ============================================================================
// JSON HELPERS
// ============================================================================

// GetJSON decodes the value under key into out. Missing keys and malformed
// JSON both report false and leave out untouched: state that cannot be read
// degrades to the caller's empty default instead of failing.
func GetJSON(s Store, key string, out any) bool {
	raw, ok := s.Get(key)
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false
	}
	return true
}

// SetJSON encodes v and writes it under key.
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, string(data))
}
