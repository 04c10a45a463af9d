// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "sync"

// ============================================================================
// MEMORY STORE
// ============================================================================

// MemStore is an in-memory Store for tests and for running with persistence
// disabled.
type MemStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

// Get returns the value for key and whether it exists.
func (ms *MemStore) Get(key string) (string, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	v, ok := ms.data[key]
	return v, ok
}

// Set writes the value for key.
func (ms *MemStore) Set(key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.data[key] = value
	return nil
}

// Delete removes key.
func (ms *MemStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.data, key)
	return nil
}

// Len reports how many keys are stored. Test helper.
func (ms *MemStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.data)
}
