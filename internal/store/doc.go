// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the key-value persistence adapter behind
// conversation state.
//
// The session layer is written against the Store interface, never a concrete
// backend: FileStore keeps one JSON file per key under the data directory
// with atomic writes, and MemStore backs tests. Values are raw JSON strings;
// encoding and the defensive decode (any parse failure degrades to the empty
// default, never an error) belong to the callers, with GetJSON/SetJSON as
// the shared helpers.
//
// Persisted keys: threads, active_thread, messages_map, settings,
// draft_<threadId>, liquid_savings, monthly_debt_payments, budgets.
package store
