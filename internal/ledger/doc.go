// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ledger stores imported transactions in a local SQLite database
// and computes the analytics snapshot the advisor reasons over.
//
// Amounts are parsed with exact decimals and stored as integer cents, so
// sums never drift. Every transaction carries a BLAKE2b content hash with
// a unique constraint behind it; importing the same statement twice is a
// no-op. A small profile table holds the handful of user-supplied figures
// (liquid savings, monthly debt payments, budget targets) that transaction
// history alone cannot provide.
//
// Snapshot pulls the aggregate queries together into one Analytics value:
// totals, monthly series, category and merchant breakdowns, savings rate,
// debt-to-income, emergency-fund coverage, a weighted health score,
// threshold insights, spending anomalies, and recurring payment detection.
// That JSON is what travels with every advisor question.
package ledger
