// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ledger

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for the transaction ledger
const Schema = `
-- Metadata table for schema version and ledger state
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Transactions table: one row per imported statement line
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL DEFAULT '',     -- YYYY-MM-DD, empty when unknown
    description TEXT NOT NULL DEFAULT '',
    amount_cents INTEGER NOT NULL,     -- exact minor units, negative = outflow
    currency TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    account TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',   -- import source (file name)
    batch_id TEXT NOT NULL DEFAULT '', -- import batch UUID
    hash TEXT NOT NULL UNIQUE,         -- BLAKE2b content hash for dedupe
    imported_at INTEGER NOT NULL       -- Unix timestamp
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category);
CREATE INDEX IF NOT EXISTS idx_transactions_batch ON transactions(batch_id);

-- Profile table: user-supplied figures the statements cannot provide
CREATE TABLE IF NOT EXISTS profile (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;
`

// InitMetadata initializes the metadata table with default values
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`

// Profile keys.
const (
	ProfileLiquidSavings       = "liquid_savings"
	ProfileMonthlyDebtPayments = "monthly_debt_payments"
	ProfileBudgets             = "budgets"
)
