// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ledger stores imported transactions in a local SQLite database.
//
// This file contains tests for the store itself:
// - Schema creation and reopen behavior
// - Content-hash deduplication on insert
// - Aggregate queries (totals, monthly series, categories, merchants)
// - Profile storage round-trips
package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// newTestLedger opens a fresh ledger in a temp directory.
func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "penny", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// txRow builds a transaction for seeding. Empty date means undated.
func txRow(date, desc string, amount float64, category string) Transaction {
	var d time.Time
	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		d = parsed
	}
	return Transaction{
		Date:        d,
		Description: desc,
		Amount:      decimal.NewFromFloat(amount),
		Currency:    "USD",
		Category:    category,
		Source:      "test.csv",
		BatchID:     "batch-1",
	}
}

// =============================================================================
// OPEN / CLOSE TESTS
// =============================================================================

// TestOpen_EmptyPath tests that an empty path is rejected.
func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	require.ErrorIs(t, err, ErrInvalidPath)

	_, err = Open("   ")
	require.ErrorIs(t, err, ErrInvalidPath)
}

// TestOpen_CreatesParentDirectories tests that Open creates missing
// directories and initializes an empty schema.
func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "ledger.db")
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	stats, err := l.Stats()
	require.NoError(t, err)
	require.Equal(t, 0, stats.Transactions)
	require.Equal(t, path, l.Path())
	require.Greater(t, stats.DatabaseSize, int64(0), "database file should exist on disk")
}

// TestLedger_ReopenKeepsData tests that rows survive a close and reopen.
func TestLedger_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	require.NoError(t, err)

	inserted, _, err := l.Insert([]Transaction{
		txRow("2024-01-05", "Paycheck", 5000, "Income"),
		txRow("2024-01-07", "Rent", -1800, "Housing"),
	})
	require.NoError(t, err)
	require.Equal(t, 2, inserted)
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	totals, err := reopened.Totals()
	require.NoError(t, err)
	require.Equal(t, 2, totals.Transactions)
	require.Equal(t, int64(500000), totals.InflowCents)
	require.Equal(t, int64(-180000), totals.OutflowCents)
}

// =============================================================================
// INSERT / DEDUPLICATION TESTS
// =============================================================================

// TestLedger_InsertCountsDuplicates tests that re-inserting the same
// transactions counts them as duplicates instead of doubling the ledger.
func TestLedger_InsertCountsDuplicates(t *testing.T) {
	l := newTestLedger(t)
	rows := []Transaction{
		txRow("2024-01-05", "Paycheck", 5000, "Income"),
		txRow("2024-01-07", "Whole Foods", -120.50, "Groceries"),
	}

	inserted, duplicates, err := l.Insert(rows)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)
	require.Equal(t, 0, duplicates)

	// Same content under a different batch is still the same transaction.
	for i := range rows {
		rows[i].BatchID = "batch-2"
	}
	inserted, duplicates, err = l.Insert(rows)
	require.NoError(t, err)
	require.Equal(t, 0, inserted)
	require.Equal(t, 2, duplicates)

	totals, err := l.Totals()
	require.NoError(t, err)
	require.Equal(t, 2, totals.Transactions)
}

// TestLedger_InsertDeduplicatesWithinBatch tests that identical rows in a
// single batch only land once.
func TestLedger_InsertDeduplicatesWithinBatch(t *testing.T) {
	l := newTestLedger(t)
	row := txRow("2024-01-07", "Whole Foods", -120.50, "Groceries")

	inserted, duplicates, err := l.Insert([]Transaction{row, row})
	require.NoError(t, err)
	require.Equal(t, 1, inserted)
	require.Equal(t, 1, duplicates)
}

// TestLedger_InsertEmptyBatch tests that an empty batch is a no-op.
func TestLedger_InsertEmptyBatch(t *testing.T) {
	l := newTestLedger(t)
	inserted, duplicates, err := l.Insert(nil)
	require.NoError(t, err)
	require.Equal(t, 0, inserted)
	require.Equal(t, 0, duplicates)
}

// TestTransaction_Hash tests that the content hash normalizes description
// whitespace and case but distinguishes amounts and dates.
func TestTransaction_Hash(t *testing.T) {
	a := txRow("2024-01-07", "  WHOLE FOODS  ", -120.50, "Groceries")
	b := txRow("2024-01-07", "whole foods", -120.50, "Shopping")
	require.Equal(t, a.Hash(), b.Hash(), "case, whitespace, and category should not change the hash")

	c := txRow("2024-01-07", "whole foods", -120.51, "Groceries")
	require.NotEqual(t, a.Hash(), c.Hash(), "amount should change the hash")

	d := txRow("2024-01-08", "whole foods", -120.50, "Groceries")
	require.NotEqual(t, a.Hash(), d.Hash(), "date should change the hash")
}

// =============================================================================
// AGGREGATE QUERY TESTS
// =============================================================================

// TestLedger_Totals tests signed inflow/outflow sums in exact cents.
func TestLedger_Totals(t *testing.T) {
	l := newTestLedger(t)
	_, _, err := l.Insert([]Transaction{
		txRow("2024-01-05", "Paycheck", 5000, "Income"),
		txRow("2024-01-07", "Rent", -1800, "Housing"),
		txRow("2024-01-09", "Coffee", -4.75, "Dining"),
	})
	require.NoError(t, err)

	totals, err := l.Totals()
	require.NoError(t, err)
	require.Equal(t, 3, totals.Transactions)
	require.Equal(t, int64(500000), totals.InflowCents)
	require.Equal(t, int64(-180475), totals.OutflowCents)
}

// TestLedger_MonthlySeries tests per-month aggregates in chronological
// order, with undated rows left out of the series.
func TestLedger_MonthlySeries(t *testing.T) {
	l := newTestLedger(t)
	_, _, err := l.Insert([]Transaction{
		txRow("2024-02-05", "Paycheck", 5000, "Income"),
		txRow("2024-02-07", "Rent", -1800, "Housing"),
		txRow("2024-01-05", "Paycheck", 5000, "Income"),
		txRow("2024-01-20", "Groceries run", -250.25, "Groceries"),
		txRow("", "Mystery charge", -10, "General"),
	})
	require.NoError(t, err)

	series, err := l.MonthlySeries()
	require.NoError(t, err)
	require.Len(t, series, 2, "undated rows should not create a month bucket")

	require.Equal(t, "2024-01", series[0].Month)
	require.InDelta(t, 5000.0, series[0].Income, 1e-9)
	require.InDelta(t, -250.25, series[0].Expenses, 1e-9)
	require.InDelta(t, 4749.75, series[0].Net, 1e-9)
	require.Equal(t, 2, series[0].TxCount)

	require.Equal(t, "2024-02", series[1].Month)
	require.InDelta(t, 5000.0, series[1].Income, 1e-9)
	require.InDelta(t, -1800.0, series[1].Expenses, 1e-9)

	// Undated rows still count in the whole-ledger totals.
	totals, err := l.Totals()
	require.NoError(t, err)
	require.Equal(t, 5, totals.Transactions)
}

// TestLedger_CategoryTotals tests that categories come back biggest spend
// first.
func TestLedger_CategoryTotals(t *testing.T) {
	l := newTestLedger(t)
	_, _, err := l.Insert([]Transaction{
		txRow("2024-01-05", "Paycheck", 5000, "Income"),
		txRow("2024-01-07", "Rent", -1800, "Housing"),
		txRow("2024-01-09", "Whole Foods", -300, "Groceries"),
		txRow("2024-01-12", "Trader Joes", -150, "Groceries"),
	})
	require.NoError(t, err)

	stats, err := l.CategoryTotals()
	require.NoError(t, err)
	require.Len(t, stats, 3)
	require.Equal(t, "Housing", stats[0].Category)
	require.InDelta(t, -1800.0, stats[0].Amount, 1e-9)
	require.Equal(t, "Groceries", stats[1].Category)
	require.InDelta(t, -450.0, stats[1].Amount, 1e-9)
	require.Equal(t, "Income", stats[2].Category)
	require.InDelta(t, 5000.0, stats[2].Amount, 1e-9)
}

// TestLedger_MerchantTotals tests per-description aggregation, ordering,
// and the result limit.
func TestLedger_MerchantTotals(t *testing.T) {
	l := newTestLedger(t)
	_, _, err := l.Insert([]Transaction{
		txRow("2024-01-07", "Rent", -1800, "Housing"),
		txRow("2024-01-09", "Whole Foods", -120, "Groceries"),
		txRow("2024-01-16", "Whole Foods", -80, "Groceries"),
		txRow("2024-01-05", "Paycheck", 5000, "Income"),
	})
	require.NoError(t, err)

	stats, err := l.MerchantTotals(10)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	require.Equal(t, "Rent", stats[0].Description)
	require.InDelta(t, -1800.0, stats[0].TotalSpend, 1e-9)
	require.Equal(t, "Whole Foods", stats[1].Description)
	require.InDelta(t, -200.0, stats[1].TotalSpend, 1e-9)
	require.Equal(t, 2, stats[1].TxCount)
	require.Equal(t, "Paycheck", stats[2].Description)
	require.InDelta(t, 5000.0, stats[2].TotalInflow, 1e-9)

	limited, err := l.MerchantTotals(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, "Rent", limited[0].Description)
}

// TestLedger_TransactionsRoundTrip tests that rows come back with exact
// amounts and parsed dates.
func TestLedger_TransactionsRoundTrip(t *testing.T) {
	l := newTestLedger(t)
	_, _, err := l.Insert([]Transaction{
		txRow("2024-01-09", "Whole Foods", -120.57, "Groceries"),
		txRow("", "Mystery charge", -10, "General"),
	})
	require.NoError(t, err)

	txs, err := l.Transactions()
	require.NoError(t, err)
	require.Len(t, txs, 2)

	// Dated row sorts after the undated one (empty date string first).
	require.True(t, txs[0].Date.IsZero())
	require.Equal(t, "Mystery charge", txs[0].Description)

	require.Equal(t, "2024-01-09", txs[1].DateString())
	require.Equal(t, "2024-01", txs[1].Month())
	require.True(t, txs[1].Amount.Equal(decimal.RequireFromString("-120.57")),
		"amount should round-trip exactly, got %s", txs[1].Amount)
	require.Equal(t, "Groceries", txs[1].Category)
	require.Equal(t, int64(-12057), txs[1].AmountCents())
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

// TestLedger_ProfileRoundTrip tests profile storage, updates, and budget
// removal.
func TestLedger_ProfileRoundTrip(t *testing.T) {
	l := newTestLedger(t)

	p, err := l.Profile()
	require.NoError(t, err)
	require.Nil(t, p.LiquidSavings)
	require.Nil(t, p.MonthlyDebtPayments)
	require.Nil(t, p.Budgets)

	require.NoError(t, l.SetLiquidSavings(12500.50))
	require.NoError(t, l.SetMonthlyDebtPayments(450))
	require.NoError(t, l.SetBudget("Dining", 300))
	require.NoError(t, l.SetBudget("Groceries", 520.75))

	p, err = l.Profile()
	require.NoError(t, err)
	require.NotNil(t, p.LiquidSavings)
	require.InDelta(t, 12500.50, *p.LiquidSavings, 1e-9)
	require.NotNil(t, p.MonthlyDebtPayments)
	require.InDelta(t, 450.0, *p.MonthlyDebtPayments, 1e-9)
	require.Len(t, p.Budgets, 2)
	require.InDelta(t, 300.0, p.Budgets["Dining"], 1e-9)
	require.InDelta(t, 520.75, p.Budgets["Groceries"], 1e-9)

	// Updates overwrite, and a zero target removes the budget.
	require.NoError(t, l.SetLiquidSavings(9000))
	require.NoError(t, l.SetBudget("Dining", 0))

	p, err = l.Profile()
	require.NoError(t, err)
	require.InDelta(t, 9000.0, *p.LiquidSavings, 1e-9)
	require.Len(t, p.Budgets, 1)
	require.NotContains(t, p.Budgets, "Dining")
}

// =============================================================================
// STATS TESTS
// =============================================================================

// TestLedger_Stats tests batch counting and the date range, with undated
// rows excluded from the earliest date.
func TestLedger_Stats(t *testing.T) {
	l := newTestLedger(t)

	first := []Transaction{
		txRow("2024-01-05", "Paycheck", 5000, "Income"),
		txRow("", "Mystery charge", -10, "General"),
	}
	second := []Transaction{
		txRow("2024-02-10", "Rent", -1800, "Housing"),
	}
	second[0].BatchID = "batch-2"

	_, _, err := l.Insert(first)
	require.NoError(t, err)
	_, _, err = l.Insert(second)
	require.NoError(t, err)

	stats, err := l.Stats()
	require.NoError(t, err)
	require.Equal(t, 3, stats.Transactions)
	require.Equal(t, 2, stats.Batches)
	require.Equal(t, "2024-01-05", stats.EarliestDate)
	require.Equal(t, "2024-02-10", stats.LatestDate)
	require.Greater(t, stats.DatabaseSize, int64(0))
}

// =============================================================================
// CATEGORIZATION TESTS
// =============================================================================

// TestAutoCategorize tests the description rules, including the ordering
// that keeps "gas bill" in Utilities instead of Transport.
func TestAutoCategorize(t *testing.T) {
	tests := []struct {
		desc  string
		cents int64
		want  string
	}{
		{"Paycheck deposit", 500000, "Income"},
		{"ACME landlord rent", -180000, "Housing"},
		{"Comcast internet", -8000, "Utilities"},
		{"Gas bill payment", -6000, "Utilities"},
		{"Shell gas station", -4500, "Transport"},
		{"Whole Foods Market", -12000, "Groceries"},
		{"Starbucks coffee", -475, "Dining"},
		{"Netflix subscription", -1549, "Subscriptions"},
		{"Geico insurance premium", -9500, "Insurance"},
		{"CVS pharmacy", -2200, "Healthcare"},
		{"Amazon order 112-889", -3500, "Shopping"},
		{"Student loan payment", -25000, "Debt"},
		{"Airbnb reservation", -3200, "Entertainment"},
		{"Wire ref 8871", -10000, "General"},
	}
	for _, tt := range tests {
		got := AutoCategorize(tt.desc, tt.cents)
		require.Equal(t, tt.want, got, "description %q", tt.desc)
	}
}

// TestIsEssential tests the essential category set.
func TestIsEssential(t *testing.T) {
	require.True(t, IsEssential("Housing"))
	require.True(t, IsEssential("Groceries"))
	require.True(t, IsEssential("Debt"))
	require.False(t, IsEssential("Dining"))
	require.False(t, IsEssential("Entertainment"))
	require.False(t, IsEssential("General"))
}
