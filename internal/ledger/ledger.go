// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ledger

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDatabaseError = errors.New("ledger database error")
	ErrInvalidPath   = errors.New("invalid ledger path")
)

// =============================================================================
// TRANSACTION
// =============================================================================

// Transaction is one ledger entry. Amount is signed: positive inflow,
// negative outflow. A zero Date means the statement carried no usable date.
type Transaction struct {
	ID          int64
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Account     string
	Source      string
	BatchID     string
}

// AmountCents returns the amount in exact minor units.
func (t *Transaction) AmountCents() int64 {
	return t.Amount.Shift(2).Round(0).IntPart()
}

// DateString returns the storage form of the date, empty when unknown.
func (t *Transaction) DateString() string {
	if t.Date.IsZero() {
		return ""
	}
	return t.Date.Format("2006-01-02")
}

// Month returns the YYYY-MM bucket, empty when the date is unknown.
func (t *Transaction) Month() string {
	if t.Date.IsZero() {
		return ""
	}
	return t.Date.Format("2006-01")
}

// Hash returns the BLAKE2b content hash used for deduplication. Two rows
// with the same date, normalized description, and amount are one
// transaction no matter which import brought them in.
func (t *Transaction) Hash() string {
	key := t.DateString() + "|" + strings.ToLower(strings.TrimSpace(t.Description)) + "|" + t.Amount.StringFixed(2)
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is a SQLite-backed transaction store.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Ledger{db: db, path: path}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// =============================================================================
// WRITES
// =============================================================================

// Insert writes transactions in one batch, skipping rows whose content
// hash already exists. It returns how many rows were inserted and how many
// were duplicates.
func (l *Ledger) Insert(txs []Transaction) (inserted, duplicates int, err error) {
	if len(txs) == 0 {
		return 0, 0, nil
	}

	tx, err := l.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO transactions
			(date, description, amount_cents, currency, category, account, source, batch_id, hash, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for i := range txs {
		t := &txs[i]
		res, err := stmt.Exec(
			t.DateString(), t.Description, t.AmountCents(), t.Currency,
			t.Category, t.Account, t.Source, t.BatchID, t.Hash(), now,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		if n > 0 {
			inserted++
		} else {
			duplicates++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return inserted, duplicates, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Totals holds the whole-ledger sums in exact cents.
type Totals struct {
	Transactions int
	InflowCents  int64
	OutflowCents int64
}

// Totals returns the transaction count and signed inflow/outflow sums.
func (l *Ledger) Totals() (Totals, error) {
	var t Totals
	err := l.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN amount_cents < 0 THEN amount_cents ELSE 0 END), 0)
		FROM transactions
	`).Scan(&t.Transactions, &t.InflowCents, &t.OutflowCents)
	if err != nil {
		return Totals{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return t, nil
}

// MonthlyStat is one month of activity. Expenses stay negative, matching
// the sign convention of the raw amounts.
type MonthlyStat struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
	TxCount  int     `json:"tx_count"`
}

// MonthlySeries returns per-month aggregates in chronological order.
// Rows without dates are excluded from the series (they still count in
// Totals).
func (l *Ledger) MonthlySeries() ([]MonthlyStat, error) {
	rows, err := l.db.Query(`
		SELECT substr(date, 1, 7) AS month,
		       COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN amount_cents < 0 THEN amount_cents ELSE 0 END), 0),
		       COALESCE(SUM(amount_cents), 0),
		       COUNT(*)
		FROM transactions
		WHERE date != ''
		GROUP BY month
		ORDER BY month
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var series []MonthlyStat
	for rows.Next() {
		var m MonthlyStat
		var income, expenses, net int64
		if err := rows.Scan(&m.Month, &income, &expenses, &net, &m.TxCount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		m.Income = centsToDollars(income)
		m.Expenses = centsToDollars(expenses)
		m.Net = centsToDollars(net)
		series = append(series, m)
	}
	return series, rows.Err()
}

// CategoryStat is the signed total for one category.
type CategoryStat struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// CategoryTotals returns signed totals per category, biggest spend first.
func (l *Ledger) CategoryTotals() ([]CategoryStat, error) {
	rows, err := l.db.Query(`
		SELECT category, COALESCE(SUM(amount_cents), 0) AS total
		FROM transactions
		GROUP BY category
		ORDER BY total
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var stats []CategoryStat
	for rows.Next() {
		var s CategoryStat
		var total int64
		if err := rows.Scan(&s.Category, &total); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		s.Amount = centsToDollars(total)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// MerchantStat aggregates activity for one description.
type MerchantStat struct {
	Description string  `json:"description"`
	TotalSpend  float64 `json:"total_spend"`
	TotalInflow float64 `json:"total_inflow"`
	TxCount     int     `json:"tx_count"`
}

// MerchantTotals returns per-description aggregates, heaviest spend first.
func (l *Ledger) MerchantTotals(limit int) ([]MerchantStat, error) {
	rows, err := l.db.Query(`
		SELECT description,
		       COALESCE(SUM(CASE WHEN amount_cents < 0 THEN amount_cents ELSE 0 END), 0) AS total_spend,
		       COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents ELSE 0 END), 0),
		       COUNT(*) AS tx_count
		FROM transactions
		GROUP BY description
		ORDER BY total_spend ASC, tx_count DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var stats []MerchantStat
	for rows.Next() {
		var s MerchantStat
		var spend, inflow int64
		if err := rows.Scan(&s.Description, &spend, &inflow, &s.TxCount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		s.TotalSpend = centsToDollars(spend)
		s.TotalInflow = centsToDollars(inflow)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Transactions returns all ledger rows ordered by date then insertion.
func (l *Ledger) Transactions() ([]Transaction, error) {
	rows, err := l.db.Query(`
		SELECT id, date, description, amount_cents, currency, category, account, source, batch_id
		FROM transactions
		ORDER BY date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		var date string
		var cents int64
		if err := rows.Scan(&t.ID, &date, &t.Description, &cents, &t.Currency, &t.Category, &t.Account, &t.Source, &t.BatchID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		if date != "" {
			if parsed, err := time.Parse("2006-01-02", date); err == nil {
				t.Date = parsed
			}
		}
		t.Amount = decimal.New(cents, -2)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// categoryMonthlyAverages returns the average monthly spend per category
// in dollars, over the months where the category actually had expenses.
func (l *Ledger) categoryMonthlyAverages() (map[string]float64, error) {
	rows, err := l.db.Query(`
		SELECT category, AVG(spend)
		FROM (
			SELECT substr(date, 1, 7) AS month, category, SUM(-amount_cents) AS spend
			FROM transactions
			WHERE amount_cents < 0 AND date != ''
			GROUP BY month, category
		)
		GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	averages := make(map[string]float64)
	for rows.Next() {
		var category string
		var avgCents float64
		if err := rows.Scan(&category, &avgCents); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		averages[category] = avgCents / 100.0
	}
	return averages, rows.Err()
}

// =============================================================================
// PROFILE
// =============================================================================

// Profile holds the user-supplied figures analytics needs but statements
// cannot provide. Nil pointers mean the user never set the value.
type Profile struct {
	LiquidSavings       *float64
	MonthlyDebtPayments *float64
	Budgets             map[string]float64
}

// Profile loads the stored profile values.
func (l *Ledger) Profile() (Profile, error) {
	rows, err := l.db.Query(`SELECT key, value FROM profile`)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var p Profile
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Profile{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		switch key {
		case ProfileLiquidSavings:
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				p.LiquidSavings = &v
			}
		case ProfileMonthlyDebtPayments:
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				p.MonthlyDebtPayments = &v
			}
		case ProfileBudgets:
			var budgets map[string]float64
			if err := json.Unmarshal([]byte(value), &budgets); err == nil && len(budgets) > 0 {
				p.Budgets = budgets
			}
		}
	}
	return p, rows.Err()
}

func (l *Ledger) setProfileValue(key, value string) error {
	_, err := l.db.Exec(`
		INSERT INTO profile (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// SetLiquidSavings stores the liquid savings balance.
func (l *Ledger) SetLiquidSavings(v float64) error {
	return l.setProfileValue(ProfileLiquidSavings, strconv.FormatFloat(v, 'f', -1, 64))
}

// SetMonthlyDebtPayments stores the total monthly debt obligation.
func (l *Ledger) SetMonthlyDebtPayments(v float64) error {
	return l.setProfileValue(ProfileMonthlyDebtPayments, strconv.FormatFloat(v, 'f', -1, 64))
}

// SetBudget stores a monthly spend target for one category. A target of
// zero or less removes it.
func (l *Ledger) SetBudget(category string, target float64) error {
	p, err := l.Profile()
	if err != nil {
		return err
	}
	budgets := p.Budgets
	if budgets == nil {
		budgets = make(map[string]float64)
	}
	if target > 0 {
		budgets[category] = target
	} else {
		delete(budgets, category)
	}
	data, err := json.Marshal(budgets)
	if err != nil {
		return err
	}
	return l.setProfileValue(ProfileBudgets, string(data))
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats summarizes the ledger for status displays.
type Stats struct {
	Transactions int
	Batches      int
	EarliestDate string
	LatestDate   string
	DatabaseSize int64
}

// Stats returns current ledger statistics.
func (l *Ledger) Stats() (Stats, error) {
	var s Stats
	err := l.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(DISTINCT batch_id),
		       COALESCE(MIN(NULLIF(date, '')), ''),
		       COALESCE(MAX(date), '')
		FROM transactions
	`).Scan(&s.Transactions, &s.Batches, &s.EarliestDate, &s.LatestDate)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	if info, err := os.Stat(l.path); err == nil {
		s.DatabaseSize = info.Size()
	}
	return s, nil
}

func centsToDollars(cents int64) float64 {
	return float64(cents) / 100.0
}
