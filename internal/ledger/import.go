// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CSV IMPORT
// =============================================================================

// ErrNoAmountColumn is returned when a statement has neither an amount
// column nor a debit/credit pair.
var ErrNoAmountColumn = errors.New("no amount column found")

// ImportResult summarizes one CSV import.
type ImportResult struct {
	BatchID    string
	Imported   int
	Duplicates int
	Skipped    int
}

// ImportCSV parses a bank-statement CSV and inserts its rows as one batch.
// Rows whose amount cannot be parsed are skipped; rows already present
// (by content hash) count as duplicates.
func (l *Ledger) ImportCSV(r io.Reader, source string) (ImportResult, error) {
	txs, skipped, err := ParseCSV(r, source)
	if err != nil {
		return ImportResult{}, err
	}

	batchID := uuid.NewString()
	for i := range txs {
		txs[i].BatchID = batchID
	}

	inserted, duplicates, err := l.Insert(txs)
	if err != nil {
		return ImportResult{}, err
	}
	return ImportResult{
		BatchID:    batchID,
		Imported:   inserted,
		Duplicates: duplicates,
		Skipped:    skipped,
	}, nil
}

// Column name candidates, checked case-insensitively in order. Statements
// from different banks disagree on almost everything.
var (
	dateColumns     = []string{"date", "transaction date", "posting date", "posted", "post date"}
	descColumns     = []string{"description", "details", "memo", "transaction details", "payee", "merchant"}
	amountColumns   = []string{"amount", "transaction amount", "value"}
	debitColumns    = []string{"debit", "withdrawal", "money out", "outflow"}
	creditColumns   = []string{"credit", "deposit", "money in", "inflow"}
	currencyColumns = []string{"currency", "cur", "iso currency code"}
	accountColumns  = []string{"account", "account name", "account number", "card number"}
	categoryColumns = []string{"category", "type"}
)

// ParseCSV reads a headered statement CSV into transactions. It returns
// the parsed rows and how many rows were skipped for unparseable amounts.
// Transactions with an empty category get one assigned from the
// description.
func ParseCSV(r io.Reader, source string) ([]Transaction, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	pick := func(candidates []string) int {
		for _, cand := range candidates {
			if idx, ok := cols[cand]; ok {
				return idx
			}
		}
		return -1
	}

	dateIdx := pick(dateColumns)
	descIdx := pick(descColumns)
	amountIdx := pick(amountColumns)
	debitIdx := pick(debitColumns)
	creditIdx := pick(creditColumns)
	currencyIdx := pick(currencyColumns)
	accountIdx := pick(accountColumns)
	categoryIdx := pick(categoryColumns)

	if amountIdx == -1 && debitIdx == -1 && creditIdx == -1 {
		return nil, 0, ErrNoAmountColumn
	}

	field := func(record []string, idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var txs []Transaction
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV row: %w", err)
		}

		var amount decimal.Decimal
		var ok bool
		if amountIdx != -1 {
			amount, ok = ParseAmount(field(record, amountIdx))
		} else {
			// Debit/credit pairs: credit minus debit, missing sides zero.
			debit, hasDebit := ParseAmount(field(record, debitIdx))
			credit, hasCredit := ParseAmount(field(record, creditIdx))
			if hasDebit || hasCredit {
				amount = credit.Sub(debit.Abs())
				ok = true
			}
		}
		if !ok {
			skipped++
			continue
		}

		t := Transaction{
			Description: field(record, descIdx),
			Amount:      amount,
			Currency:    field(record, currencyIdx),
			Category:    field(record, categoryIdx),
			Account:     field(record, accountIdx),
			Source:      source,
		}
		if dateIdx != -1 {
			if parsed, ok := ParseDate(field(record, dateIdx)); ok {
				t.Date = parsed
			}
		}
		if t.Category == "" {
			t.Category = AutoCategorize(t.Description, t.AmountCents())
		}
		txs = append(txs, t)
	}
	return txs, skipped, nil
}

// =============================================================================
// AMOUNT PARSING
// =============================================================================

// Matches statement amounts: optional leading minus or open paren,
// optional currency symbol, digit groups with either separator style, and
// an optional trailing CR/DR marker.
var amountRe = regexp.MustCompile(`(?i)([-(])?\s*([$€£₹])?\s*((?:\d{1,3}(?:[.,]\d{3})+|\d+)(?:[.,]\d{2})?)\s*(CR|DR)?\)?\s*$`)

// ParseAmount parses a statement amount into an exact decimal. It handles
// currency symbols, parenthesized negatives, CR/DR suffixes, and both US
// (1,234.56) and EU (1.234,56) separator styles.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	m := amountRe.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, false
	}

	sign := m[1]
	num := m[3]
	crdr := strings.ToUpper(m[4])

	switch {
	case strings.Contains(num, ",") && strings.Contains(num, "."):
		// US style: commas group thousands.
		num = strings.ReplaceAll(num, ",", "")
	case strings.Contains(num, ","):
		// EU style: comma is the decimal separator.
		num = strings.ReplaceAll(num, ".", "")
		num = strings.ReplaceAll(num, ",", ".")
	}

	value, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, false
	}

	negative := sign == "-" || sign == "("
	if crdr == "DR" {
		negative = true
	} else if crdr == "CR" {
		negative = false
	}
	if negative {
		value = value.Neg()
	}
	return value, true
}

// =============================================================================
// DATE PARSING
// =============================================================================

// US-first, then day-first, then ISO variants. Order decides ambiguous
// dates like 03/04/2024.
var dateLayouts = []string{
	"01/02/2006",
	"02/01/2006",
	"2006-01-02",
	"01-02-2006",
	"02-01-2006",
	"01/02/06",
	"02/01/06",
	"2006/01/02",
}

// ParseDate parses a statement date, trying common bank formats in order.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
