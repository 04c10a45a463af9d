// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ============================================================================
// MONEY AND NUMBER FORMATTING
// ============================================================================

// moneyPrinter groups digits the en-US way ($1,234.56). Printers are safe for
// concurrent use.
var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders a dollar amount with thousands grouping and two decimal
// places. Negative amounts render as -$1,234.56.
func FormatMoney(amount float64) string {
	if amount < 0 {
		return moneyPrinter.Sprintf("-$%.2f", -amount)
	}
	return moneyPrinter.Sprintf("$%.2f", amount)
}

// FormatMoneyWhole renders a dollar amount with no cents ($425,000).
func FormatMoneyWhole(amount float64) string {
	if amount < 0 {
		return moneyPrinter.Sprintf("-$%.0f", -amount)
	}
	return moneyPrinter.Sprintf("$%.0f", amount)
}

// FormatPercent renders a ratio as a percentage with one decimal (0.347 ->
// "34.7%").
func FormatPercent(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}

// FormatCount renders an integer with thousands grouping.
func FormatCount(n int) string {
	return moneyPrinter.Sprintf("%d", n)
}
