// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ledger

import (
	"regexp"
	"strings"
)

// =============================================================================
// AUTO-CATEGORIZATION
// =============================================================================

// essentials marks the categories counted as non-discretionary spend.
var essentials = map[string]bool{
	"Housing":    true,
	"Utilities":  true,
	"Groceries":  true,
	"Insurance":  true,
	"Healthcare": true,
	"Transport":  true,
	"Debt":       true,
}

// IsEssential reports whether spend in the category is a fixed necessity
// rather than discretionary.
func IsEssential(category string) bool {
	return essentials[category]
}

type categoryRule struct {
	pattern  *regexp.Regexp
	category string
}

// Ordered: first match wins, so "gas bill" lands in Utilities before
// Transport's bare "gas" can claim it.
var categoryRules = []categoryRule{
	{regexp.MustCompile(`rent|landlord|mortgage|lease|property`), "Housing"},
	{regexp.MustCompile(`electric|water|utility|internet|wifi|comcast|verizon|att|sewer|gas bill`), "Utilities"},
	{regexp.MustCompile(`grocery|supermarket|whole foods|aldi|kroger|costco|walmart`), "Groceries"},
	{regexp.MustCompile(`uber|lyft|taxi|metro|subway|bus|train|mta|bart|shell|exxon|bp|chevron|gas`), "Transport"},
	{regexp.MustCompile(`geico|progressive|state farm|insurance|premium`), "Insurance"},
	{regexp.MustCompile(`hospital|doctor|clinic|pharmacy|cvs|walgreens|rite aid|drug`), "Healthcare"},
	{regexp.MustCompile(`netflix|spotify|hulu|disney|prime video|youtube|subscription`), "Subscriptions"},
	{regexp.MustCompile(`restaurant|cafe|coffee|starbucks|mcdonald|kfc|taco bell|dunkin`), "Dining"},
	{regexp.MustCompile(`amazon|etsy|mercado|ebay|aliexpress|shopping`), "Shopping"},
	{regexp.MustCompile(`loan|credit card payment|emi|mortgage payment|student loan|auto loan|debt`), "Debt"},
	{regexp.MustCompile(`gym|fitness|sports|hobby|game|travel|hotel|airbnb|airline`), "Entertainment"},
}

// AutoCategorize assigns a category from the description. Inflows are
// always Income; everything unmatched falls back to General.
func AutoCategorize(description string, amountCents int64) string {
	if amountCents > 0 {
		return "Income"
	}
	desc := strings.ToLower(description)
	for _, rule := range categoryRules {
		if rule.pattern.MatchString(desc) {
			return rule.category
		}
	}
	return "General"
}
