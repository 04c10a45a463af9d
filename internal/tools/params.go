// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// PARAMETERS
// =============================================================================

// Params carries calculator inputs as loosely typed JSON values. The planner
// model produces them, so every read tolerates missing keys and mixed numeric
// encodings.
type Params map[string]any

// Float returns the named value as a float64 and whether it was present and
// numeric. Accepts JSON numbers, integers, and numeric strings; nulls count
// as absent.
func (p Params) Float(key string) (float64, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// FloatOr returns the named value or def when absent.
func (p Params) FloatOr(key string, def float64) float64 {
	if f, ok := p.Float(key); ok {
		return f
	}
	return def
}

// IntOr returns the named value truncated to int, or def when absent.
func (p Params) IntOr(key string, def int) int {
	if f, ok := p.Float(key); ok {
		return int(f)
	}
	return def
}

// Has reports whether the key is present with a usable numeric value.
func (p Params) Has(key string) bool {
	_, ok := p.Float(key)
	return ok
}

// =============================================================================
// SHARED MATH
// =============================================================================

// monthlyPI computes the monthly principal-and-interest payment for a fixed
// rate amortizing loan. Zero and negative rates degrade to straight-line
// principal repayment.
func monthlyPI(principal, annualRate float64, termYears int) float64 {
	n := termYears * 12
	if n < 1 {
		n = 1
	}
	r := math.Max(annualRate, 0) / 12.0
	if r <= 0 {
		return principal / float64(n)
	}
	a := math.Pow(1+r, float64(n))
	return principal * (r * a) / (a - 1)
}

// round2 rounds to cents.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// round0 rounds to whole dollars.
func round0(x float64) float64 {
	return math.Round(x)
}
