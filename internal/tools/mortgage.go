// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import "errors"

// =============================================================================
// MORTGAGE PAYMENT
// =============================================================================

// Default rates used when the caller supplies a house price but no explicit
// carrying costs. Annual fractions of the house price (taxes, insurance) or
// of the principal (PMI).
const (
	DefaultTermYears       = 30
	DefaultDownPaymentPct  = 0.20
	DefaultPropertyTaxRate = 0.0125
	DefaultInsuranceRate   = 0.003
	DefaultPMIRate         = 0.006
	DefaultLTVPMIThreshold = 0.80
)

// MortgagePaymentResult is the full monthly cost breakdown for a loan.
// HousePrice and DownPayment stay nil when the caller supplied only a
// principal. Monthly figures are rounded to cents.
type MortgagePaymentResult struct {
	HousePrice       *float64 `json:"house_price"`
	DownPayment      *float64 `json:"down_payment"`
	Principal        float64  `json:"principal"`
	AnnualRate       float64  `json:"annual_rate"`
	TermMonths       int      `json:"term_months"`
	MonthlyPI        float64  `json:"monthly_pi"`
	MonthlyTaxes     float64  `json:"monthly_taxes"`
	MonthlyInsurance float64  `json:"monthly_insurance"`
	MonthlyHOA       float64  `json:"monthly_hoa"`
	MonthlyPMI       float64  `json:"monthly_pmi"`
	MonthlyPITI      float64  `json:"monthly_piti"`
}

// ErrMortgageInputs is returned when neither a principal nor a house price
// with down payment information is available.
var ErrMortgageInputs = errors.New("provide either principal or house_price with a down payment")

// MortgagePayment computes the monthly PITI for a fixed-rate loan.
//
// Accepted params: principal, house_price, down_payment, down_payment_percent,
// annual_rate (required), term_years, monthly_taxes, property_tax_rate_annual,
// monthly_insurance, insurance_rate_annual, monthly_hoa, monthly_pmi,
// pmi_rate_annual, ltv_pmi_threshold.
func MortgagePayment(p Params) (MortgagePaymentResult, error) {
	annualRate, ok := p.Float("annual_rate")
	if !ok {
		return MortgagePaymentResult{}, errors.New("annual_rate is required")
	}
	termYears := p.IntOr("term_years", DefaultTermYears)

	housePrice, hasHouse := p.Float("house_price")
	principal, hasPrincipal := p.Float("principal")

	// Normalize the down payment: absolute wins over percent when both are
	// present, and either form derives the other once a house price exists.
	dpAbs, hasDpAbs := p.Float("down_payment")
	dpPct, hasDpPct := p.Float("down_payment_percent")
	if hasHouse {
		switch {
		case hasDpAbs:
			if housePrice > 0 {
				dpPct = dpAbs / housePrice
				hasDpPct = true
			} else {
				hasDpPct = false
			}
		case hasDpPct:
			dpAbs = housePrice * dpPct
			hasDpAbs = true
		}
	}

	if !hasPrincipal {
		if !hasHouse {
			return MortgagePaymentResult{}, ErrMortgageInputs
		}
		if !hasDpAbs && !hasDpPct {
			dpPct = DefaultDownPaymentPct
			dpAbs = housePrice * dpPct
			hasDpAbs = true
		}
		principal = housePrice - dpAbs
		if principal < 0 {
			principal = 0
		}
	}

	// Taxes and insurance derive from the house price when not given
	// directly; without a house price they stay zero.
	monthlyTaxes, hasTaxes := p.Float("monthly_taxes")
	if !hasTaxes {
		if hasHouse {
			monthlyTaxes = p.FloatOr("property_tax_rate_annual", DefaultPropertyTaxRate) * housePrice / 12.0
		} else {
			monthlyTaxes = 0
		}
	}

	monthlyInsurance, hasIns := p.Float("monthly_insurance")
	if !hasIns {
		if hasHouse {
			monthlyInsurance = p.FloatOr("insurance_rate_annual", DefaultInsuranceRate) * housePrice / 12.0
		} else {
			monthlyInsurance = 0
		}
	}

	monthlyHOA := p.FloatOr("monthly_hoa", 0)

	// PMI applies above the LTV threshold, and only when both house price and
	// principal are known.
	monthlyPMI, hasPMI := p.Float("monthly_pmi")
	if !hasPMI {
		monthlyPMI = 0
		if hasHouse && housePrice > 0 && principal > 0 {
			ltv := principal / housePrice
			if ltv > p.FloatOr("ltv_pmi_threshold", DefaultLTVPMIThreshold) {
				monthlyPMI = p.FloatOr("pmi_rate_annual", DefaultPMIRate) * principal / 12.0
			}
		}
	}

	pi := monthlyPI(principal, annualRate, termYears)
	piti := pi + monthlyTaxes + monthlyInsurance + monthlyHOA + monthlyPMI

	res := MortgagePaymentResult{
		Principal:        principal,
		AnnualRate:       annualRate,
		TermMonths:       termYears * 12,
		MonthlyPI:        round2(pi),
		MonthlyTaxes:     round2(monthlyTaxes),
		MonthlyInsurance: round2(monthlyInsurance),
		MonthlyHOA:       round2(monthlyHOA),
		MonthlyPMI:       round2(monthlyPMI),
		MonthlyPITI:      round2(piti),
	}
	if hasHouse {
		res.HousePrice = &housePrice
	}
	if hasDpAbs {
		res.DownPayment = &dpAbs
	}
	return res, nil
}
