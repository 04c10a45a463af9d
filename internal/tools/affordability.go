// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import "errors"

// =============================================================================
// AFFORDABILITY
// =============================================================================

// DTI caps: the front ratio limits housing cost against gross income, the
// back ratio limits housing plus existing debt payments.
const (
	DefaultDTIFront = 0.28
	DefaultDTIBack  = 0.36

	affordabilitySearchLo  = 0.0
	affordabilitySearchHi  = 1_000_000.0
	affordabilitySearchCap = 10_000_000.0
	affordabilityGrowIters = 24
	affordabilityBisects   = 64
)

// AffordabilityResult is the maximum-price answer with the PITI breakdown at
// that price and the assumptions the search ran under. BindingConstraint is
// "front" or "back" depending on which DTI cap limited the payment.
type AffordabilityResult struct {
	MaxPrice          float64            `json:"max_price"`
	BindingConstraint string             `json:"binding_constraint"`
	PITIAtMax         float64            `json:"piti_at_max"`
	Breakdown         map[string]float64 `json:"breakdown"`
	Assumptions       map[string]any     `json:"assumptions"`
}

// Affordability finds the largest house price whose PITI fits under the
// binding DTI cap, by exponential growth then bisection on price.
//
// Accepted params: monthly_income (required), monthly_debt_payments
// (required), annual_rate (required), term_years, down_payment,
// down_payment_percent, property_tax_rate_annual, insurance_rate_annual,
// monthly_hoa, pmi_rate_annual, ltv_pmi_threshold, dti_front, dti_back.
func Affordability(p Params) (AffordabilityResult, error) {
	income, ok := p.Float("monthly_income")
	if !ok {
		return AffordabilityResult{}, errors.New("monthly_income is required")
	}
	debts, ok := p.Float("monthly_debt_payments")
	if !ok {
		return AffordabilityResult{}, errors.New("monthly_debt_payments is required")
	}
	rate, ok := p.Float("annual_rate")
	if !ok {
		return AffordabilityResult{}, errors.New("annual_rate is required")
	}
	term := p.IntOr("term_years", DefaultTermYears)

	dtiFront := p.FloatOr("dti_front", DefaultDTIFront)
	dtiBack := p.FloatOr("dti_back", DefaultDTIBack)

	// 20% down is assumed only when the caller gave no down payment in
	// either form.
	dpAbs, hasDpAbs := p.Float("down_payment")
	dpPct, hasDpPct := p.Float("down_payment_percent")
	if !hasDpAbs && !hasDpPct {
		dpPct = DefaultDownPaymentPct
		hasDpPct = true
	}

	taxRate := p.FloatOr("property_tax_rate_annual", DefaultPropertyTaxRate)
	insRate := p.FloatOr("insurance_rate_annual", DefaultInsuranceRate)
	hoa := p.FloatOr("monthly_hoa", 0)
	pmiRate := p.FloatOr("pmi_rate_annual", DefaultPMIRate)
	ltvThreshold := p.FloatOr("ltv_pmi_threshold", DefaultLTVPMIThreshold)

	assumptions := map[string]any{
		"annual_rate":              rate,
		"term_years":               term,
		"dti_front":                dtiFront,
		"dti_back":                 dtiBack,
		"property_tax_rate_annual": taxRate,
		"insurance_rate_annual":    insRate,
		"monthly_hoa":              hoa,
		"pmi_rate_annual":          pmiRate,
		"ltv_pmi_threshold":        ltvThreshold,
	}

	frontCap := dtiFront * income
	backCap := dtiBack*income - debts
	pitiCap := frontCap
	if backCap < pitiCap {
		pitiCap = backCap
	}
	binding := "back"
	if frontCap <= backCap {
		binding = "front"
	}

	if pitiCap <= 0 {
		return AffordabilityResult{
			MaxPrice:          0,
			BindingConstraint: binding,
			PITIAtMax:         0,
			Breakdown:         map[string]float64{"pi": 0, "taxes": 0, "insurance": 0, "hoa": hoa, "pmi": 0},
			Assumptions:       assumptions,
		}, nil
	}

	pitiForPrice := func(price float64) (float64, map[string]float64) {
		dp := 0.0
		switch {
		case hasDpAbs:
			dp = dpAbs
		case hasDpPct:
			dp = price * dpPct
		}
		if dp > price {
			dp = price
		}
		principal := price - dp
		pi := monthlyPI(principal, rate, term)
		taxes := taxRate * price / 12.0
		ins := insRate * price / 12.0
		ltv := 0.0
		if price > 0 {
			ltv = principal / price
		}
		pmi := 0.0
		if ltv > ltvThreshold {
			pmi = pmiRate * principal / 12.0
		}
		total := pi + taxes + ins + hoa + pmi
		return total, map[string]float64{"pi": pi, "taxes": taxes, "insurance": ins, "hoa": hoa, "pmi": pmi}
	}

	lo, hi := affordabilitySearchLo, affordabilitySearchHi
	for i := 0; i < affordabilityGrowIters; i++ {
		val, _ := pitiForPrice(hi)
		if val >= pitiCap {
			break
		}
		hi *= 1.5
		if hi > affordabilitySearchCap {
			break
		}
	}

	for i := 0; i < affordabilityBisects; i++ {
		mid := (lo + hi) / 2.0
		val, _ := pitiForPrice(mid)
		if val > pitiCap {
			hi = mid
		} else {
			lo = mid
		}
	}

	maxPrice := lo
	pitiVal, breakdown := pitiForPrice(maxPrice)
	for k, v := range breakdown {
		breakdown[k] = round2(v)
	}

	if hasDpAbs {
		assumptions["down_payment"] = dpAbs
	} else {
		assumptions["down_payment"] = nil
	}
	if hasDpPct {
		assumptions["down_payment_percent"] = dpPct
	} else {
		assumptions["down_payment_percent"] = nil
	}

	return AffordabilityResult{
		MaxPrice:          round0(maxPrice),
		BindingConstraint: binding,
		PITIAtMax:         round2(pitiVal),
		Breakdown:         breakdown,
		Assumptions:       assumptions,
	}, nil
}
