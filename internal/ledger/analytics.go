// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ANALYTICS TYPES
// =============================================================================

// Summary is the whole-ledger totals block.
type Summary struct {
	Transactions int     `json:"transactions"`
	TotalInflow  float64 `json:"total_inflow"`
	TotalOutflow float64 `json:"total_outflow"`
	Net          float64 `json:"net"`
}

// Anomaly is a transaction whose size stands far outside the usual range.
type Anomaly struct {
	Date        string  `json:"date,omitempty"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Account     string  `json:"account,omitempty"`
	Source      string  `json:"source,omitempty"`
}

// RecurringItem is a detected repeating payment or income stream.
type RecurringItem struct {
	Description        string  `json:"description"`
	TypicalAmount      float64 `json:"typical_amount"`
	Type               string  `json:"type"`
	Occurrences        int     `json:"occurrences"`
	FirstDate          string  `json:"first_date"`
	LastDate           string  `json:"last_date"`
	AvgIntervalDays    float64 `json:"avg_interval_days"`
	MedianIntervalDays float64 `json:"median_interval_days"`
	Frequency          string  `json:"frequency"`
	Confidence         string  `json:"confidence"`
	NextEstimatedDate  string  `json:"next_estimated_date"`
}

// BudgetVarianceStat compares average monthly spend against a target.
// Positive variance means over budget.
type BudgetVarianceStat struct {
	Category string  `json:"category"`
	Actual   float64 `json:"actual"`
	Target   float64 `json:"target"`
	Variance float64 `json:"variance"`
}

// Analytics is the full snapshot sent with every advisor question.
// Pointer fields are nil when the ledger cannot support the figure, for
// example DTI without any income months.
type Analytics struct {
	Summary             Summary              `json:"summary"`
	Monthly             []MonthlyStat        `json:"monthly"`
	ByCategory          []CategoryStat       `json:"by_category"`
	ByMerchant          []MerchantStat       `json:"by_merchant"`
	SavingsRate         float64              `json:"savings_rate"`
	DTI                 *float64             `json:"dti"`
	EmergencyFundMonths *float64             `json:"emergency_fund_months"`
	DiscretionaryShare  *float64             `json:"discretionary_share"`
	HealthScore         *float64             `json:"health_score"`
	Insights            []string             `json:"insights"`
	Anomalies           []Anomaly            `json:"anomalies"`
	Recurring           []RecurringItem      `json:"recurring"`
	BudgetVariance      []BudgetVarianceStat `json:"budget_variance,omitempty"`
}

// =============================================================================
// SNAPSHOT
// =============================================================================

const merchantLimit = 50

// Snapshot aggregates the ledger into one Analytics value.
func (l *Ledger) Snapshot() (*Analytics, error) {
	txs, err := l.Transactions()
	if err != nil {
		return nil, err
	}
	profile, err := l.Profile()
	if err != nil {
		return nil, err
	}
	monthly, err := l.MonthlySeries()
	if err != nil {
		return nil, err
	}
	cats, err := l.CategoryTotals()
	if err != nil {
		return nil, err
	}
	merchants, err := l.MerchantTotals(merchantLimit)
	if err != nil {
		return nil, err
	}
	avgSpend, err := l.categoryMonthlyAverages()
	if err != nil {
		return nil, err
	}
	return computeAnalytics(txs, profile, monthly, cats, merchants, avgSpend), nil
}

func computeAnalytics(txs []Transaction, profile Profile, monthly []MonthlyStat, cats []CategoryStat, merchants []MerchantStat, avgCatSpend map[string]float64) *Analytics {
	if monthly == nil {
		monthly = []MonthlyStat{}
	}
	if cats == nil {
		cats = []CategoryStat{}
	}
	if merchants == nil {
		merchants = []MerchantStat{}
	}
	a := &Analytics{
		Monthly:    monthly,
		ByCategory: cats,
		ByMerchant: merchants,
		Insights:   []string{},
		Anomalies:  []Anomaly{},
		Recurring:  []RecurringItem{},
	}
	if len(txs) == 0 {
		return a
	}

	// Totals from exact decimals.
	var inflow, outflow decimal.Decimal
	for i := range txs {
		if txs[i].Amount.IsPositive() {
			inflow = inflow.Add(txs[i].Amount)
		} else {
			outflow = outflow.Add(txs[i].Amount)
		}
	}
	totalInflow := inflow.InexactFloat64()
	totalOutflow := outflow.InexactFloat64()
	a.Summary = Summary{
		Transactions: len(txs),
		TotalInflow:  round2(totalInflow),
		TotalOutflow: round2(totalOutflow),
		Net:          round2(totalInflow + totalOutflow),
	}

	// Savings rate: what fraction of inflow survived the period.
	expensesAbs := math.Abs(totalOutflow)
	savings := math.Max(totalInflow-expensesAbs, 0)
	savingsRate := 0.0
	if totalInflow > 0 {
		savingsRate = savings / totalInflow
	}
	a.SavingsRate = round4(savingsRate)

	// Essentials versus discretionary spend.
	var essentialsSpend, discretionarySpend float64
	for i := range txs {
		amt := txs[i].Amount.InexactFloat64()
		if amt >= 0 {
			continue
		}
		if IsEssential(txs[i].Category) {
			essentialsSpend += amt
		} else {
			discretionarySpend += amt
		}
	}
	var discretionaryShare *float64
	if totalSpend := math.Abs(essentialsSpend + discretionarySpend); totalSpend > 0 {
		v := math.Abs(discretionarySpend) / totalSpend
		discretionaryShare = &v
	}

	// DTI against average monthly income. Without an explicit figure the
	// Debt category outflows stand in for the monthly obligation.
	monthlyDebt := 0.0
	if profile.MonthlyDebtPayments != nil {
		monthlyDebt = *profile.MonthlyDebtPayments
	} else {
		var debtOutflow float64
		for i := range txs {
			amt := txs[i].Amount.InexactFloat64()
			if amt < 0 && txs[i].Category == "Debt" {
				debtOutflow += -amt
			}
		}
		months := len(monthly)
		if months < 1 {
			months = 1
		}
		monthlyDebt = debtOutflow / float64(months)
	}
	avgIncome := 0.0
	if len(monthly) > 0 {
		var sum float64
		for _, m := range monthly {
			sum += m.Income
		}
		avgIncome = math.Max(sum/float64(len(monthly)), 0)
	}
	var dti *float64
	if avgIncome > 0 {
		v := monthlyDebt / avgIncome
		dti = &v
	}

	// Emergency fund coverage in months of average expenses.
	avgExpensesAbs := 0.0
	if len(monthly) > 0 {
		var sum float64
		for _, m := range monthly {
			sum += m.Expenses
		}
		avgExpensesAbs = math.Abs(sum / float64(len(monthly)))
	}
	var emergencyMonths *float64
	if profile.LiquidSavings != nil && avgExpensesAbs > 0 {
		v := *profile.LiquidSavings / avgExpensesAbs
		emergencyMonths = &v
	}

	health := round1(computeHealthScore(savingsRate, dti, emergencyMonths, discretionaryShare))
	a.HealthScore = &health

	if savingsRate < 0.10 {
		a.Insights = append(a.Insights, "Savings rate is below 10%; consider cutting discretionary spend or increasing income.")
	}
	if dti != nil && *dti > 0.36 {
		a.Insights = append(a.Insights, "Debt-to-income ratio is above 36%; consider reducing debt payments or refinancing.")
	}
	if emergencyMonths != nil && *emergencyMonths < 3 {
		a.Insights = append(a.Insights, "Emergency fund covers less than 3 months of expenses; aim for 3-6 months.")
	}
	if discretionaryShare != nil && *discretionaryShare > 0.5 {
		a.Insights = append(a.Insights, "Over half of expenses are discretionary; consider tightening optional categories.")
	}

	a.Anomalies = detectAnomalies(txs)
	a.Recurring = detectRecurring(txs)

	if len(profile.Budgets) > 0 && len(monthly) > 0 {
		a.BudgetVariance = budgetVariance(profile.Budgets, avgCatSpend)
	}

	a.DTI = roundPtr(dti, 4)
	a.EmergencyFundMonths = roundPtr(emergencyMonths, 2)
	a.DiscretionaryShare = roundPtr(discretionaryShare, 4)
	return a
}

// =============================================================================
// HEALTH SCORE
// =============================================================================

// Component weights: savings 40%, DTI 25%, emergency fund 20%,
// discretionary share 15%. Missing components drop out and the rest
// renormalize.
func computeHealthScore(savingsRate float64, dti, emergencyMonths, discretionaryShare *float64) float64 {
	type part struct{ score, weight float64 }
	parts := []part{{savingsScore(savingsRate), 0.40}}
	if dti != nil {
		parts = append(parts, part{dtiScore(*dti), 0.25})
	}
	if emergencyMonths != nil {
		parts = append(parts, part{emergencyScore(*emergencyMonths), 0.20})
	}
	if discretionaryShare != nil {
		parts = append(parts, part{discretionaryScore(*discretionaryShare), 0.15})
	}

	var total, weight float64
	for _, p := range parts {
		total += p.score * p.weight
		weight += p.weight
	}
	if weight == 0 {
		weight = 1
	}
	return total / weight
}

// 20%+ savings rate scores a full 100.
func savingsScore(rate float64) float64 {
	return clamp(rate/0.20*100, 0, 100)
}

// 10% or less scores 100, 43%+ scores 0, linear in between.
func dtiScore(dti float64) float64 {
	switch {
	case dti <= 0.10:
		return 100
	case dti >= 0.43:
		return 0
	default:
		return clamp(100*(1-((dti-0.10)/0.33)), 0, 100)
	}
}

// 0 months scores 0, 3 months 70, 6+ months 100.
func emergencyScore(months float64) float64 {
	switch {
	case months >= 6:
		return 100
	case months >= 3:
		return 70 + (months-3)*10
	default:
		return clamp(months/3*70, 0, 70)
	}
}

// 15% share scores 100, 30% scores 70, 70%+ scores 0, linear bands.
func discretionaryScore(share float64) float64 {
	switch {
	case share <= 0.15:
		return 100
	case share <= 0.30:
		return 100 - ((share-0.15)/0.15)*30
	case share <= 0.70:
		return 70 - ((share-0.30)/0.40)*70
	default:
		return 0
	}
}

// =============================================================================
// ANOMALIES
// =============================================================================

const anomalyZThreshold = 2.5

// detectAnomalies flags transactions whose absolute amount sits more than
// 2.5 standard deviations above the mean. Needs at least five rows and a
// nonzero spread to say anything.
func detectAnomalies(txs []Transaction) []Anomaly {
	if len(txs) < 5 {
		return []Anomaly{}
	}
	abs := make([]float64, len(txs))
	var sum float64
	for i := range txs {
		abs[i] = math.Abs(txs[i].Amount.InexactFloat64())
		sum += abs[i]
	}
	mean := sum / float64(len(abs))
	var variance float64
	for _, v := range abs {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(abs)))
	if std == 0 {
		return []Anomaly{}
	}

	anomalies := []Anomaly{}
	for i := range txs {
		if (abs[i]-mean)/std <= anomalyZThreshold {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			Date:        txs[i].DateString(),
			Description: txs[i].Description,
			Amount:      round2(txs[i].Amount.InexactFloat64()),
			Category:    txs[i].Category,
			Account:     txs[i].Account,
			Source:      txs[i].Source,
		})
	}
	sort.SliceStable(anomalies, func(i, j int) bool {
		return math.Abs(anomalies[i].Amount) > math.Abs(anomalies[j].Amount)
	})
	return anomalies
}

// =============================================================================
// RECURRING DETECTION
// =============================================================================

const recurringLimit = 50

// detectRecurring finds repeating payments and income streams: same
// description, amounts clustered within $5 or 5% of the median, spread
// across at least two months. The median day gap classifies the cadence.
func detectRecurring(txs []Transaction) []RecurringItem {
	items := []RecurringItem{}
	directions := []struct {
		name string
		keep func(amt float64) bool
	}{
		{"expense", func(amt float64) bool { return amt < 0 }},
		{"income", func(amt float64) bool { return amt > 0 }},
	}

	for _, dir := range directions {
		byDesc := make(map[string][]Transaction)
		for i := range txs {
			if txs[i].Date.IsZero() {
				continue
			}
			if !dir.keep(txs[i].Amount.InexactFloat64()) {
				continue
			}
			byDesc[txs[i].Description] = append(byDesc[txs[i].Description], txs[i])
		}
		for desc, group := range byDesc {
			if item, ok := classifyRecurring(desc, dir.name, group); ok {
				items = append(items, item)
			}
		}
	}

	// Expenses first, largest typical amount first within each side.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type == "expense"
		}
		if items[i].TypicalAmount != items[j].TypicalAmount {
			return items[i].TypicalAmount > items[j].TypicalAmount
		}
		return items[i].Description < items[j].Description
	})
	if len(items) > recurringLimit {
		items = items[:recurringLimit]
	}
	return items
}

func classifyRecurring(desc, direction string, group []Transaction) (RecurringItem, bool) {
	amounts := make([]float64, len(group))
	for i := range group {
		amounts[i] = math.Abs(group[i].Amount.InexactFloat64())
	}
	medianAmt := median(amounts)

	// $5 or 5%, whichever is looser, around the median amount.
	tol := math.Max(5, 0.05*medianAmt)
	var sel []Transaction
	for i := range group {
		if a := math.Abs(group[i].Amount.InexactFloat64()); a >= medianAmt-tol && a <= medianAmt+tol {
			sel = append(sel, group[i])
		}
	}
	if len(sel) < 2 {
		return RecurringItem{}, false
	}

	sort.SliceStable(sel, func(i, j int) bool { return sel[i].Date.Before(sel[j].Date) })

	months := make(map[string]bool)
	for i := range sel {
		months[sel[i].Month()] = true
	}
	if len(months) < 2 {
		return RecurringItem{}, false
	}

	diffs := make([]float64, 0, len(sel)-1)
	for i := 1; i < len(sel); i++ {
		diffs = append(diffs, sel[i].Date.Sub(sel[i-1].Date).Hours()/24)
	}
	if len(diffs) == 0 {
		return RecurringItem{}, false
	}
	med := median(diffs)
	avg := mean(diffs)
	last := sel[len(sel)-1].Date

	var freq, confidence string
	var next time.Time
	switch {
	case med >= 26 && med <= 35:
		freq, confidence = "monthly", "high"
		next = last.AddDate(0, 1, 0)
	case med >= 13 && med <= 16:
		freq, confidence = "biweekly", "high"
		next = last.AddDate(0, 0, 14)
	case med >= 6 && med <= 8:
		freq, confidence = "weekly", "medium"
		next = last.AddDate(0, 0, 7)
	default:
		freq, confidence = "irregular", "low"
		next = last.AddDate(0, 0, int(math.Round(med)))
	}

	return RecurringItem{
		Description:        desc,
		TypicalAmount:      round2(medianAmt),
		Type:               direction,
		Occurrences:        len(sel),
		FirstDate:          sel[0].Date.Format("2006-01-02"),
		LastDate:           last.Format("2006-01-02"),
		AvgIntervalDays:    round1(avg),
		MedianIntervalDays: round1(med),
		Frequency:          freq,
		Confidence:         confidence,
		NextEstimatedDate:  next.Format("2006-01-02"),
	}, true
}

// =============================================================================
// BUDGET VARIANCE
// =============================================================================

func budgetVariance(budgets map[string]float64, avgCatSpend map[string]float64) []BudgetVarianceStat {
	rows := make([]BudgetVarianceStat, 0, len(budgets))
	for category, target := range budgets {
		actual := avgCatSpend[category]
		rows = append(rows, BudgetVarianceStat{
			Category: category,
			Actual:   round2(actual),
			Target:   round2(target),
			Variance: round2(actual - target),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Variance != rows[j].Variance {
			return rows[i].Variance > rows[j].Variance
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// =============================================================================
// MATH HELPERS
// =============================================================================

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	var r float64
	switch places {
	case 2:
		r = round2(*v)
	case 4:
		r = round4(*v)
	default:
		r = *v
	}
	return &r
}
