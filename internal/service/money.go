package service

import "github.com/shopspring/decimal"

// lineTotal multiplies a VND unit price by a fractional quantity, rounded to the dong.
func lineTotal(unitPrice int64, qty float64) int64 {
	return decimal.NewFromInt(unitPrice).Mul(decimal.NewFromFloat(qty)).Round(0).IntPart()
}

// sumAmounts adds VND amounts.
func sumAmounts(amounts ...int64) int64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromInt(a))
	}
	return total.IntPart()
}

// withinPercent reports whether part is at most pct percent of whole.
func withinPercent(part, whole int64, pct int64) bool {
	limit := decimal.NewFromInt(whole).Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100))
	return decimal.NewFromInt(part).LessThanOrEqual(limit)
}
