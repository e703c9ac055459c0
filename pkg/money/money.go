// Package money holds the one rounding rule used for every persisted amount,
// so order placement and invoice regeneration always agree.
package money

import "github.com/shopspring/decimal"

// Scale is the number of decimal places kept on persisted amounts.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Round rounds to Scale places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Display truncates to whole units for totals shown to users.
func Display(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(0)
}

// Percent returns pct percent of base, unrounded.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// Sum adds the provided amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}
