// Package pricing settles a line's unit price from its base price, tax rate and
// optional discount. It performs no I/O.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-engine/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// Input is the product snapshot a line is priced from.
type Input struct {
	BasePrice       decimal.Decimal
	GST             decimal.Decimal
	DiscountPercent decimal.Decimal
	Quantity        int
	HandlingCharges decimal.Decimal
	ShippingCharges decimal.Decimal
	OtherCharges    decimal.Decimal
}

// Quote is the settled pricing persisted on the line. Unit amounts and the
// line total are rounded with money.Round.
type Quote struct {
	BasePrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	SettledPrice    decimal.Decimal
	LineTotal       decimal.Decimal
}

// Settle prices one line:
//
//	settled  = base × (1 − discount/100) × (1 + gst/100)
//	discount = base × discount/100
//	total    = settled × quantity + handling + shipping + other
//
// The line charges are flat per line, not per unit.
func Settle(in Input) Quote {
	discountPct := in.DiscountPercent
	if discountPct.IsNegative() {
		discountPct = decimal.Zero
	}
	if discountPct.GreaterThan(hundred) {
		discountPct = hundred
	}

	discounted := in.BasePrice.Sub(money.Percent(in.BasePrice, discountPct))
	settled := money.Round(discounted.Add(money.Percent(discounted, in.GST)))

	total := settled.Mul(decimal.NewFromInt(int64(in.Quantity)))
	total = money.Round(money.Sum(total, in.HandlingCharges, in.ShippingCharges, in.OtherCharges))

	return Quote{
		BasePrice:       money.Round(in.BasePrice),
		DiscountPercent: discountPct,
		DiscountAmount:  money.Round(money.Percent(in.BasePrice, discountPct)),
		SettledPrice:    settled,
		LineTotal:       total,
	}
}
