package payment

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeDues derives the outstanding balance of a subscription from its
// payment history. Only paid payments count.
func ComputeDues(finalPrice decimal.Decimal, payments []Payment) Dues {
	totalPaid := decimal.Zero
	for _, p := range payments {
		if p.Status == StatusPaid {
			totalPaid = totalPaid.Add(p.Amount)
		}
	}

	due := finalPrice.Sub(totalPaid)
	if due.IsNegative() {
		due = decimal.Zero
	}

	percent := hundred
	if finalPrice.IsPositive() {
		percent = decimal.Min(hundred, totalPaid.Div(finalPrice).Mul(hundred))
	}
	pct, _ := percent.Round(2).Float64()

	return Dues{
		FinalPrice:  finalPrice.Round(2),
		TotalPaid:   totalPaid.Round(2),
		DueAmount:   due.Round(2),
		IsFullyPaid: due.IsZero(),
		PaidPercent: pct,
	}
}
