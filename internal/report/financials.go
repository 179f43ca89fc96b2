package report

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultTrendMonths = 6
	MaxTrendMonths     = 24
	paybackWindow      = 12
)

// MonthRange returns [first day of month, first day of next month) in UTC.
func MonthRange(year, month int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// TrailingMonths lists n calendar months ending with the month of now,
// oldest first, as zero-valued trend points.
func TrailingMonths(now time.Time, n int) []TrendPoint {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(n - 1), 0)
	points := make([]TrendPoint, n)
	for i := range points {
		m := first.AddDate(0, i, 0)
		points[i] = TrendPoint{Year: m.Year(), Month: int(m.Month()), Revenue: decimal.Zero, Expenses: decimal.Zero}
	}
	return points
}

// FillTrend writes the month totals into points. Months without rows stay zero.
func FillTrend(points []TrendPoint, revenue, expenses []MonthTotal) []TrendPoint {
	index := make(map[[2]int]int, len(points))
	for i, p := range points {
		index[[2]int{p.Year, p.Month}] = i
	}
	for _, r := range revenue {
		if i, ok := index[[2]int{r.Year, r.Month}]; ok {
			points[i].Revenue = points[i].Revenue.Add(r.Amount)
		}
	}
	for _, e := range expenses {
		if i, ok := index[[2]int{e.Year, e.Month}]; ok {
			points[i].Expenses = points[i].Expenses.Add(e.Amount)
		}
	}
	return points
}

func Summarize(year, month int, revenue, expenses decimal.Decimal) MonthSummary {
	return MonthSummary{
		Year:      year,
		Month:     month,
		Revenue:   revenue.Round(2),
		Expenses:  expenses.Round(2),
		NetProfit: revenue.Sub(expenses).Round(2),
	}
}

// ComputeROI derives the return on the total investment. Payback uses the
// average monthly net profit over the trailing months given.
func ComputeROI(t Totals, trailing []TrendPoint) ROI {
	net := t.Revenue.Sub(t.Expenses).Round(2)
	roi := ROI{TotalInvested: t.Invested.Round(2), TotalNetProfit: net}

	if t.Invested.IsPositive() {
		roi.ROIPercent, _ = net.Div(t.Invested).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}

	if len(trailing) == 0 {
		return roi
	}
	sum := decimal.Zero
	for _, p := range trailing {
		sum = sum.Add(p.Revenue).Sub(p.Expenses)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(trailing))))
	if !avg.IsPositive() {
		return roi
	}
	months := int(t.Invested.Div(avg).Ceil().IntPart())
	roi.PaybackMonths = &months
	return roi
}
