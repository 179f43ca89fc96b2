package subscription

import (
	"time"

	"gymdesk/internal/api"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of every calendar date.
const DateLayout = "2006-01-02"

var (
	ErrDiscountRange  = api.BadRequest("discountAmount must be between 0 and the plan price")
	ErrEndBeforeStart = api.BadRequest("endDate must not be before startDate")
	ErrInvalidDate    = api.BadRequest("dates must use the YYYY-MM-DD format")
	ErrInvalidDays    = api.BadRequest("plan duration must be greater than 0")
)

// Terms are the derived values persisted on a new subscription.
type Terms struct {
	StartDate       time.Time       `json:"startDate"`
	EndDate         time.Time       `json:"endDate"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	FinalPrice      decimal.Decimal `json:"finalPrice"`
}

// ComputeTerms derives end date and final price from the variant being
// purchased. The server persists these; clients may call it for a preview.
func ComputeTerms(start time.Time, durationDays int, price, discount decimal.Decimal) (Terms, error) {
	if durationDays <= 0 {
		return Terms{}, ErrInvalidDays
	}
	price = price.Round(2)
	discount = discount.Round(2)
	if discount.IsNegative() || discount.GreaterThan(price) {
		return Terms{}, ErrDiscountRange
	}

	start = DateOf(start)
	return Terms{
		StartDate:       start,
		EndDate:         start.AddDate(0, 0, durationDays),
		PriceAtPurchase: price,
		DiscountAmount:  discount,
		FinalPrice:      FinalPrice(price, discount),
	}, nil
}

// FinalPrice is max(0, price - discount).
func FinalPrice(price, discount decimal.Decimal) decimal.Decimal {
	final := price.Sub(discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final.Round(2)
}

// ParseDate reads a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
