package payment

import (
	"time"

	"gymdesk/internal/subscription"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCash         Method = "cash"
	MethodCard         Method = "card"
	MethodUPI          Method = "upi"
	MethodBankTransfer Method = "bank_transfer"
	MethodOther        Method = "other"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodUPI, MethodBankTransfer, MethodOther:
		return true
	}
	return false
}

type Status string

const (
	StatusPaid     Status = "paid"
	StatusPending  Status = "pending"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

type Payment struct {
	ID             int             `db:"id" json:"id"`
	OrgID          string          `db:"org_id" json:"-"`
	SubscriptionID int             `db:"subscription_id" json:"subscriptionId"`
	MemberID       int             `db:"member_id" json:"memberId"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Method         Method          `db:"method" json:"method"`
	Reference      string          `db:"reference" json:"reference,omitempty"`
	Notes          string          `db:"notes" json:"notes,omitempty"`
	Status         Status          `db:"status" json:"status"`
	PaidAt         *time.Time      `db:"paid_at" json:"paidAt,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

type Dues struct {
	FinalPrice  decimal.Decimal `json:"finalPrice"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	DueAmount   decimal.Decimal `json:"dueAmount"`
	IsFullyPaid bool            `json:"isFullyPaid"`
	PaidPercent float64         `json:"paidPercent"`
}

type DuesView struct {
	SubscriptionID int                 `json:"subscriptionId"`
	Kind           subscription.Kind   `json:"kind"`
	Status         subscription.Status `json:"status"`
	Dues
	Payments []Payment `json:"payments"`
}

// RecordRequest targets a subscription by its kind-specific id field;
// subscriptionId works for both kinds.
type RecordRequest struct {
	SubscriptionID int             `json:"subscriptionId"`
	MembershipID   int             `json:"membershipId"`
	TrainingID     int             `json:"trainingId"`
	Amount         decimal.Decimal `json:"amount"`
	Method         Method          `json:"method" binding:"required,oneof=cash card upi bank_transfer other"`
	Reference      string          `json:"reference" binding:"max=200"`
	Notes          string          `json:"notes" binding:"max=2000"`
	Status         Status          `json:"status" binding:"omitempty,oneof=paid pending failed"`
}

func (r RecordRequest) Target(kind subscription.Kind) int {
	switch {
	case kind == subscription.KindMembership && r.MembershipID > 0:
		return r.MembershipID
	case kind == subscription.KindTraining && r.TrainingID > 0:
		return r.TrainingID
	}
	return r.SubscriptionID
}

type Receipt struct {
	Payment *Payment `json:"payment"`
	Dues    Dues     `json:"dues"`
}
