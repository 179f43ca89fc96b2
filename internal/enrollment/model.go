package enrollment

import (
	"gymdesk/internal/payment"
	"gymdesk/internal/subscription"

	"github.com/shopspring/decimal"
)

// Request is the accumulated state of the creation wizard. Derived values
// (end date, prices) are never accepted from the caller.
type Request struct {
	MemberID       int             `json:"memberId" binding:"required,gt=0"`
	PlanVariantID  int             `json:"planVariantId" binding:"required,gt=0"`
	StartDate      string          `json:"startDate" binding:"required,datetime=2006-01-02"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	AutoRenew      bool            `json:"autoRenew"`
	Notes          string          `json:"notes" binding:"max=2000"`
	TrainerID      *int            `json:"trainerId" binding:"omitempty,gt=0"`

	// Training enrolls a linked training with the membership.
	Training *TrainingBlock `json:"training"`
	Payment  *PaymentBlock  `json:"payment"`
}

type TrainingBlock struct {
	PlanVariantID  int             `json:"planVariantId" binding:"required,gt=0"`
	TrainerID      int             `json:"trainerId" binding:"required,gt=0"`
	StartDate      string          `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	AutoRenew      bool            `json:"autoRenew"`
	Notes          string          `json:"notes" binding:"max=2000"`
}

type PaymentBlock struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    payment.Method  `json:"method"`
	Reference string          `json:"reference" binding:"max=200"`
	Notes     string          `json:"notes" binding:"max=2000"`
}

type Result struct {
	Membership     *subscription.Subscription `json:"membership,omitempty"`
	Training       *subscription.Subscription `json:"training,omitempty"`
	LinkedTraining *subscription.Subscription `json:"linkedTraining,omitempty"`
	Payment        *payment.Payment           `json:"payment,omitempty"`
	Warnings       []string                   `json:"warnings"`
}

// primary returns the subscription the request was made for.
func (r *Result) primary(kind subscription.Kind) *subscription.Subscription {
	if kind == subscription.KindTraining {
		return r.Training
	}
	return r.Membership
}

func (r *Result) setPrimary(kind subscription.Kind, s *subscription.Subscription) {
	if kind == subscription.KindTraining {
		r.Training = s
		return
	}
	r.Membership = s
}
