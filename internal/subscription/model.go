package subscription

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind separates memberships from trainings. Both share one table and
// one lifecycle.
type Kind string

const (
	KindMembership Kind = "membership"
	KindTraining   Kind = "training"
)

func (k Kind) Valid() bool {
	return k == KindMembership || k == KindTraining
}

// Plural is the route segment a kind is served under.
func (k Kind) Plural() string {
	return string(k) + "s"
}

type Status string

const (
	StatusActive    Status = "active"
	StatusFrozen    Status = "frozen"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

type Action string

const (
	ActionEdit     Action = "edit"
	ActionFreeze   Action = "freeze"
	ActionUnfreeze Action = "unfreeze"
	ActionCancel   Action = "cancel"
	ActionPay      Action = "pay"
)

type Subscription struct {
	ID              int             `db:"id" json:"id"`
	OrgID           string          `db:"org_id" json:"-"`
	Kind            Kind            `db:"kind" json:"kind"`
	MemberID        int             `db:"member_id" json:"memberId"`
	PlanVariantID   int             `db:"plan_variant_id" json:"planVariantId"`
	TrainerID       *int            `db:"trainer_id" json:"trainerId,omitempty"`
	RenewedFromID   *int            `db:"renewed_from_id" json:"renewedFromId,omitempty"`
	StartDate       time.Time       `db:"start_date" json:"startDate"`
	EndDate         time.Time       `db:"end_date" json:"endDate"`
	PriceAtPurchase decimal.Decimal `db:"price_at_purchase" json:"priceAtPurchase"`
	DiscountAmount  decimal.Decimal `db:"discount_amount" json:"discountAmount"`
	FinalPrice      decimal.Decimal `db:"final_price" json:"finalPrice"`
	AutoRenew       bool            `db:"auto_renew" json:"autoRenew"`
	Notes           string          `db:"notes" json:"notes"`
	Status          Status          `db:"status" json:"status"`
	CancelReason    string          `db:"cancel_reason" json:"cancelReason,omitempty"`
	Version         int             `db:"version" json:"version"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`

	// Joined for display; empty on rows returned straight from writes.
	MemberName    string  `db:"member_name" json:"memberName,omitempty"`
	MemberEmail   string  `db:"member_email" json:"-"`
	PlanName      string  `db:"plan_name" json:"planName,omitempty"`
	DurationLabel string  `db:"duration_label" json:"durationLabel,omitempty"`
	TrainerName   *string `db:"trainer_name" json:"trainerName,omitempty"`
}

// EffectiveStatus projects time-based expiry: an active subscription whose
// end date lies before today reads as expired even before the sweeper
// persisted it.
func (s *Subscription) EffectiveStatus(today time.Time) Status {
	if s.Status == StatusActive && s.EndDate.Before(DateOf(today)) {
		return StatusExpired
	}
	return s.Status
}

type Filter struct {
	MemberID  *int
	TrainerID *int
	Status    Status
	Page      int
	Limit     int
}

type UpdateRequest struct {
	StartDate      *string          `json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate        *string          `json:"endDate" binding:"omitempty,datetime=2006-01-02"`
	DiscountAmount *decimal.Decimal `json:"discountAmount"`
	AutoRenew      *bool            `json:"autoRenew"`
	Notes          *string          `json:"notes" binding:"omitempty,max=2000"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// TermsUpdate carries validated column values; nil leaves a column as is.
type TermsUpdate struct {
	StartDate      *time.Time
	EndDate        *time.Time
	DiscountAmount *decimal.Decimal
	FinalPrice     *decimal.Decimal
	AutoRenew      *bool
	Notes          *string
}

type ExpiryResult struct {
	Expired int `json:"expired"`
	Renewed int `json:"renewed"`
	Failed  int `json:"failed"`
}
