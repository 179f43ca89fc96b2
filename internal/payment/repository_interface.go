package payment

import (
	"context"

	"gymdesk/internal/subscription"
)

// Ledger is what a caller sees while a subscription row is locked.
type Ledger interface {
	Subscription() *subscription.Subscription
	Payments() []Payment
	Insert(p *Payment) (*Payment, error)
}

type Repository interface {
	// WithLock locks the subscription row, loads its payments and runs fn
	// in the same transaction. fn returning an error rolls back.
	WithLock(ctx context.Context, orgID string, kind subscription.Kind, subID int, fn func(l Ledger) error) error
	ListForSubscription(ctx context.Context, orgID string, subID int) ([]Payment, error)
	Get(ctx context.Context, orgID string, kind subscription.Kind, id int) (*Payment, error)
	MarkRefunded(ctx context.Context, orgID string, id int) (*Payment, error)
}
