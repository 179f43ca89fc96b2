package enrollment

import (
	"context"

	"gymdesk/internal/payment"
	"gymdesk/internal/subscription"
)

// Writer inserts rows inside the enrollment transaction.
type Writer interface {
	Subscription(s *subscription.Subscription) (*subscription.Subscription, error)
	Payment(p *payment.Payment) (*payment.Payment, error)
}

type Repository interface {
	ActiveFor(ctx context.Context, orgID string, kind subscription.Kind, memberID int) ([]subscription.Subscription, error)
	// InTx commits every write made through w, or none of them.
	InTx(ctx context.Context, fn func(w Writer) error) error
}
