package subscription

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s *Subscription) (*Subscription, error)
	Get(ctx context.Context, orgID string, kind Kind, id int) (*Subscription, error)
	List(ctx context.Context, orgID string, kind Kind, f Filter) ([]Subscription, int, error)
	ActiveForMember(ctx context.Context, orgID string, kind Kind, memberID int) ([]Subscription, error)
	UpdateTerms(ctx context.Context, orgID string, kind Kind, id, version int, upd TermsUpdate) (*Subscription, error)
	SetStatus(ctx context.Context, orgID string, kind Kind, id, version int, to Status, reason string) (*Subscription, error)

	// DueForExpiry scans every organization for active subscriptions that
	// ended before today.
	DueForExpiry(ctx context.Context, today time.Time, limit int) ([]Subscription, error)
	MarkExpired(ctx context.Context, s *Subscription) error
	Renew(ctx context.Context, old *Subscription, renewal *Subscription) (*Subscription, error)
}
