package enrollment

import (
	"context"

	"gymdesk/internal/db"
	"gymdesk/internal/payment"
	"gymdesk/internal/subscription"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveFor(ctx context.Context, orgID string, kind subscription.Kind, memberID int) ([]subscription.Subscription, error) {
	return subscription.ActiveForMember(ctx, r.db, orgID, kind, memberID)
}

type txWriter struct {
	ctx context.Context
	tx  *sqlx.Tx
}

func (w *txWriter) Subscription(s *subscription.Subscription) (*subscription.Subscription, error) {
	return subscription.Insert(w.ctx, w.tx, s)
}

func (w *txWriter) Payment(p *payment.Payment) (*payment.Payment, error) {
	return payment.Insert(w.ctx, w.tx, p)
}

func (r *repository) InTx(ctx context.Context, fn func(w Writer) error) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&txWriter{ctx: ctx, tx: tx})
	})
}
