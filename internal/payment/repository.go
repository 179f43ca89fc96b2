package payment

import (
	"context"
	"fmt"

	"gymdesk/internal/db"
	"gymdesk/internal/subscription"

	"github.com/jmoiron/sqlx"
)

const columns = `id, org_id, subscription_id, member_id, amount, method, reference, notes, status, paid_at, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Insert writes p through q so enrollment can record the first payment in
// the transaction that creates the subscription.
func Insert(ctx context.Context, q db.Querier, p *Payment) (*Payment, error) {
	query := `
		INSERT INTO payments (org_id, subscription_id, member_id, amount, method, reference, notes, status, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + columns

	var created Payment
	err := q.GetContext(ctx, &created, query,
		p.OrgID, p.SubscriptionID, p.MemberID, p.Amount, p.Method, p.Reference, p.Notes, p.Status, p.PaidAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return &created, nil
}

func listForSubscription(ctx context.Context, q db.Querier, orgID string, subID int) ([]Payment, error) {
	query := `
		SELECT ` + columns + `
		FROM payments
		WHERE org_id = $1 AND subscription_id = $2
		ORDER BY COALESCE(paid_at, created_at) DESC, id DESC`

	payments := []Payment{}
	if err := q.SelectContext(ctx, &payments, query, orgID, subID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

type ledger struct {
	ctx      context.Context
	tx       *sqlx.Tx
	sub      *subscription.Subscription
	payments []Payment
}

func (l *ledger) Subscription() *subscription.Subscription { return l.sub }
func (l *ledger) Payments() []Payment                      { return l.payments }

func (l *ledger) Insert(p *Payment) (*Payment, error) {
	created, err := Insert(l.ctx, l.tx, p)
	if err != nil {
		return nil, err
	}
	l.payments = append([]Payment{*created}, l.payments...)
	return created, nil
}

func (r *repository) WithLock(ctx context.Context, orgID string, kind subscription.Kind, subID int, fn func(l Ledger) error) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		sub, err := subscription.LockForUpdate(ctx, tx, orgID, kind, subID)
		if err != nil {
			return err
		}

		payments, err := listForSubscription(ctx, tx, orgID, subID)
		if err != nil {
			return err
		}

		return fn(&ledger{ctx: ctx, tx: tx, sub: sub, payments: payments})
	})
}

func (r *repository) ListForSubscription(ctx context.Context, orgID string, subID int) ([]Payment, error) {
	return listForSubscription(ctx, r.db, orgID, subID)
}

func (r *repository) Get(ctx context.Context, orgID string, kind subscription.Kind, id int) (*Payment, error) {
	query := `
		SELECT p.id, p.org_id, p.subscription_id, p.member_id, p.amount, p.method,
		       p.reference, p.notes, p.status, p.paid_at, p.created_at
		FROM payments p
		JOIN subscriptions s ON s.id = p.subscription_id
		WHERE p.org_id = $1 AND s.kind = $2 AND p.id = $3`

	var p Payment
	if err := r.db.GetContext(ctx, &p, query, orgID, kind, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkRefunded flips a paid payment to refunded. Payments are never deleted.
func (r *repository) MarkRefunded(ctx context.Context, orgID string, id int) (*Payment, error) {
	query := `
		UPDATE payments
		SET status = 'refunded'
		WHERE org_id = $1 AND id = $2 AND status = 'paid'
		RETURNING ` + columns

	var p Payment
	if err := r.db.GetContext(ctx, &p, query, orgID, id); err != nil {
		return nil, err
	}
	return &p, nil
}
