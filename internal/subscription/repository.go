package subscription

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymdesk/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const columns = `id, org_id, kind, member_id, plan_variant_id, trainer_id, renewed_from_id,
	start_date, end_date, price_at_purchase, discount_amount, final_price,
	auto_renew, notes, status, cancel_reason, version, created_at, updated_at`

// effectiveStatus mirrors Subscription.EffectiveStatus in SQL.
const effectiveStatus = `CASE WHEN s.status = 'active' AND s.end_date < CURRENT_DATE THEN 'expired' ELSE s.status END`

const selectView = `
	SELECT
		s.id, s.org_id, s.kind, s.member_id, s.plan_variant_id, s.trainer_id, s.renewed_from_id,
		s.start_date, s.end_date, s.price_at_purchase, s.discount_amount, s.final_price,
		s.auto_renew, s.notes, ` + effectiveStatus + ` AS status,
		s.cancel_reason, s.version, s.created_at, s.updated_at,
		TRIM(u.first_name || ' ' || u.last_name) AS member_name,
		u.email          AS member_email,
		pt.name          AS plan_name,
		pv.duration_label,
		t.name           AS trainer_name
	FROM subscriptions s
	JOIN users u          ON u.id = s.member_id
	JOIN plan_variants pv ON pv.id = s.plan_variant_id
	JOIN plan_types pt    ON pt.id = pv.plan_type_id
	LEFT JOIN trainers t  ON t.id = s.trainer_id`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Insert writes s through q, so callers can include it in a wider
// transaction.
func Insert(ctx context.Context, q db.Querier, s *Subscription) (*Subscription, error) {
	query := `
		INSERT INTO subscriptions (
			org_id, kind, member_id, plan_variant_id, trainer_id, renewed_from_id,
			start_date, end_date, price_at_purchase, discount_amount, final_price,
			auto_renew, notes, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'active')
		RETURNING ` + columns

	var created Subscription
	err := q.GetContext(ctx, &created, query,
		s.OrgID, s.Kind, s.MemberID, s.PlanVariantID, s.TrainerID, s.RenewedFromID,
		s.StartDate, s.EndDate, s.PriceAtPurchase, s.DiscountAmount, s.FinalPrice,
		s.AutoRenew, s.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", s.Kind, err)
	}
	return &created, nil
}

// LockForUpdate reads a subscription and holds its row lock until q's
// transaction ends.
func LockForUpdate(ctx context.Context, q db.Querier, orgID string, kind Kind, id int) (*Subscription, error) {
	query := selectView + `
		WHERE s.org_id = $1 AND s.kind = $2 AND s.id = $3
		FOR UPDATE OF s`

	var s Subscription
	if err := q.GetContext(ctx, &s, query, orgID, kind, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// ActiveForMember returns the member's subscriptions that are active or
// frozen and not yet past their end date.
func ActiveForMember(ctx context.Context, q db.Querier, orgID string, kind Kind, memberID int) ([]Subscription, error) {
	query := selectView + `
		WHERE s.org_id = $1 AND s.kind = $2 AND s.member_id = $3
		  AND ` + effectiveStatus + ` IN ('active', 'frozen')
		ORDER BY s.start_date`

	subs := []Subscription{}
	if err := q.SelectContext(ctx, &subs, query, orgID, kind, memberID); err != nil {
		return nil, fmt.Errorf("active %ss for member: %w", kind, err)
	}
	return subs, nil
}

func (r *repository) Create(ctx context.Context, s *Subscription) (*Subscription, error) {
	return Insert(ctx, r.db, s)
}

func (r *repository) Get(ctx context.Context, orgID string, kind Kind, id int) (*Subscription, error) {
	query := selectView + ` WHERE s.org_id = $1 AND s.kind = $2 AND s.id = $3`

	var s Subscription
	if err := r.db.GetContext(ctx, &s, query, orgID, kind, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) List(ctx context.Context, orgID string, kind Kind, f Filter) ([]Subscription, int, error) {
	where := `
		WHERE s.org_id = $1 AND s.kind = $2
		  AND ($3::int IS NULL OR s.member_id = $3)
		  AND ($4::int IS NULL OR s.trainer_id = $4)
		  AND ($5 = '' OR ` + effectiveStatus + ` = $5)`
	args := []interface{}{orgID, kind, f.MemberID, f.TrainerID, string(f.Status)}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM subscriptions s`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count %ss: %w", kind, err)
	}

	query := selectView + where + `
		ORDER BY s.start_date DESC, s.id DESC
		LIMIT $6 OFFSET $7`

	subs := []Subscription{}
	offset := (f.Page - 1) * f.Limit
	if err := r.db.SelectContext(ctx, &subs, query, append(args, f.Limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("list %ss: %w", kind, err)
	}
	return subs, total, nil
}

func (r *repository) ActiveForMember(ctx context.Context, orgID string, kind Kind, memberID int) ([]Subscription, error) {
	return ActiveForMember(ctx, r.db, orgID, kind, memberID)
}

// UpdateTerms applies upd only when the row still has the given version and
// has not been cancelled or expired in the meantime.
func (r *repository) UpdateTerms(ctx context.Context, orgID string, kind Kind, id, version int, upd TermsUpdate) (*Subscription, error) {
	query := `
		UPDATE subscriptions
		SET start_date      = COALESCE($5, start_date),
		    end_date        = COALESCE($6, end_date),
		    discount_amount = COALESCE($7, discount_amount),
		    final_price     = COALESCE($8, final_price),
		    auto_renew      = COALESCE($9, auto_renew),
		    notes           = COALESCE($10, notes),
		    version         = version + 1,
		    updated_at      = NOW()
		WHERE org_id = $1 AND kind = $2 AND id = $3 AND version = $4
		  AND status IN ('active', 'frozen')
		RETURNING ` + columns

	var s Subscription
	err := r.db.GetContext(ctx, &s, query,
		orgID, kind, id, version,
		upd.StartDate, upd.EndDate, decimalArg(upd.DiscountAmount), decimalArg(upd.FinalPrice),
		upd.AutoRenew, upd.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) SetStatus(ctx context.Context, orgID string, kind Kind, id, version int, to Status, reason string) (*Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status        = $5,
		    cancel_reason = CASE WHEN $5 = 'cancelled' THEN $6 ELSE cancel_reason END,
		    version       = version + 1,
		    updated_at    = NOW()
		WHERE org_id = $1 AND kind = $2 AND id = $3 AND version = $4
		RETURNING ` + columns

	var s Subscription
	if err := r.db.GetContext(ctx, &s, query, orgID, kind, id, version, to, reason); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) DueForExpiry(ctx context.Context, today time.Time, limit int) ([]Subscription, error) {
	query := selectView + `
		WHERE s.status = 'active' AND s.end_date < $1
		ORDER BY s.end_date, s.id
		LIMIT $2`

	subs := []Subscription{}
	if err := r.db.SelectContext(ctx, &subs, query, today, limit); err != nil {
		return nil, fmt.Errorf("subscriptions due for expiry: %w", err)
	}
	return subs, nil
}

func (r *repository) MarkExpired(ctx context.Context, s *Subscription) error {
	return markExpired(ctx, r.db, s)
}

// Renew expires old and inserts its successor atomically.
func (r *repository) Renew(ctx context.Context, old *Subscription, renewal *Subscription) (*Subscription, error) {
	var created *Subscription
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := markExpired(ctx, tx, old); err != nil {
			return err
		}

		var err error
		created, err = Insert(ctx, tx, renewal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func markExpired(ctx context.Context, q db.Querier, s *Subscription) error {
	res, err := q.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = 'expired', version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND status = 'active'
	`, s.ID, s.Version)
	if err != nil {
		return fmt.Errorf("expire subscription %d: %w", s.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// decimalArg turns a nil *decimal.Decimal into a SQL NULL.
func decimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}
