package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// duesCTE computes the balance of every non-cancelled subscription. The
// filter is appended to its WHERE clause with $1 bound to the org.
func duesCTE(filter string) string {
	return `
		WITH dues AS (
			SELECT
				s.id, s.member_id, s.kind, pt.name AS plan_name, s.end_date, s.final_price,
				CASE WHEN s.status = 'active' AND s.end_date < CURRENT_DATE THEN 'expired' ELSE s.status END AS status,
				COALESCE(paid.total, 0) AS total_paid,
				GREATEST(s.final_price - COALESCE(paid.total, 0), 0) AS due_amount
			FROM subscriptions s
			JOIN plan_variants pv ON pv.id = s.plan_variant_id
			JOIN plan_types pt    ON pt.id = pv.plan_type_id
			LEFT JOIN (
				SELECT subscription_id, SUM(amount) AS total
				FROM payments
				WHERE org_id = $1 AND status = 'paid'
				GROUP BY subscription_id
			) paid ON paid.subscription_id = s.id
			WHERE s.org_id = $1 AND s.status <> 'cancelled'` + filter + `
		)`
}

const memberFilter = ` AND ($2::int IS NULL OR s.member_id = $2)`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountMembersWithDues(ctx context.Context, orgID string, memberID *int) (int, error) {
	query := duesCTE(memberFilter) + `
		SELECT COUNT(DISTINCT member_id) FROM dues WHERE due_amount > 0`

	var total int
	if err := r.db.GetContext(ctx, &total, query, orgID, memberID); err != nil {
		return 0, fmt.Errorf("count members with dues: %w", err)
	}
	return total, nil
}

func (r *repository) MemberDues(ctx context.Context, orgID string, f DuesFilter) ([]MemberDues, error) {
	query := duesCTE(memberFilter) + `
		SELECT
			d.member_id,
			TRIM(u.first_name || ' ' || u.last_name) AS member_name,
			COALESCE(SUM(d.due_amount) FILTER (WHERE d.kind = 'membership'), 0) AS membership_dues,
			COALESCE(SUM(d.due_amount) FILTER (WHERE d.kind = 'training'), 0)   AS training_dues,
			SUM(d.due_amount) AS total_due
		FROM dues d
		JOIN users u ON u.id = d.member_id
		WHERE d.due_amount > 0
		GROUP BY d.member_id, u.first_name, u.last_name
		ORDER BY total_due DESC, d.member_id
		LIMIT $3 OFFSET $4`

	rows := []MemberDues{}
	if err := r.db.SelectContext(ctx, &rows, query, orgID, f.MemberID, f.Limit, (f.Page-1)*f.Limit); err != nil {
		return nil, fmt.Errorf("member dues: %w", err)
	}
	return rows, nil
}

func (r *repository) DueSubscriptions(ctx context.Context, orgID string, memberIDs []int) ([]DueSubscription, error) {
	query := duesCTE(` AND s.member_id = ANY($2)`) + `
		SELECT id, member_id, kind, plan_name, status, end_date, final_price, total_paid, due_amount
		FROM dues
		WHERE due_amount > 0
		ORDER BY member_id, end_date, id`

	ids := make([]int64, len(memberIDs))
	for i, id := range memberIDs {
		ids[i] = int64(id)
	}

	subs := []DueSubscription{}
	if err := r.db.SelectContext(ctx, &subs, query, orgID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("due subscriptions: %w", err)
	}
	return subs, nil
}

func (r *repository) Revenue(ctx context.Context, orgID string, from, to time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments
		WHERE org_id = $1 AND status = 'paid' AND paid_at >= $2 AND paid_at < $3`, orgID, from, to)
}

func (r *repository) ExpenseTotal(ctx context.Context, orgID string, from, to time.Time) (decimal.Decimal, error) {
	return r.sum(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM expenses
		WHERE org_id = $1 AND incurred_on >= $2 AND incurred_on < $3`, orgID, from, to)
}

func (r *repository) sum(ctx context.Context, query string, args ...interface{}) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return decimal.Zero, fmt.Errorf("sum: %w", err)
	}
	return total, nil
}

func (r *repository) MonthlyRevenue(ctx context.Context, orgID string, from, to time.Time) ([]MonthTotal, error) {
	return r.monthly(ctx, `
		SELECT EXTRACT(YEAR FROM paid_at AT TIME ZONE 'UTC')::int  AS year,
		       EXTRACT(MONTH FROM paid_at AT TIME ZONE 'UTC')::int AS month,
		       SUM(amount) AS amount
		FROM payments
		WHERE org_id = $1 AND status = 'paid' AND paid_at >= $2 AND paid_at < $3
		GROUP BY 1, 2
		ORDER BY 1, 2`, orgID, from, to)
}

func (r *repository) MonthlyExpenses(ctx context.Context, orgID string, from, to time.Time) ([]MonthTotal, error) {
	return r.monthly(ctx, `
		SELECT EXTRACT(YEAR FROM incurred_on)::int  AS year,
		       EXTRACT(MONTH FROM incurred_on)::int AS month,
		       SUM(amount) AS amount
		FROM expenses
		WHERE org_id = $1 AND incurred_on >= $2 AND incurred_on < $3
		GROUP BY 1, 2
		ORDER BY 1, 2`, orgID, from, to)
}

func (r *repository) monthly(ctx context.Context, query string, args ...interface{}) ([]MonthTotal, error) {
	rows := []MonthTotal{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	return rows, nil
}

func (r *repository) Totals(ctx context.Context, orgID string) (Totals, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE org_id = $1 AND status = 'paid') AS revenue,
			(SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE org_id = $1)                   AS expenses,
			(SELECT COALESCE(SUM(amount), 0) FROM investments WHERE org_id = $1)                AS invested`

	var t Totals
	if err := r.db.GetContext(ctx, &t, query, orgID); err != nil {
		return Totals{}, fmt.Errorf("all-time totals: %w", err)
	}
	return t, nil
}

func (r *repository) CreateExpense(ctx context.Context, e *Expense) (*Expense, error) {
	query := `
		INSERT INTO expenses (org_id, category, description, amount, incurred_on)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, org_id, category, description, amount, incurred_on, created_at`

	var created Expense
	if err := r.db.GetContext(ctx, &created, query, e.OrgID, e.Category, e.Description, e.Amount, e.IncurredOn); err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return &created, nil
}

func (r *repository) ListExpenses(ctx context.Context, orgID string, from, to time.Time) ([]Expense, error) {
	query := `
		SELECT id, org_id, category, description, amount, incurred_on, created_at
		FROM expenses
		WHERE org_id = $1 AND incurred_on >= $2 AND incurred_on < $3
		ORDER BY incurred_on DESC, id DESC`

	expenses := []Expense{}
	if err := r.db.SelectContext(ctx, &expenses, query, orgID, from, to); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (r *repository) CreateInvestment(ctx context.Context, i *Investment) (*Investment, error) {
	query := `
		INSERT INTO investments (org_id, description, amount, invested_on)
		VALUES ($1, $2, $3, $4)
		RETURNING id, org_id, description, amount, invested_on, created_at`

	var created Investment
	if err := r.db.GetContext(ctx, &created, query, i.OrgID, i.Description, i.Amount, i.InvestedOn); err != nil {
		return nil, fmt.Errorf("insert investment: %w", err)
	}
	return &created, nil
}

func (r *repository) ListInvestments(ctx context.Context, orgID string) ([]Investment, error) {
	query := `
		SELECT id, org_id, description, amount, invested_on, created_at
		FROM investments
		WHERE org_id = $1
		ORDER BY invested_on DESC, id DESC`

	investments := []Investment{}
	if err := r.db.SelectContext(ctx, &investments, query, orgID); err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return investments, nil
}
