package user

import (
	"context"
	"fmt"

	"gymdesk/internal/db"

	"github.com/jmoiron/sqlx"
)

const columns = `id, org_id, external_id, role, first_name, last_name, email, phone,
	date_of_birth, gender, join_date, is_active, notes, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const upsertQuery = `
		INSERT INTO users (org_id, external_id, role, first_name, last_name, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (org_id, external_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    last_name  = EXCLUDED.last_name,
		    email      = EXCLUDED.email,
		    updated_at = NOW()
		RETURNING ` + columns

// Upsert creates or refreshes the caller's profile in one statement, so
// concurrent syncs for the same identity converge on one row. The role is
// only taken on insert; a stored role is never rewritten by a sync.
func (r *repository) Upsert(ctx context.Context, orgID string, p SyncProfile) (*User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, upsertQuery, orgID, p.ExternalID, p.Role, p.FirstName, p.LastName, p.Email); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

func (r *repository) FindByExternalID(ctx context.Context, orgID, externalID string) (*User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE org_id = $1 AND external_id = $2`

	var u User
	if err := r.db.GetContext(ctx, &u, query, orgID, externalID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, orgID string, id int) (*User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE org_id = $1 AND id = $2`

	var u User
	if err := r.db.GetContext(ctx, &u, query, orgID, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) CreateMember(ctx context.Context, orgID string, f MemberFields) (*User, error) {
	query := `
		INSERT INTO users (org_id, role, first_name, last_name, email, phone, date_of_birth, gender, join_date, notes)
		VALUES ($1, 'member', $2, COALESCE($3, ''), COALESCE($4, ''), COALESCE($5, ''), $6,
		        COALESCE($7, ''), COALESCE($8, CURRENT_DATE), COALESCE($9, ''))
		RETURNING ` + columns

	var u User
	err := r.db.GetContext(ctx, &u, query,
		orgID, f.FirstName, f.LastName, f.Email, f.Phone, f.DateOfBirth, f.Gender, f.JoinDate, f.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return &u, nil
}

func (r *repository) FindMember(ctx context.Context, orgID string, id int) (*User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE org_id = $1 AND id = $2 AND role = 'member'`

	var u User
	if err := r.db.GetContext(ctx, &u, query, orgID, id); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) ListMembers(ctx context.Context, orgID string, f MemberFilter) ([]User, int, error) {
	where := `
		WHERE org_id = $1 AND role = 'member'
		  AND ($2 = '' OR first_name || ' ' || last_name ILIKE '%' || $2 || '%'
		       OR email ILIKE '%' || $2 || '%' OR phone LIKE '%' || $2 || '%')
		  AND ($3::boolean IS NULL OR is_active = $3)`
	args := []interface{}{orgID, f.Search, f.Active}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	query := `SELECT ` + columns + ` FROM users` + where + `
		ORDER BY first_name, last_name, id
		LIMIT $4 OFFSET $5`

	members := []User{}
	if err := r.db.SelectContext(ctx, &members, query, append(args, f.Limit, (f.Page-1)*f.Limit)...); err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	return members, total, nil
}

func (r *repository) UpdateMember(ctx context.Context, orgID string, id int, f MemberFields) (*User, error) {
	query := `
		UPDATE users
		SET first_name    = COALESCE($3, first_name),
		    last_name     = COALESCE($4, last_name),
		    email         = COALESCE($5, email),
		    phone         = COALESCE($6, phone),
		    date_of_birth = COALESCE($7, date_of_birth),
		    gender        = COALESCE($8, gender),
		    notes         = COALESCE($9, notes),
		    is_active     = COALESCE($10, is_active),
		    updated_at    = NOW()
		WHERE org_id = $1 AND id = $2 AND role = 'member'
		RETURNING ` + columns

	var u User
	err := r.db.GetContext(ctx, &u, query,
		orgID, id, f.FirstName, f.LastName, f.Email, f.Phone, f.DateOfBirth, f.Gender, f.Notes, f.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// HasOpenSubscriptions reports whether the member still holds an active
// or frozen membership or training.
func (r *repository) HasOpenSubscriptions(ctx context.Context, orgID string, memberID int) (bool, error) {
	return db.Exists(ctx, r.db, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE org_id = $1 AND member_id = $2
			  AND (status = 'frozen' OR (status = 'active' AND end_date >= CURRENT_DATE))
		)`, orgID, memberID)
}
