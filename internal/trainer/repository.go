package trainer

import (
	"context"
	"database/sql"
	"fmt"

	"gymdesk/internal/db"

	"github.com/jmoiron/sqlx"
)

const columns = `id, org_id, name, email, phone, specialization, is_active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, orgID string, req CreateRequest) (*Trainer, error) {
	query := `
		INSERT INTO trainers (org_id, name, email, phone, specialization)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + columns

	var t Trainer
	if err := r.db.GetContext(ctx, &t, query, orgID, req.Name, req.Email, req.Phone, req.Specialization); err != nil {
		return nil, fmt.Errorf("insert trainer: %w", err)
	}
	return &t, nil
}

func (r *repository) Get(ctx context.Context, orgID string, id int) (*Trainer, error) {
	var t Trainer
	err := r.db.GetContext(ctx, &t, `SELECT `+columns+` FROM trainers WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context, orgID string, activeOnly bool) ([]Trainer, error) {
	query := `
		SELECT ` + columns + `
		FROM trainers
		WHERE org_id = $1 AND (NOT $2 OR is_active)
		ORDER BY name`

	trainers := []Trainer{}
	if err := r.db.SelectContext(ctx, &trainers, query, orgID, activeOnly); err != nil {
		return nil, fmt.Errorf("list trainers: %w", err)
	}
	return trainers, nil
}

func (r *repository) Update(ctx context.Context, orgID string, id int, req UpdateRequest) (*Trainer, error) {
	query := `
		UPDATE trainers
		SET name           = COALESCE($3, name),
		    email          = COALESCE($4, email),
		    phone          = COALESCE($5, phone),
		    specialization = COALESCE($6, specialization),
		    updated_at     = NOW()
		WHERE org_id = $1 AND id = $2
		RETURNING ` + columns

	var t Trainer
	if err := r.db.GetContext(ctx, &t, query, orgID, id, req.Name, req.Email, req.Phone, req.Specialization); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) Deactivate(ctx context.Context, orgID string, id int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trainers SET is_active = FALSE, updated_at = NOW() WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return fmt.Errorf("deactivate trainer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasActiveTrainings counts frozen trainings as open: they resume later.
func (r *repository) HasActiveTrainings(ctx context.Context, orgID string, id int) (bool, error) {
	return db.Exists(ctx, r.db, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE org_id = $1 AND trainer_id = $2 AND kind = 'training'
			  AND (status = 'frozen' OR (status = 'active' AND end_date >= CURRENT_DATE))
		)`, orgID, id)
}
