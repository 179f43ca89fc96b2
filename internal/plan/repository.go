package plan

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const typeColumns = `id, org_id, name, description, category, is_active, created_at, updated_at`

const variantColumns = `id, org_id, plan_type_id, duration_days, duration_label, price, is_active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateType(ctx context.Context, orgID string, req CreateTypeRequest) (*PlanType, error) {
	query := `
		INSERT INTO plan_types (org_id, name, description, category)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + typeColumns

	var t PlanType
	if err := r.db.GetContext(ctx, &t, query, orgID, req.Name, req.Description, req.Category); err != nil {
		return nil, fmt.Errorf("insert plan type: %w", err)
	}
	return &t, nil
}

func (r *repository) GetType(ctx context.Context, orgID string, id int) (*PlanType, error) {
	query := `SELECT ` + typeColumns + ` FROM plan_types WHERE org_id = $1 AND id = $2`

	var t PlanType
	if err := r.db.GetContext(ctx, &t, query, orgID, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListTypes(ctx context.Context, orgID string, f TypeFilter) ([]PlanType, error) {
	query := `
		SELECT ` + typeColumns + `
		FROM plan_types
		WHERE org_id = $1
		  AND ($2 = '' OR category = $2)
		  AND (NOT $3 OR is_active)
		ORDER BY name`

	types := []PlanType{}
	if err := r.db.SelectContext(ctx, &types, query, orgID, string(f.Category), f.ActiveOnly); err != nil {
		return nil, fmt.Errorf("list plan types: %w", err)
	}
	return types, nil
}

func (r *repository) UpdateType(ctx context.Context, orgID string, id int, req UpdateTypeRequest) (*PlanType, error) {
	query := `
		UPDATE plan_types
		SET name        = COALESCE($3, name),
		    description = COALESCE($4, description),
		    category    = COALESCE($5, category),
		    updated_at  = NOW()
		WHERE org_id = $1 AND id = $2
		RETURNING ` + typeColumns

	var t PlanType
	if err := r.db.GetContext(ctx, &t, query, orgID, id, req.Name, req.Description, req.Category); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) SetTypeActive(ctx context.Context, orgID string, id int, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE plan_types
		SET is_active = $3, updated_at = NOW()
		WHERE org_id = $1 AND id = $2
	`, orgID, id, active)
	return affectedOne(res, err)
}

func (r *repository) CreateVariant(ctx context.Context, orgID string, v PlanVariant) (*PlanVariant, error) {
	query := `
		INSERT INTO plan_variants (org_id, plan_type_id, duration_days, duration_label, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + variantColumns

	var created PlanVariant
	err := r.db.GetContext(ctx, &created, query, orgID, v.PlanTypeID, v.DurationDays, v.DurationLabel, v.Price)
	if err != nil {
		return nil, fmt.Errorf("insert plan variant: %w", err)
	}
	return &created, nil
}

func (r *repository) GetVariant(ctx context.Context, orgID string, typeID, id int) (*PlanVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM plan_variants WHERE org_id = $1 AND plan_type_id = $2 AND id = $3`

	var v PlanVariant
	if err := r.db.GetContext(ctx, &v, query, orgID, typeID, id); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) GetVariantDetail(ctx context.Context, orgID string, id int) (*VariantDetail, error) {
	query := `
		SELECT
			v.id, v.org_id, v.plan_type_id, v.duration_days, v.duration_label, v.price,
			v.is_active, v.created_at, v.updated_at,
			t.name      AS plan_type_name,
			t.category  AS plan_type_category,
			t.is_active AS plan_type_active
		FROM plan_variants v
		JOIN plan_types t ON t.id = v.plan_type_id
		WHERE v.org_id = $1 AND v.id = $2`

	var d VariantDetail
	if err := r.db.GetContext(ctx, &d, query, orgID, id); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) ListVariants(ctx context.Context, orgID string, typeID int, activeOnly bool) ([]PlanVariant, error) {
	query := `
		SELECT ` + variantColumns + `
		FROM plan_variants
		WHERE org_id = $1 AND plan_type_id = $2
		  AND (NOT $3 OR is_active)
		ORDER BY duration_days, price`

	variants := []PlanVariant{}
	if err := r.db.SelectContext(ctx, &variants, query, orgID, typeID, activeOnly); err != nil {
		return nil, fmt.Errorf("list plan variants: %w", err)
	}
	return variants, nil
}

func (r *repository) UpdateVariant(ctx context.Context, orgID string, typeID, id int, upd VariantUpdate) (*PlanVariant, error) {
	query := `
		UPDATE plan_variants
		SET duration_days  = COALESCE($4, duration_days),
		    duration_label = COALESCE($5, duration_label),
		    price          = COALESCE($6, price),
		    updated_at     = NOW()
		WHERE org_id = $1 AND plan_type_id = $2 AND id = $3
		RETURNING ` + variantColumns

	var price interface{}
	if upd.Price != nil {
		price = *upd.Price
	}

	var v PlanVariant
	if err := r.db.GetContext(ctx, &v, query, orgID, typeID, id, upd.DurationDays, upd.DurationLabel, price); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) SetVariantActive(ctx context.Context, orgID string, typeID, id int, active bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE plan_variants
		SET is_active = $4, updated_at = NOW()
		WHERE org_id = $1 AND plan_type_id = $2 AND id = $3
	`, orgID, typeID, id, active)
	return affectedOne(res, err)
}

func (r *repository) DeleteVariant(ctx context.Context, orgID string, typeID, id int) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM plan_variants
		WHERE org_id = $1 AND plan_type_id = $2 AND id = $3
	`, orgID, typeID, id)
	return affectedOne(res, err)
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
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
