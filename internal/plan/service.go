package plan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymdesk/internal/api"
	"gymdesk/internal/db"
	"gymdesk/internal/logger"
)

var (
	ErrPlanTypeNotFound    = api.NotFound("plan type not found")
	ErrPlanVariantNotFound = api.NotFound("plan variant not found")
	ErrPlanTypeInactive    = api.Unprocessable("plan type is inactive")
	ErrInvalidDuration     = api.BadRequest("durationDays must be greater than 0")
	ErrLabelMismatch       = api.BadRequest("durationLabel does not match durationDays")
	ErrNegativePrice       = api.BadRequest("price must be greater than or equal to 0")
	ErrVariantInUse        = api.Conflict("plan variant is referenced by subscriptions; deactivate it instead")
)

type Service interface {
	CreateType(ctx context.Context, orgID string, req CreateTypeRequest) (*PlanType, error)
	GetType(ctx context.Context, orgID string, id int) (*PlanTypeWithVariants, error)
	ListTypes(ctx context.Context, orgID string, f TypeFilter) ([]PlanType, error)
	UpdateType(ctx context.Context, orgID string, id int, req UpdateTypeRequest) (*PlanType, error)
	DeactivateType(ctx context.Context, orgID string, id int) error

	CreateVariant(ctx context.Context, orgID string, typeID int, req CreateVariantRequest) (*PlanVariant, error)
	ListVariants(ctx context.Context, orgID string, typeID int, activeOnly bool) ([]PlanVariant, error)
	UpdateVariant(ctx context.Context, orgID string, typeID, id int, req UpdateVariantRequest) (*PlanVariant, error)
	DeactivateVariant(ctx context.Context, orgID string, typeID, id int) error
	DeleteVariant(ctx context.Context, orgID string, typeID, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateType(ctx context.Context, orgID string, req CreateTypeRequest) (*PlanType, error) {
	if !req.Category.Valid() {
		return nil, api.BadRequest("category must be membership or training")
	}
	return s.repo.CreateType(ctx, orgID, req)
}

func (s *service) GetType(ctx context.Context, orgID string, id int) (*PlanTypeWithVariants, error) {
	t, err := s.repo.GetType(ctx, orgID, id)
	if err != nil {
		return nil, notFound(err, ErrPlanTypeNotFound)
	}

	variants, err := s.repo.ListVariants(ctx, orgID, id, false)
	if err != nil {
		return nil, err
	}
	return &PlanTypeWithVariants{PlanType: *t, Variants: variants}, nil
}

func (s *service) ListTypes(ctx context.Context, orgID string, f TypeFilter) ([]PlanType, error) {
	if f.Category != "" && !f.Category.Valid() {
		return nil, api.BadRequest("category must be membership or training")
	}
	return s.repo.ListTypes(ctx, orgID, f)
}

func (s *service) UpdateType(ctx context.Context, orgID string, id int, req UpdateTypeRequest) (*PlanType, error) {
	if req.Category != nil && !req.Category.Valid() {
		return nil, api.BadRequest("category must be membership or training")
	}
	t, err := s.repo.UpdateType(ctx, orgID, id, req)
	if err != nil {
		return nil, notFound(err, ErrPlanTypeNotFound)
	}
	return t, nil
}

// DeactivateType hides a type from new purchases. Subscriptions already
// created keep their snapshotted price and dates.
func (s *service) DeactivateType(ctx context.Context, orgID string, id int) error {
	if err := s.repo.SetTypeActive(ctx, orgID, id, false); err != nil {
		return notFound(err, ErrPlanTypeNotFound)
	}
	logger.Info("plan type deactivated", "org_id", orgID, "plan_type_id", id)
	return nil
}

func (s *service) CreateVariant(ctx context.Context, orgID string, typeID int, req CreateVariantRequest) (*PlanVariant, error) {
	t, err := s.repo.GetType(ctx, orgID, typeID)
	if err != nil {
		return nil, notFound(err, ErrPlanTypeNotFound)
	}
	if !t.IsActive {
		return nil, ErrPlanTypeInactive
	}

	label, err := ResolveLabel(req.DurationDays, req.DurationLabel)
	if err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, ErrNegativePrice
	}

	return s.repo.CreateVariant(ctx, orgID, PlanVariant{
		PlanTypeID:    typeID,
		DurationDays:  req.DurationDays,
		DurationLabel: label,
		Price:         req.Price.Round(2),
	})
}

func (s *service) ListVariants(ctx context.Context, orgID string, typeID int, activeOnly bool) ([]PlanVariant, error) {
	if _, err := s.repo.GetType(ctx, orgID, typeID); err != nil {
		return nil, notFound(err, ErrPlanTypeNotFound)
	}
	return s.repo.ListVariants(ctx, orgID, typeID, activeOnly)
}

// UpdateVariant re-validates the duration/label pair as a whole: changing
// either side must leave a consistent pair behind.
func (s *service) UpdateVariant(ctx context.Context, orgID string, typeID, id int, req UpdateVariantRequest) (*PlanVariant, error) {
	current, err := s.repo.GetVariant(ctx, orgID, typeID, id)
	if err != nil {
		return nil, notFound(err, ErrPlanVariantNotFound)
	}

	var upd VariantUpdate

	if req.DurationDays != nil || req.DurationLabel != nil {
		days := current.DurationDays
		if req.DurationDays != nil {
			days = *req.DurationDays
		}

		label := ""
		switch {
		case req.DurationLabel != nil:
			label = *req.DurationLabel
		case days == current.DurationDays:
			label = current.DurationLabel
		}

		resolved, err := ResolveLabel(days, label)
		if err != nil {
			return nil, err
		}
		upd.DurationDays = &days
		upd.DurationLabel = &resolved
	}

	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrNegativePrice
		}
		p := req.Price.Round(2)
		upd.Price = &p
	}

	v, err := s.repo.UpdateVariant(ctx, orgID, typeID, id, upd)
	if err != nil {
		return nil, notFound(err, ErrPlanVariantNotFound)
	}

	if req.Price != nil && !current.Price.Equal(v.Price) {
		logger.Info("plan variant repriced",
			"plan_variant_id", id,
			"old_price", current.Price.StringFixed(2),
			"new_price", v.Price.StringFixed(2),
		)
	}
	return v, nil
}

func (s *service) DeactivateVariant(ctx context.Context, orgID string, typeID, id int) error {
	if err := s.repo.SetVariantActive(ctx, orgID, typeID, id, false); err != nil {
		return notFound(err, ErrPlanVariantNotFound)
	}
	return nil
}

func (s *service) DeleteVariant(ctx context.Context, orgID string, typeID, id int) error {
	err := s.repo.DeleteVariant(ctx, orgID, typeID, id)
	if db.IsCode(err, db.CodeForeignKeyViolation) {
		return ErrVariantInUse
	}
	if err != nil {
		return notFound(err, ErrPlanVariantNotFound)
	}
	return nil
}

// notFound maps sql.ErrNoRows to the given sentinel and wraps anything else.
func notFound(err error, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("plan catalog: %w", err)
}
