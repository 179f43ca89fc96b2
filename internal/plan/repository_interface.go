package plan

import "context"

type Repository interface {
	CreateType(ctx context.Context, orgID string, req CreateTypeRequest) (*PlanType, error)
	GetType(ctx context.Context, orgID string, id int) (*PlanType, error)
	ListTypes(ctx context.Context, orgID string, f TypeFilter) ([]PlanType, error)
	UpdateType(ctx context.Context, orgID string, id int, req UpdateTypeRequest) (*PlanType, error)
	SetTypeActive(ctx context.Context, orgID string, id int, active bool) error

	CreateVariant(ctx context.Context, orgID string, v PlanVariant) (*PlanVariant, error)
	GetVariant(ctx context.Context, orgID string, typeID, id int) (*PlanVariant, error)
	GetVariantDetail(ctx context.Context, orgID string, id int) (*VariantDetail, error)
	ListVariants(ctx context.Context, orgID string, typeID int, activeOnly bool) ([]PlanVariant, error)
	UpdateVariant(ctx context.Context, orgID string, typeID, id int, upd VariantUpdate) (*PlanVariant, error)
	SetVariantActive(ctx context.Context, orgID string, typeID, id int, active bool) error
	DeleteVariant(ctx context.Context, orgID string, typeID, id int) error
}
