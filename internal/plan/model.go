package plan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMembership Category = "membership"
	CategoryTraining   Category = "training"
)

func (c Category) Valid() bool {
	return c == CategoryMembership || c == CategoryTraining
}

type PlanType struct {
	ID          int       `db:"id" json:"id"`
	OrgID       string    `db:"org_id" json:"-"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Category    Category  `db:"category" json:"category"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type PlanTypeWithVariants struct {
	PlanType
	Variants []PlanVariant `json:"variants"`
}

type PlanVariant struct {
	ID            int             `db:"id" json:"id"`
	OrgID         string          `db:"org_id" json:"-"`
	PlanTypeID    int             `db:"plan_type_id" json:"planTypeId"`
	DurationDays  int             `db:"duration_days" json:"durationDays"`
	DurationLabel string          `db:"duration_label" json:"durationLabel"`
	Price         decimal.Decimal `db:"price" json:"price"`
	IsActive      bool            `db:"is_active" json:"isActive"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// VariantDetail is a variant joined with its owning type, used when a
// variant is about to be purchased.
type VariantDetail struct {
	PlanVariant
	PlanTypeName     string   `db:"plan_type_name" json:"planTypeName"`
	PlanTypeCategory Category `db:"plan_type_category" json:"planTypeCategory"`
	PlanTypeActive   bool     `db:"plan_type_active" json:"planTypeActive"`
}

type TypeFilter struct {
	Category   Category
	ActiveOnly bool
}

type CreateTypeRequest struct {
	Name        string   `json:"name" binding:"required,max=120"`
	Description string   `json:"description" binding:"max=2000"`
	Category    Category `json:"category" binding:"required,oneof=membership training"`
}

type UpdateTypeRequest struct {
	Name        *string   `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string   `json:"description" binding:"omitempty,max=2000"`
	Category    *Category `json:"category" binding:"omitempty,oneof=membership training"`
}

type CreateVariantRequest struct {
	DurationDays  int             `json:"durationDays" binding:"required,gt=0"`
	DurationLabel string          `json:"durationLabel" binding:"max=60"`
	Price         decimal.Decimal `json:"price"`
}

type UpdateVariantRequest struct {
	DurationDays  *int             `json:"durationDays" binding:"omitempty,gt=0"`
	DurationLabel *string          `json:"durationLabel" binding:"omitempty,max=60"`
	Price         *decimal.Decimal `json:"price"`
}

// VariantUpdate holds the validated column values; nil leaves a column as is.
type VariantUpdate struct {
	DurationDays  *int
	DurationLabel *string
	Price         *decimal.Decimal
}
