package trainer

import "time"

type Trainer struct {
	ID             int       `db:"id" json:"id"`
	OrgID          string    `db:"org_id" json:"-"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email,omitempty"`
	Phone          string    `db:"phone" json:"phone,omitempty"`
	Specialization string    `db:"specialization" json:"specialization,omitempty"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateRequest struct {
	Name           string `json:"name" binding:"required,max=150"`
	Email          string `json:"email" binding:"omitempty,email"`
	Phone          string `json:"phone" binding:"max=40"`
	Specialization string `json:"specialization" binding:"max=150"`
}

type UpdateRequest struct {
	Name           *string `json:"name" binding:"omitempty,min=1,max=150"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Phone          *string `json:"phone" binding:"omitempty,max=40"`
	Specialization *string `json:"specialization" binding:"omitempty,max=150"`
}
