package user

import "time"

type User struct {
	ID          int        `db:"id" json:"id"`
	OrgID       string     `db:"org_id" json:"-"`
	ExternalID  *string    `db:"external_id" json:"externalId,omitempty"`
	Role        string     `db:"role" json:"role"`
	FirstName   string     `db:"first_name" json:"firstName"`
	LastName    string     `db:"last_name" json:"lastName"`
	Email       string     `db:"email" json:"email"`
	Phone       string     `db:"phone" json:"phone"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	Gender      string     `db:"gender" json:"gender"`
	JoinDate    time.Time  `db:"join_date" json:"joinDate"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	Notes       string     `db:"notes" json:"notes"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// SyncProfile is the identity-provider view of the caller.
type SyncProfile struct {
	ExternalID string
	Role       string
	FirstName  string
	LastName   string
	Email      string
}

type MemberFilter struct {
	Search string
	Active *bool
	Page   int
	Limit  int
}

type CreateMemberRequest struct {
	FirstName   string  `json:"firstName" binding:"required,max=100"`
	LastName    string  `json:"lastName" binding:"max=100"`
	Email       string  `json:"email" binding:"omitempty,email"`
	Phone       string  `json:"phone" binding:"max=40"`
	DateOfBirth *string `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	Gender      string  `json:"gender" binding:"omitempty,oneof=male female other"`
	JoinDate    *string `json:"joinDate" binding:"omitempty,datetime=2006-01-02"`
	Notes       string  `json:"notes" binding:"max=2000"`
}

type UpdateMemberRequest struct {
	FirstName   *string `json:"firstName" binding:"omitempty,min=1,max=100"`
	LastName    *string `json:"lastName" binding:"omitempty,max=100"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone" binding:"omitempty,max=40"`
	DateOfBirth *string `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	Gender      *string `json:"gender" binding:"omitempty,oneof=male female other"`
	Notes       *string `json:"notes" binding:"omitempty,max=2000"`
	IsActive    *bool   `json:"isActive"`
}

// MemberFields are parsed member columns. Nil pointers keep the stored
// value on update.
type MemberFields struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Phone       *string
	DateOfBirth *time.Time
	Gender      *string
	JoinDate    *time.Time
	Notes       *string
	IsActive    *bool
}
