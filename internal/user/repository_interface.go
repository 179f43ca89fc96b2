package user

import "context"

type Repository interface {
	Upsert(ctx context.Context, orgID string, p SyncProfile) (*User, error)
	FindByExternalID(ctx context.Context, orgID, externalID string) (*User, error)
	FindByID(ctx context.Context, orgID string, id int) (*User, error)

	CreateMember(ctx context.Context, orgID string, f MemberFields) (*User, error)
	FindMember(ctx context.Context, orgID string, id int) (*User, error)
	ListMembers(ctx context.Context, orgID string, f MemberFilter) ([]User, int, error)
	UpdateMember(ctx context.Context, orgID string, id int, f MemberFields) (*User, error)
	HasOpenSubscriptions(ctx context.Context, orgID string, memberID int) (bool, error)
}
