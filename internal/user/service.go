package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"
	"gymdesk/internal/logger"
)

var (
	ErrUserNotFound    = api.NotFound("user not found")
	ErrMemberNotFound  = api.NotFound("member not found")
	ErrMemberHasOpen   = api.Conflict("member has active or frozen subscriptions; cancel them first")
	ErrInvalidDate     = api.BadRequest("dates must use the YYYY-MM-DD format")
	ErrMissingIdentity = api.Unauthorized("token has no subject")
)

type Service interface {
	Sync(ctx context.Context, orgID string, claims *auth.Claims) (*User, error)
	Me(ctx context.Context, orgID string, userID int) (*User, error)
	ResolveProfile(ctx context.Context, orgID, externalID string) (auth.Profile, bool, error)

	CreateMember(ctx context.Context, orgID string, req CreateMemberRequest) (*User, error)
	GetMember(ctx context.Context, orgID string, id int) (*User, error)
	ListMembers(ctx context.Context, orgID string, f MemberFilter) ([]User, int, error)
	UpdateMember(ctx context.Context, orgID string, id int, req UpdateMemberRequest) (*User, error)
	DeleteMember(ctx context.Context, orgID string, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Sync creates or refreshes the local profile of the token's subject.
func (s *service) Sync(ctx context.Context, orgID string, claims *auth.Claims) (*User, error) {
	if claims == nil || claims.Subject == "" {
		return nil, ErrMissingIdentity
	}

	role := claims.Role
	switch role {
	case auth.RoleAdmin, auth.RoleStaff, auth.RoleMember:
	default:
		role = auth.RoleMember
	}

	first := strings.TrimSpace(claims.GivenName)
	if first == "" {
		first, _, _ = strings.Cut(claims.Email, "@")
	}
	if first == "" {
		first = "Member"
	}

	u, err := s.repo.Upsert(ctx, orgID, SyncProfile{
		ExternalID: claims.Subject,
		Role:       role,
		FirstName:  first,
		LastName:   strings.TrimSpace(claims.FamilyName),
		Email:      claims.Email,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("user profile synced", "org_id", orgID, "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *service) Me(ctx context.Context, orgID string, userID int) (*User, error) {
	u, err := s.repo.FindByID(ctx, orgID, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// ResolveProfile implements auth.ProfileResolver.
func (s *service) ResolveProfile(ctx context.Context, orgID, externalID string) (auth.Profile, bool, error) {
	u, err := s.repo.FindByExternalID(ctx, orgID, externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Profile{}, false, nil
	}
	if err != nil {
		return auth.Profile{}, false, fmt.Errorf("resolve profile: %w", err)
	}
	return auth.Profile{UserID: u.ID, Role: u.Role}, true, nil
}

func (s *service) CreateMember(ctx context.Context, orgID string, req CreateMemberRequest) (*User, error) {
	f := MemberFields{
		FirstName: &req.FirstName,
		LastName:  &req.LastName,
		Email:     &req.Email,
		Phone:     &req.Phone,
		Gender:    &req.Gender,
		Notes:     &req.Notes,
	}

	var err error
	if f.DateOfBirth, err = parseDate(req.DateOfBirth); err != nil {
		return nil, err
	}
	if f.JoinDate, err = parseDate(req.JoinDate); err != nil {
		return nil, err
	}

	return s.repo.CreateMember(ctx, orgID, f)
}

func (s *service) GetMember(ctx context.Context, orgID string, id int) (*User, error) {
	u, err := s.repo.FindMember(ctx, orgID, id)
	if err != nil {
		return nil, notFound(err, ErrMemberNotFound)
	}
	return u, nil
}

func (s *service) ListMembers(ctx context.Context, orgID string, f MemberFilter) ([]User, int, error) {
	f.Search = strings.TrimSpace(f.Search)
	return s.repo.ListMembers(ctx, orgID, f)
}

func (s *service) UpdateMember(ctx context.Context, orgID string, id int, req UpdateMemberRequest) (*User, error) {
	if req.IsActive != nil && !*req.IsActive {
		if err := s.ensureNoOpenSubscriptions(ctx, orgID, id); err != nil {
			return nil, err
		}
	}

	f := MemberFields{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Gender:    req.Gender,
		Notes:     req.Notes,
		IsActive:  req.IsActive,
	}
	var err error
	if f.DateOfBirth, err = parseDate(req.DateOfBirth); err != nil {
		return nil, err
	}

	u, err := s.repo.UpdateMember(ctx, orgID, id, f)
	if err != nil {
		return nil, notFound(err, ErrMemberNotFound)
	}
	return u, nil
}

// DeleteMember deactivates a member. History stays referenced, so rows are
// never removed.
func (s *service) DeleteMember(ctx context.Context, orgID string, id int) error {
	if _, err := s.GetMember(ctx, orgID, id); err != nil {
		return err
	}
	if err := s.ensureNoOpenSubscriptions(ctx, orgID, id); err != nil {
		return err
	}

	inactive := false
	if _, err := s.repo.UpdateMember(ctx, orgID, id, MemberFields{IsActive: &inactive}); err != nil {
		return notFound(err, ErrMemberNotFound)
	}

	logger.Info("member deactivated", "org_id", orgID, "member_id", id)
	return nil
}

func (s *service) ensureNoOpenSubscriptions(ctx context.Context, orgID string, id int) error {
	open, err := s.repo.HasOpenSubscriptions(ctx, orgID, id)
	if err != nil {
		return err
	}
	if open {
		return ErrMemberHasOpen
	}
	return nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", *s, time.UTC)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &t, nil
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("users: %w", err)
}
