package trainer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymdesk/internal/api"
	"gymdesk/internal/logger"
)

var (
	ErrTrainerNotFound = api.NotFound("trainer not found")
	ErrTrainerBusy     = api.Conflict("trainer has active trainings; reassign or cancel them first")
)

type Service interface {
	Create(ctx context.Context, orgID string, req CreateRequest) (*Trainer, error)
	Get(ctx context.Context, orgID string, id int) (*Trainer, error)
	List(ctx context.Context, orgID string, activeOnly bool) ([]Trainer, error)
	Update(ctx context.Context, orgID string, id int, req UpdateRequest) (*Trainer, error)
	Deactivate(ctx context.Context, orgID string, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, orgID string, req CreateRequest) (*Trainer, error) {
	return s.repo.Create(ctx, orgID, req)
}

func (s *service) Get(ctx context.Context, orgID string, id int) (*Trainer, error) {
	t, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (s *service) List(ctx context.Context, orgID string, activeOnly bool) ([]Trainer, error) {
	return s.repo.List(ctx, orgID, activeOnly)
}

func (s *service) Update(ctx context.Context, orgID string, id int, req UpdateRequest) (*Trainer, error) {
	t, err := s.repo.Update(ctx, orgID, id, req)
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (s *service) Deactivate(ctx context.Context, orgID string, id int) error {
	busy, err := s.repo.HasActiveTrainings(ctx, orgID, id)
	if err != nil {
		return err
	}
	if busy {
		return ErrTrainerBusy
	}

	if err := s.repo.Deactivate(ctx, orgID, id); err != nil {
		return notFound(err)
	}
	logger.Info("trainer deactivated", "org_id", orgID, "trainer_id", id)
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTrainerNotFound
	}
	return fmt.Errorf("trainers: %w", err)
}
