package trainer

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const org = "org_1"

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, orgID string, req CreateRequest) (*Trainer, error) {
	args := m.Called(ctx, orgID, req)
	t, _ := args.Get(0).(*Trainer)
	return t, args.Error(1)
}

func (m *MockRepository) Get(ctx context.Context, orgID string, id int) (*Trainer, error) {
	args := m.Called(ctx, orgID, id)
	t, _ := args.Get(0).(*Trainer)
	return t, args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, orgID string, activeOnly bool) ([]Trainer, error) {
	args := m.Called(ctx, orgID, activeOnly)
	t, _ := args.Get(0).([]Trainer)
	return t, args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, orgID string, id int, req UpdateRequest) (*Trainer, error) {
	args := m.Called(ctx, orgID, id, req)
	t, _ := args.Get(0).(*Trainer)
	return t, args.Error(1)
}

func (m *MockRepository) Deactivate(ctx context.Context, orgID string, id int) error {
	return m.Called(ctx, orgID, id).Error(0)
}

func (m *MockRepository) HasActiveTrainings(ctx context.Context, orgID string, id int) (bool, error) {
	args := m.Called(ctx, orgID, id)
	return args.Bool(0), args.Error(1)
}

func TestDeactivate(t *testing.T) {
	t.Run("idle trainer", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("HasActiveTrainings", mock.Anything, org, 2).Return(false, nil)
		repo.On("Deactivate", mock.Anything, org, 2).Return(nil)

		require.NoError(t, NewService(repo).Deactivate(context.Background(), org, 2))
		repo.AssertExpectations(t)
	})

	t.Run("busy trainer", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("HasActiveTrainings", mock.Anything, org, 2).Return(true, nil)

		err := NewService(repo).Deactivate(context.Background(), org, 2)
		assert.Equal(t, ErrTrainerBusy, err)
		repo.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown trainer", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("HasActiveTrainings", mock.Anything, org, 9).Return(false, nil)
		repo.On("Deactivate", mock.Anything, org, 9).Return(sql.ErrNoRows)

		assert.Equal(t, ErrTrainerNotFound, NewService(repo).Deactivate(context.Background(), org, 9))
	})
}

func TestGetAndUpdate_NotFound(t *testing.T) {
	repo := new(MockRepository)
	name := "Rita"
	repo.On("Get", mock.Anything, org, 5).Return(nil, sql.ErrNoRows)
	repo.On("Update", mock.Anything, org, 5, UpdateRequest{Name: &name}).Return(nil, sql.ErrNoRows)
	svc := NewService(repo)

	_, err := svc.Get(context.Background(), org, 5)
	assert.Equal(t, ErrTrainerNotFound, err)

	_, err = svc.Update(context.Background(), org, 5, UpdateRequest{Name: &name})
	assert.Equal(t, ErrTrainerNotFound, err)
}
