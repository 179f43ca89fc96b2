package trainer

import "context"

type Repository interface {
	Create(ctx context.Context, orgID string, req CreateRequest) (*Trainer, error)
	Get(ctx context.Context, orgID string, id int) (*Trainer, error)
	List(ctx context.Context, orgID string, activeOnly bool) ([]Trainer, error)
	Update(ctx context.Context, orgID string, id int, req UpdateRequest) (*Trainer, error)
	Deactivate(ctx context.Context, orgID string, id int) error
	HasActiveTrainings(ctx context.Context, orgID string, id int) (bool, error)
}
