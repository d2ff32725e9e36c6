package opening

import (
	"context"

	"github.com/google/uuid"
)

type Counter string

const (
	CounterInterests Counter = "interest_count"
	CounterViews     Counter = "view_count"
)

type Repository interface {
	Create(ctx context.Context, o Opening) (Opening, error)
	GetByID(ctx context.Context, id uuid.UUID) (Opening, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Opening, error)
	ListByFounder(ctx context.Context, founderID uuid.UUID) ([]Opening, error)
	// Update applies fn to the locked row and persists the result.
	Update(ctx context.Context, id uuid.UUID, fn func(*Opening) error) (Opening, error)
	Increment(ctx context.Context, id uuid.UUID, c Counter, delta int) error
}
