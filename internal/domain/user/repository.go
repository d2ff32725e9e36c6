package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]User, error)
}

type StatsRepository interface {
	Increment(ctx context.Context, userID uuid.UUID, field StatField, delta int) error
	Get(ctx context.Context, userID uuid.UUID) (Stats, error)
}
