package interest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusInterested  Status = "INTERESTED"
	StatusShortlisted Status = "SHORTLISTED"
	StatusPassed      Status = "PASSED"
	StatusWithdrawn   Status = "WITHDRAWN"
)

func (s Status) Terminal() bool {
	return s != StatusInterested
}

type Interest struct {
	ID             uuid.UUID
	BuilderID      uuid.UUID
	OpeningID      uuid.UUID
	FounderID      uuid.UUID
	Status         Status
	IsMutualMatch  bool
	Note           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ShortlistedAt  *time.Time
	PassedAt       *time.Time
	WithdrawnAt    *time.Time
	MatchedAt      *time.Time
	ConversationID *uuid.UUID
}

type MatchFilter struct {
	FounderID uuid.UUID
	BuilderID uuid.UUID
}

type Repository interface {
	// CreateWithinQuota inserts i unless (builder, opening) already has an interest
	// or the builder has created limit interests since the given instant.
	CreateWithinQuota(ctx context.Context, i Interest, since time.Time, limit int) (Interest, error)
	GetByID(ctx context.Context, id uuid.UUID) (Interest, error)
	// Update applies fn to the locked row and persists the result.
	Update(ctx context.Context, id uuid.UUID, fn func(*Interest) error) (Interest, error)
	CountCreatedSince(ctx context.Context, builderID uuid.UUID, since time.Time) (int, error)
	ListMutualMatches(ctx context.Context, f MatchFilter) ([]Interest, error)
	ListByOpening(ctx context.Context, openingID uuid.UUID, status *Status) ([]Interest, error)
	ListByBuilder(ctx context.Context, builderID uuid.UUID) ([]Interest, error)
}
