package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Suggestion is one persisted (opening, builder) score from a generation run.
type Suggestion struct {
	OpeningID   uuid.UUID
	BuilderID   uuid.UUID
	Result      Result
	GeneratedAt time.Time
}

type SuggestionRepository interface {
	// ReplaceForOpening swaps the opening's previous suggestions for s atomically.
	ReplaceForOpening(ctx context.Context, openingID uuid.UUID, s []Suggestion) error
	ListForOpening(ctx context.Context, openingID uuid.UUID, limit int) ([]Suggestion, error)
}
