package repository

import (
	"errors"
	"fmt"

	"cofound/internal/database"
)

// Constraint names from the migrations that map to domain conflicts.
const (
	uniqueBuilderOpening = "uq_interests_builder_opening"
	uniqueLiveTrial      = "uq_trials_live_conversation"
)

// scanner is satisfied by both database.Row and database.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// notFound maps a missing row to the given domain error and wraps anything else.
func notFound(err error, missing error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, database.ErrNoRows) {
		return missing
	}
	return fmt.Errorf("%s: %w", op, err)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func collect[T any](rows database.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
