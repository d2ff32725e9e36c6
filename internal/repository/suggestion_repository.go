package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cofound/internal/database"
	"cofound/internal/domain/matching"
)

type PostgresSuggestionRepository struct {
	db database.DB
}

func NewPostgresSuggestionRepository(db database.DB) *PostgresSuggestionRepository {
	return &PostgresSuggestionRepository{db: db}
}

func (r *PostgresSuggestionRepository) ReplaceForOpening(ctx context.Context, openingID uuid.UUID, s []matching.Suggestion) error {
	return database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM match_suggestions WHERE opening_id = $1`, openingID); err != nil {
			return fmt.Errorf("clear suggestions: %w", err)
		}
		for _, v := range s {
			b := v.Result.Breakdown
			if _, err := tx.Exec(ctx,
				`INSERT INTO match_suggestions
					(opening_id, builder_id, overall, skills, compensation, commitment, scenario, geography, tier, generated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				openingID, v.BuilderID, v.Result.Overall,
				b.Skills, b.Compensation, b.Commitment, b.Scenario, b.Geography,
				string(v.Result.Tier), v.GeneratedAt,
			); err != nil {
				return fmt.Errorf("insert suggestion: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresSuggestionRepository) ListForOpening(ctx context.Context, openingID uuid.UUID, limit int) ([]matching.Suggestion, error) {
	rows, err := r.db.Query(ctx,
		`SELECT opening_id, builder_id, overall, skills, compensation, commitment, scenario, geography, tier, generated_at
		 FROM match_suggestions
		 WHERE opening_id = $1
		 ORDER BY overall DESC, builder_id
		 LIMIT $2`,
		openingID, clampLimit(limit, 20, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	return collect(rows, func(s scanner) (matching.Suggestion, error) {
		var (
			v    matching.Suggestion
			tier string
		)
		b := &v.Result.Breakdown
		if err := s.Scan(&v.OpeningID, &v.BuilderID, &v.Result.Overall,
			&b.Skills, &b.Compensation, &b.Commitment, &b.Scenario, &b.Geography, &tier, &v.GeneratedAt); err != nil {
			return matching.Suggestion{}, err
		}
		v.Result.Tier = matching.Tier(tier)
		return v, nil
	})
}
