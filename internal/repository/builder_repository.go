package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cofound/internal/database"
	"cofound/internal/domain"
	"cofound/internal/domain/builder"
	"cofound/internal/domain/opening"
)

type PostgresBuilderRepository struct {
	db database.DB
}

func NewPostgresBuilderRepository(db database.DB) *PostgresBuilderRepository {
	return &PostgresBuilderRepository{db: db}
}

const builderColumns = `user_id, skills, risk_appetite, compensation_openness,
	desired_equity_min, desired_equity_max, desired_cash_min, desired_cash_max,
	hours_per_week, role_interests, remote_preference, subscription_tier, is_complete, updated_at`

func scanProfile(s scanner) (builder.Profile, error) {
	var (
		p      builder.Profile
		risk   string
		comp   []string
		remote string
		tier   string
	)
	err := s.Scan(
		&p.UserID, &p.Skills, &risk, &comp,
		&p.DesiredEquity.Min, &p.DesiredEquity.Max, &p.DesiredCash.Min, &p.DesiredCash.Max,
		&p.HoursPerWeek, &p.RoleInterests, &remote, &tier, &p.IsComplete, &p.UpdatedAt,
	)
	if err != nil {
		return builder.Profile{}, err
	}
	p.RiskAppetite = builder.RiskAppetite(risk)
	p.CompensationOpenness = make([]builder.Compensation, 0, len(comp))
	for _, c := range comp {
		p.CompensationOpenness = append(p.CompensationOpenness, builder.Compensation(c))
	}
	p.RemotePreference = opening.RemotePreference(remote)
	p.SubscriptionTier = builder.SubscriptionTier(tier)
	return p, nil
}

func (r *PostgresBuilderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (builder.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+builderColumns+` FROM builder_profiles WHERE user_id = $1`, userID))
	if err != nil {
		return builder.Profile{}, notFound(err, domain.ErrProfileNotFound, "get builder profile")
	}
	return p, nil
}

func (r *PostgresBuilderRepository) ListComplete(ctx context.Context, limit, offset int) ([]builder.Profile, error) {
	limit = clampLimit(limit, 500, 5000)
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+builderColumns+` FROM builder_profiles
		 WHERE is_complete
		 ORDER BY user_id
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list builder profiles: %w", err)
	}
	return collect(rows, scanProfile)
}
