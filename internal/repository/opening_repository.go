package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"cofound/internal/database"
	"cofound/internal/domain"
	"cofound/internal/domain/opening"
)

type PostgresOpeningRepository struct {
	db database.DB
}

func NewPostgresOpeningRepository(db database.DB) *PostgresOpeningRepository {
	return &PostgresOpeningRepository{db: db}
}

const openingColumns = `id, founder_id, title, role_type, required_skills, preferred_skills,
	equity_min, equity_max, cash_min, cash_max, hours_per_week, remote_preference,
	status, filled_by, interest_count, view_count, created_at, updated_at`

func scanOpening(s scanner) (opening.Opening, error) {
	var (
		o      opening.Opening
		remote string
		status string
	)
	err := s.Scan(
		&o.ID, &o.FounderID, &o.Title, &o.RoleType, &o.RequiredSkills, &o.PreferredSkills,
		&o.Equity.Min, &o.Equity.Max, &o.Cash.Min, &o.Cash.Max, &o.HoursPerWeek, &remote,
		&status, &o.FilledBy, &o.InterestCount, &o.ViewCount, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return opening.Opening{}, err
	}
	o.RemotePreference = opening.RemotePreference(remote)
	o.Status = opening.Status(status)
	return o, nil
}

func (r *PostgresOpeningRepository) Create(ctx context.Context, o opening.Opening) (opening.Opening, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO openings (id, founder_id, title, role_type, required_skills, preferred_skills,
			equity_min, equity_max, cash_min, cash_max, hours_per_week, remote_preference,
			status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		 RETURNING `+openingColumns,
		o.ID, o.FounderID, o.Title, o.RoleType, nonNil(o.RequiredSkills), nonNil(o.PreferredSkills),
		o.Equity.Min, o.Equity.Max, o.Cash.Min, o.Cash.Max, o.HoursPerWeek, string(o.RemotePreference),
		string(o.Status), o.CreatedAt,
	)
	out, err := scanOpening(row)
	if err != nil {
		return opening.Opening{}, fmt.Errorf("create opening: %w", err)
	}
	return out, nil
}

func (r *PostgresOpeningRepository) GetByID(ctx context.Context, id uuid.UUID) (opening.Opening, error) {
	o, err := scanOpening(r.db.QueryRow(ctx, `SELECT `+openingColumns+` FROM openings WHERE id = $1`, id))
	if err != nil {
		return opening.Opening{}, notFound(err, domain.ErrOpeningNotFound, "get opening")
	}
	return o, nil
}

func (r *PostgresOpeningRepository) ListByStatus(ctx context.Context, status opening.Status, limit, offset int) ([]opening.Opening, error) {
	limit = clampLimit(limit, 100, 1000)
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+openingColumns+` FROM openings
		 WHERE status = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2 OFFSET $3`,
		string(status), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list openings: %w", err)
	}
	return collect(rows, scanOpening)
}

func (r *PostgresOpeningRepository) ListByFounder(ctx context.Context, founderID uuid.UUID) ([]opening.Opening, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+openingColumns+` FROM openings WHERE founder_id = $1 ORDER BY created_at DESC`,
		founderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list founder openings: %w", err)
	}
	return collect(rows, scanOpening)
}

func (r *PostgresOpeningRepository) Update(ctx context.Context, id uuid.UUID, fn func(*opening.Opening) error) (opening.Opening, error) {
	var out opening.Opening
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		o, err := scanOpening(tx.QueryRow(ctx, `SELECT `+openingColumns+` FROM openings WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound(err, domain.ErrOpeningNotFound, "lock opening")
		}
		if err := fn(&o); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE openings SET status = $2, filled_by = $3, updated_at = $4 WHERE id = $1`,
			o.ID, string(o.Status), o.FilledBy, o.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update opening: %w", err)
		}
		out = o
		return nil
	})
	return out, err
}

func (r *PostgresOpeningRepository) Increment(ctx context.Context, id uuid.UUID, c opening.Counter, delta int) error {
	var col string
	switch c {
	case opening.CounterInterests, opening.CounterViews:
		col = string(c)
	default:
		return fmt.Errorf("increment opening counter %q: %w", c, domain.ErrInvalidInput)
	}
	n, err := r.db.Exec(ctx, `UPDATE openings SET `+col+` = `+col+` + $2 WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("increment %s: %w", col, err)
	}
	if n == 0 {
		return domain.ErrOpeningNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
