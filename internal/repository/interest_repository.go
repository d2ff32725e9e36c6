package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cofound/internal/database"
	"cofound/internal/domain"
	"cofound/internal/domain/interest"
)

type PostgresInterestRepository struct {
	db database.DB
}

func NewPostgresInterestRepository(db database.DB) *PostgresInterestRepository {
	return &PostgresInterestRepository{db: db}
}

const interestColumns = `id, builder_id, opening_id, founder_id, status, is_mutual_match, note,
	created_at, updated_at, shortlisted_at, passed_at, withdrawn_at, matched_at, conversation_id`

func scanInterest(s scanner) (interest.Interest, error) {
	var (
		i      interest.Interest
		status string
	)
	err := s.Scan(
		&i.ID, &i.BuilderID, &i.OpeningID, &i.FounderID, &status, &i.IsMutualMatch, &i.Note,
		&i.CreatedAt, &i.UpdatedAt, &i.ShortlistedAt, &i.PassedAt, &i.WithdrawnAt, &i.MatchedAt, &i.ConversationID,
	)
	if err != nil {
		return interest.Interest{}, err
	}
	i.Status = interest.Status(status)
	return i, nil
}

// CreateWithinQuota serializes a builder's inserts on a transaction-scoped
// advisory lock so the duplicate check, the quota count and the insert see
// the same state. The unique (builder_id, opening_id) index backs the
// duplicate check for writers that bypass this path.
func (r *PostgresInterestRepository) CreateWithinQuota(ctx context.Context, i interest.Interest, since time.Time, limit int) (interest.Interest, error) {
	var out interest.Interest
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "interest:"+i.BuilderID.String()); err != nil {
			return fmt.Errorf("lock builder quota: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM interests WHERE builder_id = $1 AND opening_id = $2)`,
			i.BuilderID, i.OpeningID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check duplicate interest: %w", err)
		}
		if exists {
			return domain.ErrDuplicateInterest
		}

		var n int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM interests WHERE builder_id = $1 AND created_at >= $2`,
			i.BuilderID, since,
		).Scan(&n); err != nil {
			return fmt.Errorf("count interests: %w", err)
		}
		if n >= limit {
			return domain.ErrDailyLimitReached
		}

		created, err := scanInterest(tx.QueryRow(ctx,
			`INSERT INTO interests (id, builder_id, opening_id, founder_id, status, is_mutual_match, note, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $7)
			 RETURNING `+interestColumns,
			i.ID, i.BuilderID, i.OpeningID, i.FounderID, string(i.Status), i.Note, i.CreatedAt,
		))
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	switch {
	case database.IsUniqueViolation(err) && database.ConstraintName(err) == uniqueBuilderOpening:
		return interest.Interest{}, domain.ErrDuplicateInterest
	case database.IsForeignKeyViolation(err):
		return interest.Interest{}, domain.ErrOpeningNotFound
	case err != nil:
		return interest.Interest{}, err
	}
	return out, nil
}

func (r *PostgresInterestRepository) GetByID(ctx context.Context, id uuid.UUID) (interest.Interest, error) {
	i, err := scanInterest(r.db.QueryRow(ctx, `SELECT `+interestColumns+` FROM interests WHERE id = $1`, id))
	if err != nil {
		return interest.Interest{}, notFound(err, domain.ErrInterestNotFound, "get interest")
	}
	return i, nil
}

func (r *PostgresInterestRepository) Update(ctx context.Context, id uuid.UUID, fn func(*interest.Interest) error) (interest.Interest, error) {
	var out interest.Interest
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		i, err := scanInterest(tx.QueryRow(ctx, `SELECT `+interestColumns+` FROM interests WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound(err, domain.ErrInterestNotFound, "lock interest")
		}
		if err := fn(&i); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE interests SET status = $2, is_mutual_match = $3, updated_at = $4,
				shortlisted_at = $5, passed_at = $6, withdrawn_at = $7, matched_at = $8, conversation_id = $9
			 WHERE id = $1`,
			i.ID, string(i.Status), i.IsMutualMatch, i.UpdatedAt,
			i.ShortlistedAt, i.PassedAt, i.WithdrawnAt, i.MatchedAt, i.ConversationID,
		)
		if err != nil {
			return fmt.Errorf("update interest: %w", err)
		}
		out = i
		return nil
	})
	return out, err
}

func (r *PostgresInterestRepository) CountCreatedSince(ctx context.Context, builderID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM interests WHERE builder_id = $1 AND created_at >= $2`,
		builderID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count interests: %w", err)
	}
	return n, nil
}

func (r *PostgresInterestRepository) ListMutualMatches(ctx context.Context, f interest.MatchFilter) ([]interest.Interest, error) {
	where := []string{"is_mutual_match"}
	args := make([]any, 0, 2)
	if f.FounderID != uuid.Nil {
		args = append(args, f.FounderID)
		where = append(where, fmt.Sprintf("founder_id = $%d", len(args)))
	}
	if f.BuilderID != uuid.Nil {
		args = append(args, f.BuilderID)
		where = append(where, fmt.Sprintf("builder_id = $%d", len(args)))
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+interestColumns+` FROM interests
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY matched_at DESC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list mutual matches: %w", err)
	}
	return collect(rows, scanInterest)
}

func (r *PostgresInterestRepository) ListByOpening(ctx context.Context, openingID uuid.UUID, status *interest.Status) ([]interest.Interest, error) {
	var filter *string
	if status != nil {
		s := string(*status)
		filter = &s
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+interestColumns+` FROM interests
		 WHERE opening_id = $1 AND ($2::text IS NULL OR status = $2)
		 ORDER BY created_at DESC`,
		openingID, filter,
	)
	if err != nil {
		return nil, fmt.Errorf("list opening interests: %w", err)
	}
	return collect(rows, scanInterest)
}

func (r *PostgresInterestRepository) ListByBuilder(ctx context.Context, builderID uuid.UUID) ([]interest.Interest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+interestColumns+` FROM interests WHERE builder_id = $1 ORDER BY created_at DESC`,
		builderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list builder interests: %w", err)
	}
	return collect(rows, scanInterest)
}
