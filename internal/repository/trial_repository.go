package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cofound/internal/database"
	"cofound/internal/domain"
	"cofound/internal/domain/trial"
)

type PostgresTrialRepository struct {
	db database.DB
}

func NewPostgresTrialRepository(db database.DB) *PostgresTrialRepository {
	return &PostgresTrialRepository{db: db}
}

const trialColumns = `id, conversation_id, founder_id, builder_id, proposed_by, duration_days, goal,
	checkin_frequency, status, declined, proposed_at, accepted_at, ends_at, completed_at,
	cancelled_at, cancelled_by, cancel_reason, founder_feedback, builder_feedback, outcome, updated_at`

func scanTrial(s scanner) (trial.Trial, error) {
	var (
		t       trial.Trial
		freq    string
		status  string
		outcome string
	)
	err := s.Scan(
		&t.ID, &t.ConversationID, &t.FounderID, &t.BuilderID, &t.ProposedBy, &t.DurationDays, &t.Goal,
		&freq, &status, &t.Declined, &t.ProposedAt, &t.AcceptedAt, &t.EndsAt, &t.CompletedAt,
		&t.CancelledAt, &t.CancelledBy, &t.CancelReason, &t.FounderFeedback, &t.BuilderFeedback, &outcome, &t.UpdatedAt,
	)
	if err != nil {
		return trial.Trial{}, err
	}
	t.CheckinFrequency = trial.CheckinFrequency(freq)
	t.Status = trial.Status(status)
	t.Outcome = trial.Outcome(outcome)
	return t, nil
}

func (r *PostgresTrialRepository) Create(ctx context.Context, t trial.Trial) (trial.Trial, error) {
	out, err := scanTrial(r.db.QueryRow(ctx,
		`INSERT INTO trials (id, conversation_id, founder_id, builder_id, proposed_by, duration_days, goal,
			checkin_frequency, status, proposed_at, outcome, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $10)
		 RETURNING `+trialColumns,
		t.ID, t.ConversationID, t.FounderID, t.BuilderID, t.ProposedBy, t.DurationDays, t.Goal,
		string(t.CheckinFrequency), string(t.Status), t.ProposedAt, string(t.Outcome),
	))
	switch {
	case database.IsUniqueViolation(err) && database.ConstraintName(err) == uniqueLiveTrial:
		return trial.Trial{}, domain.ErrLiveTrialExists
	case database.IsForeignKeyViolation(err):
		return trial.Trial{}, domain.ErrConversationNotFound
	case err != nil:
		return trial.Trial{}, fmt.Errorf("create trial: %w", err)
	}
	return out, nil
}

func (r *PostgresTrialRepository) GetByID(ctx context.Context, id uuid.UUID) (trial.Trial, error) {
	t, err := scanTrial(r.db.QueryRow(ctx, `SELECT `+trialColumns+` FROM trials WHERE id = $1`, id))
	if err != nil {
		return trial.Trial{}, notFound(err, domain.ErrTrialNotFound, "get trial")
	}
	return t, nil
}

// Update holds the row lock across fn, so two accepts or two same-side
// feedback writes serialize and the second observes the first's result.
func (r *PostgresTrialRepository) Update(ctx context.Context, id uuid.UUID, fn func(*trial.Trial) error) (trial.Trial, error) {
	var out trial.Trial
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		t, err := scanTrial(tx.QueryRow(ctx, `SELECT `+trialColumns+` FROM trials WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound(err, domain.ErrTrialNotFound, "lock trial")
		}
		if err := fn(&t); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE trials SET status = $2, declined = $3, accepted_at = $4, ends_at = $5, completed_at = $6,
				cancelled_at = $7, cancelled_by = $8, cancel_reason = $9,
				founder_feedback = $10, builder_feedback = $11, outcome = $12, updated_at = $13
			 WHERE id = $1`,
			t.ID, string(t.Status), t.Declined, t.AcceptedAt, t.EndsAt, t.CompletedAt,
			t.CancelledAt, t.CancelledBy, t.CancelReason,
			t.FounderFeedback, t.BuilderFeedback, string(t.Outcome), t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update trial: %w", err)
		}
		out = t
		return nil
	})
	return out, err
}

func (r *PostgresTrialRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]trial.Trial, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+trialColumns+` FROM trials WHERE conversation_id = $1 ORDER BY proposed_at DESC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversation trials: %w", err)
	}
	return collect(rows, scanTrial)
}

func (r *PostgresTrialRepository) ListActiveEndingBefore(ctx context.Context, before time.Time) ([]trial.Trial, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+trialColumns+` FROM trials
		 WHERE status = 'ACTIVE' AND ends_at <= $1
		 ORDER BY ends_at`,
		before,
	)
	if err != nil {
		return nil, fmt.Errorf("list ending trials: %w", err)
	}
	return collect(rows, scanTrial)
}
