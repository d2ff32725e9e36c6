package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"cofound/internal/database"
	"cofound/internal/domain"
	"cofound/internal/domain/user"
)

type PostgresUserRepository struct {
	db database.DB
}

func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, email, role, display_name, avatar_url, created_at, updated_at`

func scanUser(s scanner) (user.User, error) {
	var u user.User
	var role string
	if err := s.Scan(&u.ID, &u.Email, &role, &u.DisplayName, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return user.User{}, err
	}
	u.Role = user.Role(role)
	return u, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return user.User{}, notFound(err, domain.ErrUserNotFound, "get user")
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]user.User, error) {
	out := make(map[uuid.UUID]user.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	users, err := collect(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

type PostgresStatsRepository struct {
	db database.DB
}

func NewPostgresStatsRepository(db database.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

// Increment is a single upsert so concurrent writers never lose updates.
func (r *PostgresStatsRepository) Increment(ctx context.Context, userID uuid.UUID, field user.StatField, delta int) error {
	if !field.Valid() {
		return fmt.Errorf("increment stat %q: %w", field, domain.ErrInvalidInput)
	}
	col := string(field)
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_stats (user_id, `+col+`) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET `+col+` = user_stats.`+col+` + EXCLUDED.`+col,
		userID, delta,
	)
	if err != nil {
		return fmt.Errorf("increment stat %s: %w", col, err)
	}
	return nil
}

func (r *PostgresStatsRepository) Get(ctx context.Context, userID uuid.UUID) (user.Stats, error) {
	s := user.Stats{UserID: userID}
	err := r.db.QueryRow(ctx,
		`SELECT interests_sent, interests_received, shortlists, matches, trials_completed
		 FROM user_stats WHERE user_id = $1`,
		userID,
	).Scan(&s.InterestsSent, &s.InterestsReceived, &s.Shortlists, &s.Matches, &s.TrialsCompleted)
	if errors.Is(err, database.ErrNoRows) {
		return s, nil
	}
	if err != nil {
		return user.Stats{}, fmt.Errorf("get stats: %w", err)
	}
	return s, nil
}
