package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cofound/internal/database"
	"cofound/internal/domain"
	"cofound/internal/domain/interest"
	"cofound/internal/domain/trial"
)

// scriptRow scans the next scripted value, or fails with err.
type scriptRow struct {
	vals []any
	err  error
}

func (r scriptRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *bool:
			*p = r.vals[i].(bool)
		case *int:
			*p = r.vals[i].(int)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

// scriptDB answers QueryRow calls in order and records whether the
// transaction was committed.
type scriptDB struct {
	mu        sync.Mutex
	rows      []scriptRow
	committed bool
}

func (d *scriptDB) next() database.Row {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rows) == 0 {
		return scriptRow{err: errors.New("unexpected query")}
	}
	r := d.rows[0]
	d.rows = d.rows[1:]
	return r
}

func (d *scriptDB) Ping(context.Context) error { return nil }
func (d *scriptDB) Close() error { return nil }
func (d *scriptDB) SQLDB() *sql.DB { return nil }
func (d *scriptDB) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }
func (d *scriptDB) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, errors.New("unexpected query")
}
func (d *scriptDB) QueryRow(context.Context, string, ...any) database.Row { return d.next() }
func (d *scriptDB) Begin(context.Context) (database.Tx, error) { return scriptTx{d}, nil }

type scriptTx struct{ db *scriptDB }

func (t scriptTx) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }
func (t scriptTx) Query(context.Context, string, ...any) (database.Rows, error) {
	return nil, errors.New("unexpected query")
}
func (t scriptTx) QueryRow(context.Context, string, ...any) database.Row { return t.db.next() }
func (t scriptTx) Commit(context.Context) error {
	t.db.committed = true
	return nil
}
func (t scriptTx) Rollback(context.Context) error { return nil }

func pgErr(code, constraint string) error {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestCreateWithinQuota_MapsStorageErrors(t *testing.T) {
	cases := []struct {
		name   string
		insert error
		want   error
	}{
		{"duplicate pair", pgErr("23505", uniqueBuilderOpening), domain.ErrDuplicateInterest},
		{"opening deleted", pgErr("23503", "interests_opening_id_fkey"), domain.ErrOpeningNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := &scriptDB{rows: []scriptRow{
				{vals: []any{false}},
				{vals: []any{0}},
				{err: tc.insert},
			}}
			repo := NewPostgresInterestRepository(db)

			_, err := repo.CreateWithinQuota(context.Background(), interest.Interest{
				ID:        uuid.New(),
				BuilderID: uuid.New(),
				OpeningID: uuid.New(),
				Status:    interest.StatusInterested,
				CreatedAt: time.Now(),
			}, time.Now().Add(-time.Hour), 5)

			require.ErrorIs(t, err, tc.want)
			assert.False(t, db.committed)
		})
	}
}

func TestCreateWithinQuota_UnknownUniqueViolationIsNotADuplicate(t *testing.T) {
	db := &scriptDB{rows: []scriptRow{
		{vals: []any{false}},
		{vals: []any{0}},
		{err: pgErr("23505", "interests_pkey")},
	}}
	_, err := NewPostgresInterestRepository(db).CreateWithinQuota(context.Background(), interest.Interest{
		ID: uuid.New(), BuilderID: uuid.New(), OpeningID: uuid.New(),
	}, time.Now(), 5)

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicateInterest)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestCreateWithinQuota_PreconditionsInsideTheLock(t *testing.T) {
	db := &scriptDB{rows: []scriptRow{{vals: []any{true}}}}
	_, err := NewPostgresInterestRepository(db).CreateWithinQuota(context.Background(), interest.Interest{}, time.Now(), 5)
	assert.ErrorIs(t, err, domain.ErrDuplicateInterest)

	db = &scriptDB{rows: []scriptRow{{vals: []any{false}}, {vals: []any{5}}}}
	_, err = NewPostgresInterestRepository(db).CreateWithinQuota(context.Background(), interest.Interest{}, time.Now(), 5)
	assert.ErrorIs(t, err, domain.ErrDailyLimitReached)
}

func TestTrialCreate_MapsStorageErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"live trial exists", pgErr("23505", uniqueLiveTrial), domain.ErrLiveTrialExists},
		{"conversation deleted", pgErr("23503", "trials_conversation_id_fkey"), domain.ErrConversationNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := &scriptDB{rows: []scriptRow{{err: tc.err}}}
			_, err := NewPostgresTrialRepository(db).Create(context.Background(), trial.Trial{ID: uuid.New()})
			assert.ErrorIs(t, err, tc.want)
		})
	}

	db := &scriptDB{rows: []scriptRow{{err: pgErr("23505", "trials_pkey")}}}
	_, err := NewPostgresTrialRepository(db).Create(context.Background(), trial.Trial{ID: uuid.New()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLiveTrialExists)
}
