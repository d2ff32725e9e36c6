package usecase

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cofound/internal/domain"
	"cofound/internal/domain/conversation"
	"cofound/internal/domain/user"
)

// Option configures collaborators shared by every usecase.
type Option func(*base)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// WithPicker replaces the random source used to choose ice breakers.
func WithPicker(pick func(n int) int) Option {
	return func(b *base) {
		b.pick = pick
	}
}

type base struct {
	now  func() time.Time
	pick func(n int) int
	log  *zap.Logger
}

func newBase(log *zap.Logger, name string, opts []Option) base {
	if log == nil {
		log = zap.NewNop()
	}
	b := base{now: time.Now, log: log.Named(name)}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b base) clock() time.Time {
	return b.now().UTC()
}

// fail passes classified errors through and hides storage errors behind ErrInternal.
func (b base) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.Kind(err) != domain.ErrInternal {
		return err
	}
	b.log.Error(op+" failed", zap.Error(err))
	return domain.ErrInternal
}

// actor resolves display info for events. Lookup failures degrade to a bare id.
func (b base) actor(ctx context.Context, users user.Repository, id uuid.UUID) domain.Actor {
	if users == nil || id == uuid.Nil {
		return domain.Actor{ID: id}
	}
	u, err := users.GetByID(ctx, id)
	if err != nil {
		b.log.Warn("resolve actor", zap.Stringer("user_id", id), zap.Error(err))
		return domain.Actor{ID: id}
	}
	return u.Actor()
}

// systemMessage writes a sender-less message. Failures are logged and dropped.
func (b base) systemMessage(ctx context.Context, messages conversation.MessageRepository, conversationID uuid.UUID, typ conversation.MessageType, body string) {
	if messages == nil {
		return
	}
	m := conversation.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Type:           typ,
		Body:           body,
		CreatedAt:      b.clock(),
	}
	if _, err := messages.Create(ctx, m); err != nil {
		b.log.Warn("write system message",
			zap.Stringer("conversation_id", conversationID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
	}
}

func (b base) incrementStat(ctx context.Context, stats user.StatsRepository, userID uuid.UUID, field user.StatField) {
	if stats == nil {
		return
	}
	if err := stats.Increment(ctx, userID, field, 1); err != nil {
		b.log.Warn("increment stat", zap.Stringer("user_id", userID), zap.String("field", string(field)), zap.Error(err))
	}
}

// startOfDay is local midnight of t in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
