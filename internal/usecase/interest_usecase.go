package usecase

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cofound/internal/domain"
	"cofound/internal/domain/builder"
	"cofound/internal/domain/interest"
	"cofound/internal/domain/opening"
	"cofound/internal/domain/user"
)

const maxNoteLength = 1000

// Quota is the number of interests a builder may express per local day.
type Quota struct {
	Free     int
	Boosted  int
	Location *time.Location
}

func (q Quota) For(tier builder.SubscriptionTier) int {
	if tier == builder.TierBoosted {
		return q.Boosted
	}
	return q.Free
}

type QuotaStatus struct {
	Limit     int
	Used      int
	Remaining int
	ResetsAt  time.Time
}

type InterestUsecase interface {
	ExpressInterest(ctx context.Context, builderID, openingID uuid.UUID, note string) (interest.Interest, domain.Outbox, error)
	WithdrawInterest(ctx context.Context, builderID, interestID uuid.UUID) (interest.Interest, domain.Outbox, error)
	ShortlistBuilder(ctx context.Context, founderID, interestID uuid.UUID) (interest.Interest, domain.Outbox, error)
	PassOnBuilder(ctx context.Context, founderID, interestID uuid.UUID) (interest.Interest, domain.Outbox, error)
	CheckMutualMatch(ctx context.Context, callerID uuid.UUID, role user.Role, founderID, builderID uuid.UUID) (bool, error)
	GetMutualMatches(ctx context.Context, userID uuid.UUID, role user.Role) ([]interest.Interest, error)
	ListOpeningInterests(ctx context.Context, founderID, openingID uuid.UUID, status *interest.Status) ([]interest.Interest, error)
	ListBuilderInterests(ctx context.Context, builderID uuid.UUID) ([]interest.Interest, error)
	DailyQuota(ctx context.Context, builderID uuid.UUID) (QuotaStatus, error)
}

type Interests struct {
	interests interest.Repository
	openings  opening.Repository
	builders  builder.Repository
	users     user.Repository
	stats     user.StatsRepository
	quota     Quota
	base
}

func NewInterestUsecase(
	interests interest.Repository,
	openings opening.Repository,
	builders builder.Repository,
	users user.Repository,
	stats user.StatsRepository,
	quota Quota,
	log *zap.Logger,
	opts ...Option,
) *Interests {
	return &Interests{
		interests: interests,
		openings:  openings,
		builders:  builders,
		users:     users,
		stats:     stats,
		quota:     quota,
		base:      newBase(log, "interest", opts),
	}
}

func (u *Interests) ExpressInterest(ctx context.Context, builderID, openingID uuid.UUID, note string) (interest.Interest, domain.Outbox, error) {
	note = strings.TrimSpace(note)
	if builderID == uuid.Nil || openingID == uuid.Nil || utf8.RuneCountInString(note) > maxNoteLength {
		return interest.Interest{}, nil, domain.ErrInvalidInput
	}

	profile, err := u.builders.GetByUserID(ctx, builderID)
	if err != nil {
		return interest.Interest{}, nil, u.fail("get builder profile", err)
	}
	if !profile.IsComplete {
		return interest.Interest{}, nil, domain.ErrProfileIncomplete
	}

	o, err := u.openings.GetByID(ctx, openingID)
	if err != nil {
		return interest.Interest{}, nil, u.fail("get opening", err)
	}
	if o.Status != opening.StatusActive {
		return interest.Interest{}, nil, domain.ErrOpeningNotActive
	}

	now := u.clock()
	created, err := u.interests.CreateWithinQuota(ctx, interest.Interest{
		ID:        uuid.New(),
		BuilderID: builderID,
		OpeningID: o.ID,
		FounderID: o.FounderID,
		Status:    interest.StatusInterested,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	}, startOfDay(now, u.quota.Location), u.quota.For(profile.SubscriptionTier))
	if err != nil {
		return interest.Interest{}, nil, u.fail("create interest", err)
	}

	if err := u.openings.Increment(ctx, o.ID, opening.CounterInterests, 1); err != nil {
		u.log.Warn("increment interest count", zap.Stringer("opening_id", o.ID), zap.Error(err))
	}
	u.incrementStat(ctx, u.stats, builderID, user.StatInterestsSent)
	u.incrementStat(ctx, u.stats, o.FounderID, user.StatInterestsReceived)

	var out domain.Outbox
	out.Add(domain.EventNewInterest, o.FounderID, u.actor(ctx, u.users, builderID), map[string]any{
		"interest_id":   created.ID,
		"opening_id":    o.ID,
		"opening_title": o.Title,
	}, now)
	return created, out, nil
}

func (u *Interests) WithdrawInterest(ctx context.Context, builderID, interestID uuid.UUID) (interest.Interest, domain.Outbox, error) {
	updated, err := u.interests.Update(ctx, interestID, func(i *interest.Interest) error {
		if i.BuilderID != builderID {
			return domain.ErrNotInterestBuilder
		}
		return interest.Apply(i, interest.ActionWithdraw, u.clock())
	})
	if err != nil {
		return interest.Interest{}, nil, u.fail("withdraw interest", err)
	}
	return updated, nil, nil
}

// ShortlistBuilder is the only operation that produces a mutual match.
func (u *Interests) ShortlistBuilder(ctx context.Context, founderID, interestID uuid.UUID) (interest.Interest, domain.Outbox, error) {
	updated, err := u.interests.Update(ctx, interestID, func(i *interest.Interest) error {
		if i.FounderID != founderID {
			return domain.ErrNotOpeningOwner
		}
		return interest.Apply(i, interest.ActionShortlist, u.clock())
	})
	if err != nil {
		return interest.Interest{}, nil, u.fail("shortlist builder", err)
	}

	u.incrementStat(ctx, u.stats, founderID, user.StatShortlists)
	u.incrementStat(ctx, u.stats, updated.BuilderID, user.StatShortlists)
	u.incrementStat(ctx, u.stats, founderID, user.StatMatches)
	u.incrementStat(ctx, u.stats, updated.BuilderID, user.StatMatches)

	var out domain.Outbox
	out.Add(domain.EventShortlisted, updated.BuilderID, u.actor(ctx, u.users, founderID), map[string]any{
		"interest_id": updated.ID,
		"opening_id":  updated.OpeningID,
	}, updated.UpdatedAt)
	return updated, out, nil
}

func (u *Interests) PassOnBuilder(ctx context.Context, founderID, interestID uuid.UUID) (interest.Interest, domain.Outbox, error) {
	updated, err := u.interests.Update(ctx, interestID, func(i *interest.Interest) error {
		if i.FounderID != founderID {
			return domain.ErrNotOpeningOwner
		}
		return interest.Apply(i, interest.ActionPass, u.clock())
	})
	if err != nil {
		return interest.Interest{}, nil, u.fail("pass on builder", err)
	}
	return updated, nil, nil
}

// CheckMutualMatch answers only for a caller who is one side of the pair.
func (u *Interests) CheckMutualMatch(ctx context.Context, callerID uuid.UUID, role user.Role, founderID, builderID uuid.UUID) (bool, error) {
	if founderID == uuid.Nil || builderID == uuid.Nil || callerID == uuid.Nil {
		return false, domain.ErrInvalidInput
	}
	switch {
	case role == user.RoleFounder && callerID == founderID:
	case role == user.RoleBuilder && callerID == builderID:
	default:
		return false, domain.ErrNotMatchParty
	}
	matches, err := u.interests.ListMutualMatches(ctx, interest.MatchFilter{FounderID: founderID, BuilderID: builderID})
	if err != nil {
		return false, u.fail("check mutual match", err)
	}
	return len(matches) > 0, nil
}

func (u *Interests) GetMutualMatches(ctx context.Context, userID uuid.UUID, role user.Role) ([]interest.Interest, error) {
	var f interest.MatchFilter
	switch role {
	case user.RoleFounder:
		f.FounderID = userID
	case user.RoleBuilder:
		f.BuilderID = userID
	default:
		return nil, domain.ErrRoleNotAllowed
	}
	if userID == uuid.Nil {
		return nil, domain.ErrInvalidInput
	}
	matches, err := u.interests.ListMutualMatches(ctx, f)
	if err != nil {
		return nil, u.fail("list mutual matches", err)
	}
	return matches, nil
}

func (u *Interests) ListOpeningInterests(ctx context.Context, founderID, openingID uuid.UUID, status *interest.Status) ([]interest.Interest, error) {
	o, err := u.openings.GetByID(ctx, openingID)
	if err != nil {
		return nil, u.fail("get opening", err)
	}
	if o.FounderID != founderID {
		return nil, domain.ErrNotOpeningOwner
	}
	items, err := u.interests.ListByOpening(ctx, openingID, status)
	if err != nil {
		return nil, u.fail("list opening interests", err)
	}
	return items, nil
}

func (u *Interests) ListBuilderInterests(ctx context.Context, builderID uuid.UUID) ([]interest.Interest, error) {
	items, err := u.interests.ListByBuilder(ctx, builderID)
	if err != nil {
		return nil, u.fail("list builder interests", err)
	}
	return items, nil
}

func (u *Interests) DailyQuota(ctx context.Context, builderID uuid.UUID) (QuotaStatus, error) {
	profile, err := u.builders.GetByUserID(ctx, builderID)
	if err != nil {
		return QuotaStatus{}, u.fail("get builder profile", err)
	}
	now := u.clock()
	since := startOfDay(now, u.quota.Location)
	used, err := u.interests.CountCreatedSince(ctx, builderID, since)
	if err != nil {
		return QuotaStatus{}, u.fail("count interests", err)
	}
	limit := u.quota.For(profile.SubscriptionTier)
	return QuotaStatus{
		Limit:     limit,
		Used:      used,
		Remaining: max(limit-used, 0),
		ResetsAt:  since.AddDate(0, 0, 1).UTC(),
	}, nil
}
