package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cofound/internal/domain"
	"cofound/internal/domain/opening"
)

type OpeningUsecase interface {
	CreateOpening(ctx context.Context, founderID uuid.UUID, in opening.CreateInput) (opening.Opening, error)
	UpdateOpeningStatus(ctx context.Context, founderID, openingID uuid.UUID, to opening.Status, filledBy *uuid.UUID) (opening.Opening, error)
	RecordOpeningView(ctx context.Context, openingID uuid.UUID) error
	GetOpening(ctx context.Context, openingID uuid.UUID) (opening.Opening, error)
	ListActiveOpenings(ctx context.Context, limit, offset int) ([]opening.Opening, error)
	ListFounderOpenings(ctx context.Context, founderID uuid.UUID) ([]opening.Opening, error)
}

type Openings struct {
	openings opening.Repository
	base
}

func NewOpeningUsecase(openings opening.Repository, log *zap.Logger, opts ...Option) *Openings {
	return &Openings{openings: openings, base: newBase(log, "opening", opts)}
}

func (u *Openings) CreateOpening(ctx context.Context, founderID uuid.UUID, in opening.CreateInput) (opening.Opening, error) {
	if founderID == uuid.Nil {
		return opening.Opening{}, domain.ErrInvalidInput
	}
	if err := in.Validate(); err != nil {
		return opening.Opening{}, err
	}
	now := u.clock()
	o, err := u.openings.Create(ctx, opening.Opening{
		ID:               uuid.New(),
		FounderID:        founderID,
		Title:            strings.TrimSpace(in.Title),
		RoleType:         strings.TrimSpace(in.RoleType),
		RequiredSkills:   cleanSkills(in.RequiredSkills),
		PreferredSkills:  cleanSkills(in.PreferredSkills),
		Equity:           in.Equity,
		Cash:             in.Cash,
		HoursPerWeek:     in.HoursPerWeek,
		RemotePreference: in.RemotePreference,
		Status:           opening.StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return opening.Opening{}, u.fail("create opening", err)
	}
	return o, nil
}

func (u *Openings) UpdateOpeningStatus(ctx context.Context, founderID, openingID uuid.UUID, to opening.Status, filledBy *uuid.UUID) (opening.Opening, error) {
	o, err := u.openings.Update(ctx, openingID, func(o *opening.Opening) error {
		if o.FounderID != founderID {
			return domain.ErrNotOpeningOwner
		}
		return opening.Transition(o, to, filledBy, u.clock())
	})
	if err != nil {
		return opening.Opening{}, u.fail("update opening status", err)
	}
	return o, nil
}

func (u *Openings) RecordOpeningView(ctx context.Context, openingID uuid.UUID) error {
	return u.fail("record opening view", u.openings.Increment(ctx, openingID, opening.CounterViews, 1))
}

func (u *Openings) GetOpening(ctx context.Context, openingID uuid.UUID) (opening.Opening, error) {
	o, err := u.openings.GetByID(ctx, openingID)
	if err != nil {
		return opening.Opening{}, u.fail("get opening", err)
	}
	return o, nil
}

func (u *Openings) ListActiveOpenings(ctx context.Context, limit, offset int) ([]opening.Opening, error) {
	if limit < 0 || offset < 0 {
		return nil, domain.ErrInvalidInput
	}
	if limit == 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	items, err := u.openings.ListByStatus(ctx, opening.StatusActive, limit, offset)
	if err != nil {
		return nil, u.fail("list openings", err)
	}
	return items, nil
}

func (u *Openings) ListFounderOpenings(ctx context.Context, founderID uuid.UUID) ([]opening.Opening, error) {
	items, err := u.openings.ListByFounder(ctx, founderID)
	if err != nil {
		return nil, u.fail("list founder openings", err)
	}
	return items, nil
}

// cleanSkills trims entries and drops blanks and case-insensitive duplicates.
func cleanSkills(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
