package opening

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"cofound/internal/domain"
)

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusPaused Status = "PAUSED"
	StatusFilled Status = "FILLED"
	StatusClosed Status = "CLOSED"
)

type RemotePreference string

const (
	RemoteOnly     RemotePreference = "REMOTE"
	RemoteHybrid   RemotePreference = "HYBRID"
	RemoteOnsite   RemotePreference = "ONSITE"
	RemoteFlexible RemotePreference = "FLEXIBLE"
)

func (p RemotePreference) Valid() bool {
	switch p {
	case RemoteOnly, RemoteHybrid, RemoteOnsite, RemoteFlexible:
		return true
	}
	return false
}

// Range is an inclusive numeric range. Equity is in percent, cash in yearly currency units.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) Valid() bool {
	return r.Min >= 0 && r.Min <= r.Max
}

func (r Range) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

type Opening struct {
	ID               uuid.UUID
	FounderID        uuid.UUID
	Title            string
	RoleType         string
	RequiredSkills   []string
	PreferredSkills  []string
	Equity           Range
	Cash             Range
	HoursPerWeek     int
	RemotePreference RemotePreference
	Status           Status
	FilledBy         *uuid.UUID
	InterestCount    int
	ViewCount        int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EquityOnly reports whether the opening pays no cash at all.
func (o Opening) EquityOnly() bool {
	return o.Cash.Max <= 0 && o.Equity.Max > 0
}

func (o Opening) CashOnly() bool {
	return o.Equity.Max <= 0 && o.Cash.Max > 0
}

type CreateInput struct {
	Title            string
	RoleType         string
	RequiredSkills   []string
	PreferredSkills  []string
	Equity           Range
	Cash             Range
	HoursPerWeek     int
	RemotePreference RemotePreference
}

func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.RoleType) == "" {
		return domain.ErrInvalidInput
	}
	if !in.Equity.Valid() || !in.Cash.Valid() {
		return domain.ErrInvalidInput
	}
	if in.HoursPerWeek <= 0 || in.HoursPerWeek > 168 {
		return domain.ErrInvalidInput
	}
	if !in.RemotePreference.Valid() {
		return domain.ErrInvalidInput
	}
	return nil
}

var transitions = map[Status][]Status{
	StatusActive: {StatusPaused, StatusFilled, StatusClosed},
	StatusPaused: {StatusActive, StatusFilled, StatusClosed},
	StatusFilled: nil,
	StatusClosed: nil,
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves o to status to. FILLED requires the filling builder id.
func Transition(o *Opening, to Status, filledBy *uuid.UUID, now time.Time) error {
	if !CanTransition(o.Status, to) {
		return domain.ErrInvalidTransition
	}
	if to == StatusFilled {
		if filledBy == nil || *filledBy == uuid.Nil {
			return domain.ErrInvalidInput
		}
		id := *filledBy
		o.FilledBy = &id
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}
