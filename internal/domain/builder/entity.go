package builder

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"cofound/internal/domain/opening"
)

type RiskAppetite string

const (
	RiskLow    RiskAppetite = "LOW"
	RiskMedium RiskAppetite = "MEDIUM"
	RiskHigh   RiskAppetite = "HIGH"
)

func (r RiskAppetite) Level() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	}
	return -1
}

type Compensation string

const (
	CompEquityOnly  Compensation = "EQUITY_ONLY"
	CompEquityHeavy Compensation = "EQUITY_HEAVY"
	CompCashHeavy   Compensation = "CASH_HEAVY"
	CompCashOnly    Compensation = "CASH_ONLY"
)

func (c Compensation) Valid() bool {
	switch c {
	case CompEquityOnly, CompEquityHeavy, CompCashHeavy, CompCashOnly:
		return true
	}
	return false
}

type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "FREE"
	TierBoosted SubscriptionTier = "BOOSTED"
)

type Profile struct {
	UserID               uuid.UUID
	Skills               []string
	RiskAppetite         RiskAppetite
	CompensationOpenness []Compensation

	// Optional expectations; zero ranges mean "no expectation".
	DesiredEquity    opening.Range
	DesiredCash      opening.Range
	HoursPerWeek     int
	RoleInterests    []string
	RemotePreference opening.RemotePreference
	SubscriptionTier SubscriptionTier
	IsComplete       bool
	UpdatedAt        time.Time
}

func (p Profile) Accepts(c Compensation) bool {
	for _, v := range p.CompensationOpenness {
		if v == c {
			return true
		}
	}
	return false
}

// Complete reports whether every field the workflow depends on is present.
// The stored flag is authoritative; this recomputes it on profile writes.
func (p Profile) Complete() bool {
	if len(p.Skills) == 0 || p.RiskAppetite.Level() < 0 {
		return false
	}
	if n := len(p.CompensationOpenness); n < 1 || n > 4 {
		return false
	}
	for _, c := range p.CompensationOpenness {
		if !c.Valid() {
			return false
		}
	}
	if p.HoursPerWeek <= 0 || len(p.RoleInterests) == 0 {
		return false
	}
	return p.RemotePreference.Valid()
}

func (p Profile) InterestedIn(roleType string) bool {
	if len(p.RoleInterests) == 0 {
		return true
	}
	for _, r := range p.RoleInterests {
		if strings.EqualFold(strings.TrimSpace(r), strings.TrimSpace(roleType)) {
			return true
		}
	}
	return false
}

type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (Profile, error)
	ListComplete(ctx context.Context, limit, offset int) ([]Profile, error)
}
