package user

import (
	"time"

	"github.com/google/uuid"

	"cofound/internal/domain"
)

type Role string

const (
	RoleFounder Role = "FOUNDER"
	RoleBuilder Role = "BUILDER"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFounder, RoleBuilder, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID          uuid.UUID
	Email       string
	Role        Role
	DisplayName string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u User) Actor() domain.Actor {
	return domain.Actor{ID: u.ID, Name: u.DisplayName, AvatarURL: u.AvatarURL}
}

// Stats are per-user workflow counters. Increments are atomic at the store.
type Stats struct {
	UserID            uuid.UUID
	InterestsSent     int
	InterestsReceived int
	Shortlists        int
	Matches           int
	TrialsCompleted   int
}

type StatField string

const (
	StatInterestsSent     StatField = "interests_sent"
	StatInterestsReceived StatField = "interests_received"
	StatShortlists        StatField = "shortlists"
	StatMatches           StatField = "matches"
	StatTrialsCompleted   StatField = "trials_completed"
)

func (f StatField) Valid() bool {
	switch f {
	case StatInterestsSent, StatInterestsReceived, StatShortlists, StatMatches, StatTrialsCompleted:
		return true
	}
	return false
}
