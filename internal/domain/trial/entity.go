package trial

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusProposed  Status = "PROPOSED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusDeclined  Status = "DECLINED"
)

// Live trials block a new proposal in the same conversation.
func (s Status) Live() bool {
	return s == StatusProposed || s == StatusActive
}

type Outcome string

const (
	OutcomePending  Outcome = "PENDING"
	OutcomeContinue Outcome = "CONTINUE"
	OutcomeEnd      Outcome = "END"
)

type CheckinFrequency string

const (
	CheckinDaily       CheckinFrequency = "DAILY"
	CheckinTwiceWeekly CheckinFrequency = "TWICE_WEEKLY"
	CheckinWeekly      CheckinFrequency = "WEEKLY"
)

func (f CheckinFrequency) Valid() bool {
	switch f {
	case CheckinDaily, CheckinTwiceWeekly, CheckinWeekly:
		return true
	}
	return false
}

type Side string

const (
	SideFounder Side = "founder"
	SideBuilder Side = "builder"
)

type Feedback struct {
	Communication int       `json:"communication"`
	Reliability   int       `json:"reliability"`
	SkillMatch    int       `json:"skill_match"`
	WouldContinue bool      `json:"would_continue"`
	PrivateNotes  string    `json:"private_notes,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type Trial struct {
	ID               uuid.UUID
	ConversationID   uuid.UUID
	FounderID        uuid.UUID
	BuilderID        uuid.UUID
	ProposedBy       uuid.UUID
	DurationDays     int
	Goal             string
	CheckinFrequency CheckinFrequency
	Status           Status
	Declined         bool
	ProposedAt       time.Time
	AcceptedAt       *time.Time
	EndsAt           *time.Time
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	CancelledBy      *uuid.UUID
	CancelReason     string
	FounderFeedback  *Feedback
	BuilderFeedback  *Feedback
	Outcome          Outcome
	UpdatedAt        time.Time
}

func (t Trial) IsParticipant(userID uuid.UUID) bool {
	return userID != uuid.Nil && (userID == t.FounderID || userID == t.BuilderID)
}

func (t Trial) SideOf(userID uuid.UUID) (Side, bool) {
	switch {
	case userID == uuid.Nil:
		return "", false
	case userID == t.FounderID:
		return SideFounder, true
	case userID == t.BuilderID:
		return SideBuilder, true
	}
	return "", false
}

func (t Trial) Other(userID uuid.UUID) uuid.UUID {
	if userID == t.FounderID {
		return t.BuilderID
	}
	return t.FounderID
}

type Repository interface {
	// Create fails with a conflict when the conversation already has a live trial.
	Create(ctx context.Context, t Trial) (Trial, error)
	GetByID(ctx context.Context, id uuid.UUID) (Trial, error)
	// Update applies fn to the locked row and persists the result.
	Update(ctx context.Context, id uuid.UUID, fn func(*Trial) error) (Trial, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]Trial, error)
	ListActiveEndingBefore(ctx context.Context, before time.Time) ([]Trial, error)
}
