package dto

import (
	"time"

	"github.com/google/uuid"

	"cofound/internal/domain/trial"
	"cofound/internal/usecase"
)

type FeedbackResponse struct {
	Communication int       `json:"communication"`
	Reliability   int       `json:"reliability"`
	SkillMatch    int       `json:"skill_match"`
	WouldContinue bool      `json:"would_continue"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type TrialResponse struct {
	ID               uuid.UUID              `json:"id"`
	ConversationID   uuid.UUID              `json:"conversation_id"`
	FounderID        uuid.UUID              `json:"founder_id"`
	BuilderID        uuid.UUID              `json:"builder_id"`
	ProposedBy       uuid.UUID              `json:"proposed_by"`
	DurationDays     int                    `json:"duration_days"`
	Goal             string                 `json:"goal"`
	CheckinFrequency trial.CheckinFrequency `json:"checkin_frequency"`
	Status           trial.Status           `json:"status"`
	Declined         bool                   `json:"declined,omitempty"`
	ProposedAt       time.Time              `json:"proposed_at"`
	AcceptedAt       *time.Time             `json:"accepted_at,omitempty"`
	EndsAt           *time.Time             `json:"ends_at,omitempty"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
	CancelledAt      *time.Time             `json:"cancelled_at,omitempty"`
	CancelledBy      *uuid.UUID             `json:"cancelled_by,omitempty"`
	CancelReason     string                 `json:"cancel_reason,omitempty"`
	FounderFeedback  *FeedbackResponse      `json:"founder_feedback,omitempty"`
	BuilderFeedback  *FeedbackResponse      `json:"builder_feedback,omitempty"`
	Outcome          trial.Outcome          `json:"outcome"`
}

// NewTrialResponse renders t for viewer. Private notes are never exposed and
// the other side's ratings stay hidden until the outcome resolves.
func NewTrialResponse(t trial.Trial, viewer uuid.UUID) TrialResponse {
	res := TrialResponse{
		ID:               t.ID,
		ConversationID:   t.ConversationID,
		FounderID:        t.FounderID,
		BuilderID:        t.BuilderID,
		ProposedBy:       t.ProposedBy,
		DurationDays:     t.DurationDays,
		Goal:             t.Goal,
		CheckinFrequency: t.CheckinFrequency,
		Status:           t.Status,
		Declined:         t.Declined,
		ProposedAt:       t.ProposedAt,
		AcceptedAt:       t.AcceptedAt,
		EndsAt:           t.EndsAt,
		CompletedAt:      t.CompletedAt,
		CancelledAt:      t.CancelledAt,
		CancelledBy:      t.CancelledBy,
		CancelReason:     t.CancelReason,
		Outcome:          t.Outcome,
	}
	resolved := t.Outcome != trial.OutcomePending
	if viewer == t.FounderID || resolved || viewer == uuid.Nil {
		res.FounderFeedback = feedback(t.FounderFeedback)
	}
	if viewer == t.BuilderID || resolved || viewer == uuid.Nil {
		res.BuilderFeedback = feedback(t.BuilderFeedback)
	}
	return res
}

func feedback(f *trial.Feedback) *FeedbackResponse {
	if f == nil {
		return nil
	}
	return &FeedbackResponse{
		Communication: f.Communication,
		Reliability:   f.Reliability,
		SkillMatch:    f.SkillMatch,
		WouldContinue: f.WouldContinue,
		SubmittedAt:   f.SubmittedAt,
	}
}

func NewTrialList(items []trial.Trial, viewer uuid.UUID) []TrialResponse {
	out := make([]TrialResponse, 0, len(items))
	for _, t := range items {
		out = append(out, NewTrialResponse(t, viewer))
	}
	return out
}

type SweepResponse struct {
	Found     int `json:"found"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

func NewSweepResponse(r usecase.SweepResult) SweepResponse {
	return SweepResponse{Found: r.Found, Completed: r.Completed, Failed: r.Failed}
}
