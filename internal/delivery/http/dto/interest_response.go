package dto

import (
	"time"

	"github.com/google/uuid"

	"cofound/internal/domain/interest"
	"cofound/internal/usecase"
)

type InterestResponse struct {
	ID             uuid.UUID       `json:"id"`
	BuilderID      uuid.UUID       `json:"builder_id"`
	OpeningID      uuid.UUID       `json:"opening_id"`
	FounderID      uuid.UUID       `json:"founder_id"`
	Status         interest.Status `json:"status"`
	IsMutualMatch  bool            `json:"is_mutual_match"`
	Note           string          `json:"note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	ShortlistedAt  *time.Time      `json:"shortlisted_at,omitempty"`
	PassedAt       *time.Time      `json:"passed_at,omitempty"`
	WithdrawnAt    *time.Time      `json:"withdrawn_at,omitempty"`
	MatchedAt      *time.Time      `json:"matched_at,omitempty"`
	ConversationID *uuid.UUID      `json:"conversation_id,omitempty"`
}

func NewInterestResponse(i interest.Interest) InterestResponse {
	return InterestResponse{
		ID:             i.ID,
		BuilderID:      i.BuilderID,
		OpeningID:      i.OpeningID,
		FounderID:      i.FounderID,
		Status:         i.Status,
		IsMutualMatch:  i.IsMutualMatch,
		Note:           i.Note,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
		ShortlistedAt:  i.ShortlistedAt,
		PassedAt:       i.PassedAt,
		WithdrawnAt:    i.WithdrawnAt,
		MatchedAt:      i.MatchedAt,
		ConversationID: i.ConversationID,
	}
}

func NewInterestList(items []interest.Interest) []InterestResponse {
	out := make([]InterestResponse, 0, len(items))
	for _, i := range items {
		out = append(out, NewInterestResponse(i))
	}
	return out
}

type QuotaResponse struct {
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

func NewQuotaResponse(q usecase.QuotaStatus) QuotaResponse {
	return QuotaResponse{Limit: q.Limit, Used: q.Used, Remaining: q.Remaining, ResetsAt: q.ResetsAt}
}

type MutualMatchCheckResponse struct {
	FounderID     uuid.UUID `json:"founder_id"`
	BuilderID     uuid.UUID `json:"builder_id"`
	IsMutualMatch bool      `json:"is_mutual_match"`
}
