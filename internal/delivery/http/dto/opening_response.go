package dto

import (
	"time"

	"github.com/google/uuid"

	"cofound/internal/domain/matching"
	"cofound/internal/domain/opening"
	"cofound/internal/usecase"
)

type OpeningResponse struct {
	ID               uuid.UUID                `json:"id"`
	FounderID        uuid.UUID                `json:"founder_id"`
	Title            string                   `json:"title"`
	RoleType         string                   `json:"role_type"`
	RequiredSkills   []string                 `json:"required_skills"`
	PreferredSkills  []string                 `json:"preferred_skills"`
	Equity           opening.Range            `json:"equity"`
	Cash             opening.Range            `json:"cash"`
	HoursPerWeek     int                      `json:"hours_per_week"`
	RemotePreference opening.RemotePreference `json:"remote_preference"`
	Status           opening.Status           `json:"status"`
	FilledBy         *uuid.UUID               `json:"filled_by,omitempty"`
	InterestCount    int                      `json:"interest_count"`
	ViewCount        int                      `json:"view_count"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

func NewOpeningResponse(o opening.Opening) OpeningResponse {
	return OpeningResponse{
		ID:               o.ID,
		FounderID:        o.FounderID,
		Title:            o.Title,
		RoleType:         o.RoleType,
		RequiredSkills:   nonNil(o.RequiredSkills),
		PreferredSkills:  nonNil(o.PreferredSkills),
		Equity:           o.Equity,
		Cash:             o.Cash,
		HoursPerWeek:     o.HoursPerWeek,
		RemotePreference: o.RemotePreference,
		Status:           o.Status,
		FilledBy:         o.FilledBy,
		InterestCount:    o.InterestCount,
		ViewCount:        o.ViewCount,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func NewOpeningList(items []opening.Opening) []OpeningResponse {
	out := make([]OpeningResponse, 0, len(items))
	for _, o := range items {
		out = append(out, NewOpeningResponse(o))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type SuggestionResponse struct {
	BuilderID   uuid.UUID          `json:"builder_id"`
	Overall     float64            `json:"overall"`
	Tier        matching.Tier      `json:"tier"`
	Breakdown   matching.Breakdown `json:"breakdown"`
	GeneratedAt time.Time          `json:"generated_at"`
}

func NewSuggestionList(items []matching.Suggestion) []SuggestionResponse {
	out := make([]SuggestionResponse, 0, len(items))
	for _, s := range items {
		out = append(out, SuggestionResponse{
			BuilderID:   s.BuilderID,
			Overall:     s.Result.Overall,
			Tier:        s.Result.Tier,
			Breakdown:   s.Result.Breakdown,
			GeneratedAt: s.GeneratedAt,
		})
	}
	return out
}

type GenerationResponse struct {
	Openings  int   `json:"openings"`
	Builders  int   `json:"builders"`
	Scored    int   `json:"scored"`
	Kept      int   `json:"kept"`
	Failed    int   `json:"failed"`
	ElapsedMS int64 `json:"elapsed_ms"`
}

func NewGenerationResponse(r usecase.GenerationReport) GenerationResponse {
	return GenerationResponse{
		Openings:  r.Openings,
		Builders:  r.Builders,
		Scored:    r.Scored,
		Kept:      r.Kept,
		Failed:    r.Failed,
		ElapsedMS: r.Elapsed.Milliseconds(),
	}
}
