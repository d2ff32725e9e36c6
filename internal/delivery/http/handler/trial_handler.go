package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"cofound/internal/delivery/http/dto"
	"cofound/internal/delivery/http/middleware"
	"cofound/internal/domain"
	"cofound/internal/domain/trial"
	"cofound/internal/pkg/response"
	"cofound/internal/usecase"
)

type TrialHandler struct {
	uc     usecase.TrialUsecase
	events EventSink
}

type proposeTrialRequest struct {
	DurationDays     int    `json:"duration_days"`
	Goal             string `json:"goal"`
	CheckinFrequency string `json:"checkin_frequency"`
}

type cancelTrialRequest struct {
	Reason string `json:"reason"`
}

type feedbackRequest struct {
	Communication int    `json:"communication"`
	Reliability   int    `json:"reliability"`
	SkillMatch    int    `json:"skill_match"`
	WouldContinue *bool  `json:"would_continue"`
	PrivateNotes  string `json:"private_notes"`
}

type trialTransition func(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, domain.Outbox, error)

func NewTrialHandler(uc usecase.TrialUsecase, events EventSink) *TrialHandler {
	return &TrialHandler{uc: uc, events: sinkOrNoop(events)}
}

func (h *TrialHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/conversations/:id/trials", h.Propose)
	r.Get("/conversations/:id/trials", h.ListForConversation)
	r.Get("/trials/:id", h.Get)
	r.Post("/trials/:id/accept", h.Accept)
	r.Post("/trials/:id/decline", h.Decline)
	r.Post("/trials/:id/cancel", h.Cancel)
	r.Post("/trials/:id/complete", h.Complete)
	r.Post("/trials/:id/feedback", h.Feedback)
}

func (h *TrialHandler) Propose(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	conversationID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req proposeTrialRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	t, out, err := h.uc.ProposeTrial(c.Context(), userID, conversationID, trial.Proposal{
		DurationDays:     req.DurationDays,
		Goal:             req.Goal,
		CheckinFrequency: trial.CheckinFrequency(strings.ToUpper(strings.TrimSpace(req.CheckinFrequency))),
	})
	if err != nil {
		return err
	}
	h.events.Dispatch(c.Context(), out)
	return response.Created(c, dto.NewTrialResponse(t, userID))
}

func (h *TrialHandler) ListForConversation(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	conversationID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	items, err := h.uc.ListTrialsForConversation(c.Context(), userID, conversationID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewTrialList(items, userID))
}

func (h *TrialHandler) Get(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	t, err := h.uc.GetTrial(c.Context(), userID, id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewTrialResponse(t, userID))
}

func (h *TrialHandler) Accept(c fiber.Ctx) error {
	return h.transition(c, h.uc.AcceptTrial)
}

func (h *TrialHandler) Decline(c fiber.Ctx) error {
	return h.transition(c, h.uc.DeclineTrial)
}

func (h *TrialHandler) Complete(c fiber.Ctx) error {
	return h.transition(c, h.uc.CompleteTrial)
}

func (h *TrialHandler) Cancel(c fiber.Ctx) error {
	var req cancelTrialRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	return h.transition(c, func(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, domain.Outbox, error) {
		return h.uc.CancelTrial(ctx, userID, trialID, req.Reason)
	})
}

func (h *TrialHandler) Feedback(c fiber.Ctx) error {
	var req feedbackRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	if req.WouldContinue == nil {
		return middleware.BadRequest("would_continue is required", nil)
	}
	f := trial.Feedback{
		Communication: req.Communication,
		Reliability:   req.Reliability,
		SkillMatch:    req.SkillMatch,
		WouldContinue: *req.WouldContinue,
		PrivateNotes:  req.PrivateNotes,
	}
	return h.transition(c, func(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, domain.Outbox, error) {
		return h.uc.SubmitFeedback(ctx, userID, trialID, f)
	})
}

func (h *TrialHandler) transition(c fiber.Ctx, fn trialTransition) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	t, out, err := fn(c.Context(), userID, id)
	if err != nil {
		return err
	}
	h.events.Dispatch(c.Context(), out)
	return response.OK(c, dto.NewTrialResponse(t, userID))
}
