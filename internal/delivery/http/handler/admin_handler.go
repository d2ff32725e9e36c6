package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"cofound/internal/delivery/http/dto"
	"cofound/internal/pkg/response"
	"cofound/internal/usecase"
)

type AdminHandler struct {
	trials   usecase.TrialUsecase
	matching usecase.MatchingUsecase
	events   EventSink
}

func NewAdminHandler(trials usecase.TrialUsecase, matching usecase.MatchingUsecase, events EventSink) *AdminHandler {
	return &AdminHandler{trials: trials, matching: matching, events: sinkOrNoop(events)}
}

// RegisterRoutes expects r to be already restricted to admins.
func (h *AdminHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/trials/ending", h.TrialsEnding)
	r.Post("/trials/sweep", h.Sweep)
	r.Post("/matches/generate", h.GenerateMatches)
}

func (h *AdminHandler) TrialsEnding(c fiber.Ctx) error {
	days, err := intQuery(c, "days", 3)
	if err != nil {
		return err
	}
	items, err := h.trials.ListTrialsEndingWithin(c.Context(), days)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewTrialList(items, uuid.Nil))
}

func (h *AdminHandler) Sweep(c fiber.Ctx) error {
	res, out, err := h.trials.AutoCompleteExpiredTrials(c.Context())
	if err != nil {
		return err
	}
	h.events.Dispatch(c.Context(), out)
	return response.OK(c, dto.NewSweepResponse(res))
}

func (h *AdminHandler) GenerateMatches(c fiber.Ctx) error {
	report, err := h.matching.GenerateMatches(c.Context())
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewGenerationResponse(report))
}
