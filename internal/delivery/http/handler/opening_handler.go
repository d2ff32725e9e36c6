package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cofound/internal/delivery/http/dto"
	"cofound/internal/delivery/http/middleware"
	"cofound/internal/domain/opening"
	"cofound/internal/domain/user"
	"cofound/internal/pkg/response"
	"cofound/internal/usecase"
)

type OpeningHandler struct {
	uc       usecase.OpeningUsecase
	matching usecase.MatchingUsecase
	log      *zap.Logger
}

type createOpeningRequest struct {
	Title            string        `json:"title"`
	RoleType         string        `json:"role_type"`
	RequiredSkills   []string      `json:"required_skills"`
	PreferredSkills  []string      `json:"preferred_skills"`
	Equity           opening.Range `json:"equity"`
	Cash             opening.Range `json:"cash"`
	HoursPerWeek     int           `json:"hours_per_week"`
	RemotePreference string        `json:"remote_preference"`
}

type updateOpeningStatusRequest struct {
	Status   string     `json:"status"`
	FilledBy *uuid.UUID `json:"filled_by"`
}

func NewOpeningHandler(uc usecase.OpeningUsecase, matching usecase.MatchingUsecase, log *zap.Logger) *OpeningHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OpeningHandler{uc: uc, matching: matching, log: log.Named("http")}
}

func (h *OpeningHandler) RegisterRoutes(r fiber.Router) {
	founder := middleware.RequireRole(user.RoleFounder)

	r.Post("/openings", founder, h.Create)
	r.Get("/openings", h.ListActive)
	r.Get("/openings/:id", h.Get)
	r.Patch("/openings/:id/status", founder, h.UpdateStatus)
	r.Get("/openings/:id/suggestions", founder, h.Suggestions)
	r.Get("/me/openings", founder, h.ListMine)
}

func (h *OpeningHandler) Create(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	var req createOpeningRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	o, err := h.uc.CreateOpening(c.Context(), userID, opening.CreateInput{
		Title:            req.Title,
		RoleType:         req.RoleType,
		RequiredSkills:   req.RequiredSkills,
		PreferredSkills:  req.PreferredSkills,
		Equity:           req.Equity,
		Cash:             req.Cash,
		HoursPerWeek:     req.HoursPerWeek,
		RemotePreference: opening.RemotePreference(strings.ToUpper(strings.TrimSpace(req.RemotePreference))),
	})
	if err != nil {
		return err
	}
	return response.Created(c, dto.NewOpeningResponse(o))
}

func (h *OpeningHandler) ListActive(c fiber.Ctx) error {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		return err
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		return err
	}
	items, err := h.uc.ListActiveOpenings(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewOpeningList(items))
}

// Get counts a view unless the owner is looking.
func (h *OpeningHandler) Get(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	o, err := h.uc.GetOpening(c.Context(), id)
	if err != nil {
		return err
	}
	if o.FounderID != userID {
		if err := h.uc.RecordOpeningView(c.Context(), id); err != nil {
			h.log.Warn("record opening view", zap.Stringer("opening_id", id), zap.Error(err))
		}
	}
	return response.OK(c, dto.NewOpeningResponse(o))
}

func (h *OpeningHandler) UpdateStatus(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req updateOpeningStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	o, err := h.uc.UpdateOpeningStatus(c.Context(), userID, id,
		opening.Status(strings.ToUpper(strings.TrimSpace(req.Status))), req.FilledBy)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewOpeningResponse(o))
}

func (h *OpeningHandler) Suggestions(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		return err
	}
	items, err := h.matching.GetSuggestions(c.Context(), userID, id, limit)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewSuggestionList(items))
}

func (h *OpeningHandler) ListMine(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	items, err := h.uc.ListFounderOpenings(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewOpeningList(items))
}
