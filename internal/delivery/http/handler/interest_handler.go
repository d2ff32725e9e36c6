package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"cofound/internal/delivery/http/dto"
	"cofound/internal/delivery/http/middleware"
	"cofound/internal/domain"
	"cofound/internal/domain/interest"
	"cofound/internal/domain/user"
	"cofound/internal/pkg/response"
	"cofound/internal/usecase"
)

type InterestHandler struct {
	uc     usecase.InterestUsecase
	events EventSink
}

type interestTransition func(ctx context.Context, userID, interestID uuid.UUID) (interest.Interest, domain.Outbox, error)

type expressInterestRequest struct {
	Note string `json:"note"`
}

func NewInterestHandler(uc usecase.InterestUsecase, events EventSink) *InterestHandler {
	return &InterestHandler{uc: uc, events: sinkOrNoop(events)}
}

func (h *InterestHandler) RegisterRoutes(r fiber.Router) {
	builder := middleware.RequireRole(user.RoleBuilder)
	founder := middleware.RequireRole(user.RoleFounder)
	party := middleware.RequireRole(user.RoleFounder, user.RoleBuilder)

	r.Post("/openings/:id/interests", builder, h.Express)
	r.Get("/openings/:id/interests", founder, h.ListForOpening)
	r.Post("/interests/:id/withdraw", builder, h.Withdraw)
	r.Post("/interests/:id/shortlist", founder, h.Shortlist)
	r.Post("/interests/:id/pass", founder, h.Pass)
	r.Get("/matches", party, h.MutualMatches)
	r.Get("/matches/check", party, h.CheckMutualMatch)
	r.Get("/me/interests", builder, h.ListMine)
	r.Get("/me/quota", builder, h.Quota)
}

func (h *InterestHandler) Express(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	openingID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req expressInterestRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	i, out, err := h.uc.ExpressInterest(c.Context(), userID, openingID, req.Note)
	if err != nil {
		return err
	}
	h.events.Dispatch(c.Context(), out)
	return response.Created(c, dto.NewInterestResponse(i))
}

func (h *InterestHandler) Withdraw(c fiber.Ctx) error {
	return h.transition(c, h.uc.WithdrawInterest)
}

func (h *InterestHandler) Shortlist(c fiber.Ctx) error {
	return h.transition(c, h.uc.ShortlistBuilder)
}

func (h *InterestHandler) Pass(c fiber.Ctx) error {
	return h.transition(c, h.uc.PassOnBuilder)
}

func (h *InterestHandler) transition(c fiber.Ctx, fn interestTransition) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	interestID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	i, out, err := fn(c.Context(), userID, interestID)
	if err != nil {
		return err
	}
	h.events.Dispatch(c.Context(), out)
	return response.OK(c, dto.NewInterestResponse(i))
}

func (h *InterestHandler) MutualMatches(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	items, err := h.uc.GetMutualMatches(c.Context(), userID, middleware.Role(c))
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewInterestList(items))
}

func (h *InterestHandler) CheckMutualMatch(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	founderID, err := uuidQuery(c, "founder_id")
	if err != nil {
		return err
	}
	builderID, err := uuidQuery(c, "builder_id")
	if err != nil {
		return err
	}
	ok, err := h.uc.CheckMutualMatch(c.Context(), userID, middleware.Role(c), founderID, builderID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.MutualMatchCheckResponse{FounderID: founderID, BuilderID: builderID, IsMutualMatch: ok})
}

func (h *InterestHandler) ListForOpening(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	openingID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var status *interest.Status
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("status"))); raw != "" {
		s := interest.Status(raw)
		switch s {
		case interest.StatusInterested, interest.StatusShortlisted, interest.StatusPassed, interest.StatusWithdrawn:
		default:
			return middleware.BadRequest("Invalid status", nil)
		}
		status = &s
	}
	items, err := h.uc.ListOpeningInterests(c.Context(), userID, openingID, status)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewInterestList(items))
}

func (h *InterestHandler) ListMine(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	items, err := h.uc.ListBuilderInterests(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewInterestList(items))
}

func (h *InterestHandler) Quota(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	q, err := h.uc.DailyQuota(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewQuotaResponse(q))
}
