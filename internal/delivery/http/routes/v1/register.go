package v1

import (
	"github.com/gofiber/fiber/v3"

	"cofound/internal/delivery/http/handler"
	"cofound/internal/delivery/http/middleware"
	"cofound/internal/domain/user"
)

type Handlers struct {
	Interests     *handler.InterestHandler
	Conversations *handler.ConversationHandler
	Trials        *handler.TrialHandler
	Openings      *handler.OpeningHandler
	Admin         *handler.AdminHandler
}

func Register(r fiber.Router, auth *middleware.AuthMiddleware, h Handlers) {
	if r == nil || auth == nil {
		return
	}

	protected := r.Group("", auth.Middleware())

	if h.Openings != nil {
		h.Openings.RegisterRoutes(protected)
	}
	if h.Interests != nil {
		h.Interests.RegisterRoutes(protected)
	}
	if h.Conversations != nil {
		h.Conversations.RegisterRoutes(protected)
	}
	if h.Trials != nil {
		h.Trials.RegisterRoutes(protected)
	}
	if h.Admin != nil {
		admin := protected.Group("/admin", middleware.RequireRole(user.RoleAdmin))
		h.Admin.RegisterRoutes(admin)
	}
}
