package routes

import (
	"github.com/gofiber/fiber/v3"

	"cofound/internal/delivery/http/handler"
	"cofound/internal/delivery/http/middleware"
	v1 "cofound/internal/delivery/http/routes/v1"
	"cofound/internal/ws"
)

type Registry struct {
	health *handler.HealthHandler
	socket *ws.Handler
	api    v1.Handlers
	auth   *middleware.AuthMiddleware
}

func NewRegistry(health *handler.HealthHandler, socket *ws.Handler, auth *middleware.AuthMiddleware, api v1.Handlers) *Registry {
	return &Registry{health: health, socket: socket, api: api, auth: auth}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerSocket(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.health != nil {
		r.health.RegisterRoutes(app)
	}
}

// The socket authenticates its own upgrade request.
func (r *Registry) registerSocket(app *fiber.App) {
	if r.socket != nil {
		app.Get("/ws", r.socket.HandleEvents)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	v1.Register(api.Group("/v1"), r.auth, r.api)
}
