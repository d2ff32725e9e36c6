package ws

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cofound/internal/pkg/jwt"
)

type Handler struct {
	hub    *Hub
	tokens jwt.Service
	log    *zap.Logger
}

func NewHandler(hub *Hub, tokens jwt.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{hub: hub, tokens: tokens, log: log.Named("ws")}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleEvents upgrades an authenticated request to the per-user event stream.
// Browsers cannot set headers on upgrade, so the token may come as ?token=.
func (h *Handler) HandleEvents(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}

	return adaptor.HTTPHandlerFunc(h.upgrade)(c)
}

func (h *Handler) upgrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	h.serve(conn, userID)
}

func (h *Handler) authenticate(r *http.Request) (uuid.UUID, bool) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		parts := strings.SplitN(strings.TrimSpace(r.Header.Get("Authorization")), " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
		}
	}
	if token == "" || h.tokens == nil {
		return uuid.Nil, false
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		return uuid.Nil, false
	}
	return claims.UserID, true
}

func (h *Handler) serve(conn *websocket.Conn, userID uuid.UUID) {
	client := NewClient(h.hub, conn, userID)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}
