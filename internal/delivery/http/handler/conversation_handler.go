package handler

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"cofound/internal/delivery/http/dto"
	"cofound/internal/delivery/http/middleware"
	"cofound/internal/domain/conversation"
	"cofound/internal/pkg/response"
	"cofound/internal/usecase"
)

type ConversationHandler struct {
	uc     usecase.ConversationUsecase
	events EventSink
}

type sendMessageRequest struct {
	Type          string `json:"type"`
	Body          string `json:"body"`
	AttachmentURL string `json:"attachment_url"`
}

type markReadRequest struct {
	UpToMessageID *uuid.UUID `json:"up_to_message_id"`
}

type conversationTransition func(ctx context.Context, userID, conversationID uuid.UUID) (conversation.Conversation, error)

func NewConversationHandler(uc usecase.ConversationUsecase, events EventSink) *ConversationHandler {
	return &ConversationHandler{uc: uc, events: sinkOrNoop(events)}
}

func (h *ConversationHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/interests/:id/conversation", h.CreateFromMatch)
	r.Get("/conversations", h.List)
	r.Get("/conversations/:id", h.Get)
	r.Get("/conversations/:id/messages", h.Messages)
	r.Post("/conversations/:id/messages", h.Send)
	r.Post("/conversations/:id/read", h.MarkRead)
	r.Post("/conversations/:id/archive", h.Archive)
	r.Post("/conversations/:id/unarchive", h.Unarchive)
	r.Post("/conversations/:id/block", h.Block)
}

func (h *ConversationHandler) CreateFromMatch(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	interestID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	conv, out, err := h.uc.CreateConversationFromMatch(c.Context(), userID, interestID)
	if err != nil {
		return err
	}
	h.events.Dispatch(c.Context(), out)
	return response.Created(c, dto.NewConversationResponse(conv))
}

func (h *ConversationHandler) List(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	items, err := h.uc.ListConversations(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewConversationList(items))
}

func (h *ConversationHandler) Get(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	conv, err := h.uc.GetConversation(c.Context(), userID, id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewConversationResponse(conv))
}

func (h *ConversationHandler) Messages(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	before, err := cursorQuery(c)
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		return err
	}
	items, err := h.uc.GetMessages(c.Context(), userID, id, before, limit)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = usecase.DefaultMessagePage
	}
	return response.OK(c, dto.NewMessagePage(items, min(limit, usecase.MaxMessagePage)))
}

func (h *ConversationHandler) Send(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	typ := conversation.MessageType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if typ == "" {
		typ = conversation.MessageText
	}

	m, out, err := h.uc.SendMessage(c.Context(), userID, id, usecase.SendMessageInput{
		Type:          typ,
		Body:          req.Body,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		return err
	}
	h.events.Dispatch(c.Context(), out)
	return response.Created(c, dto.NewMessageResponse(m))
}

func (h *ConversationHandler) MarkRead(c fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req markReadRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	n, err := h.uc.MarkMessagesAsRead(c.Context(), userID, id, req.UpToMessageID)
	if err != nil {
		return err
	}
	return response.OK(c, dto.MarkReadResponse{Marked: n})
}

func (h *ConversationHandler) Archive(c fiber.Ctx) error {
	return h.transition(c, h.uc.ArchiveConversation)
}

func (h *ConversationHandler) Unarchive(c fiber.Ctx) error {
	return h.transition(c, h.uc.UnarchiveConversation)
}

func (h *ConversationHandler) Block(c fiber.Ctx) error {
	return h.transition(c, h.uc.BlockConversation)
}

func (h *ConversationHandler) transition(c fiber.Ctx, fn conversationTransition) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	conv, err := fn(c.Context(), userID, id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewConversationResponse(conv))
}

// cursorQuery reads before and before_id together; either alone is rejected.
func cursorQuery(c fiber.Ctx) (*conversation.Cursor, error) {
	at, err := timeQuery(c, "before")
	if err != nil {
		return nil, err
	}
	hasID := strings.TrimSpace(c.Query("before_id")) != ""
	if at == nil && !hasID {
		return nil, nil
	}
	if at == nil {
		return nil, middleware.BadRequest("before_id requires before", nil)
	}
	id, err := uuidQuery(c, "before_id")
	if err != nil {
		return nil, err
	}
	return &conversation.Cursor{CreatedAt: *at, ID: id}, nil
}
