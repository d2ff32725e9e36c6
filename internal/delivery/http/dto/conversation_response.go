package dto

import (
	"time"

	"github.com/google/uuid"

	"cofound/internal/domain/conversation"
)

type ConversationResponse struct {
	ID            uuid.UUID           `json:"id"`
	InterestID    uuid.UUID           `json:"interest_id"`
	FounderID     uuid.UUID           `json:"founder_id"`
	BuilderID     uuid.UUID           `json:"builder_id"`
	Status        conversation.Status `json:"status"`
	LastMessageID *uuid.UUID          `json:"last_message_id,omitempty"`
	LastMessageAt *time.Time          `json:"last_message_at,omitempty"`
	MessageCount  int                 `json:"message_count"`
	TrialID       *uuid.UUID          `json:"trial_id,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func NewConversationResponse(c conversation.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:            c.ID,
		InterestID:    c.InterestID,
		FounderID:     c.FounderID,
		BuilderID:     c.BuilderID,
		Status:        c.Status,
		LastMessageID: c.LastMessageID,
		LastMessageAt: c.LastMessageAt,
		MessageCount:  c.MessageCount,
		TrialID:       c.TrialID,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func NewConversationList(items []conversation.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(items))
	for _, c := range items {
		out = append(out, NewConversationResponse(c))
	}
	return out
}

type MessageResponse struct {
	ID             uuid.UUID                `json:"id"`
	ConversationID uuid.UUID                `json:"conversation_id"`
	SenderID       *uuid.UUID               `json:"sender_id"`
	Type           conversation.MessageType `json:"type"`
	Body           string                   `json:"body"`
	AttachmentURL  string                   `json:"attachment_url,omitempty"`
	ReadAt         *time.Time               `json:"read_at,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

func NewMessageResponse(m conversation.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Type:           m.Type,
		Body:           m.Body,
		AttachmentURL:  m.AttachmentURL,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

type MessagePageResponse struct {
	Items []MessageResponse `json:"items"`
	// NextBefore and NextBeforeID form the cursor for the next older page; nil when exhausted.
	NextBefore   *time.Time `json:"next_before,omitempty"`
	NextBeforeID *uuid.UUID `json:"next_before_id,omitempty"`
}

func NewMessagePage(items []conversation.Message, limit int) MessagePageResponse {
	out := MessagePageResponse{Items: make([]MessageResponse, 0, len(items))}
	for _, m := range items {
		out.Items = append(out.Items, NewMessageResponse(m))
	}
	if n := len(items); n > 0 && n >= limit {
		last := conversation.CursorOf(items[n-1])
		out.NextBefore, out.NextBeforeID = &last.CreatedAt, &last.ID
	}
	return out
}

type MarkReadResponse struct {
	Marked int `json:"marked"`
}
