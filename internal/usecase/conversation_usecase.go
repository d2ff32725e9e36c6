package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cofound/internal/domain"
	"cofound/internal/domain/conversation"
	"cofound/internal/domain/interest"
	"cofound/internal/domain/user"
)

const (
	DefaultMessagePage = 50
	MaxMessagePage     = 100
	maxMessageLength   = 5000
	previewLength      = 120
)

type SendMessageInput struct {
	Type          conversation.MessageType
	Body          string
	AttachmentURL string
}

type ConversationUsecase interface {
	CreateConversationFromMatch(ctx context.Context, userID, interestID uuid.UUID) (conversation.Conversation, domain.Outbox, error)
	SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, in SendMessageInput) (conversation.Message, domain.Outbox, error)
	GetMessages(ctx context.Context, userID, conversationID uuid.UUID, before *conversation.Cursor, limit int) ([]conversation.Message, error)
	MarkMessagesAsRead(ctx context.Context, userID, conversationID uuid.UUID, upTo *uuid.UUID) (int, error)
	GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (conversation.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error)
	ArchiveConversation(ctx context.Context, userID, conversationID uuid.UUID) (conversation.Conversation, error)
	UnarchiveConversation(ctx context.Context, userID, conversationID uuid.UUID) (conversation.Conversation, error)
	BlockConversation(ctx context.Context, userID, conversationID uuid.UUID) (conversation.Conversation, error)
}

type Conversations struct {
	conversations conversation.Repository
	messages      conversation.MessageRepository
	interests     interest.Repository
	users         user.Repository
	base
}

func NewConversationUsecase(
	conversations conversation.Repository,
	messages conversation.MessageRepository,
	interests interest.Repository,
	users user.Repository,
	log *zap.Logger,
	opts ...Option,
) *Conversations {
	return &Conversations{
		conversations: conversations,
		messages:      messages,
		interests:     interests,
		users:         users,
		base:          newBase(log, "conversation", opts),
	}
}

// CreateConversationFromMatch is idempotent per interest. Only the first call
// seeds the ice breaker.
func (u *Conversations) CreateConversationFromMatch(ctx context.Context, userID, interestID uuid.UUID) (conversation.Conversation, domain.Outbox, error) {
	i, err := u.interests.GetByID(ctx, interestID)
	if err != nil {
		return conversation.Conversation{}, nil, u.fail("get interest", err)
	}
	if userID != i.FounderID && userID != i.BuilderID {
		return conversation.Conversation{}, nil, domain.ErrNotParticipant
	}
	if !i.IsMutualMatch && i.Status != interest.StatusShortlisted {
		return conversation.Conversation{}, nil, domain.ErrNotMutualMatch
	}

	if i.ConversationID != nil {
		c, err := u.conversations.GetByID(ctx, *i.ConversationID)
		if err == nil {
			return c, nil, nil
		}
		if domain.Kind(err) != domain.ErrNotFound {
			return conversation.Conversation{}, nil, u.fail("get conversation", err)
		}
	}

	now := u.clock()
	c := conversation.Conversation{
		ID:         uuid.New(),
		InterestID: i.ID,
		FounderID:  i.FounderID,
		BuilderID:  i.BuilderID,
		Status:     conversation.StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	seed := conversation.Message{
		ID:             uuid.New(),
		ConversationID: c.ID,
		Type:           conversation.MessageIceBreaker,
		Body:           conversation.PickIceBreaker(u.pick),
		CreatedAt:      now,
	}
	out, created, err := u.conversations.CreateFromInterest(ctx, c, seed)
	if err != nil {
		return conversation.Conversation{}, nil, u.fail("create conversation", err)
	}
	if created {
		u.log.Info("conversation created", zap.Stringer("conversation_id", out.ID), zap.Stringer("interest_id", i.ID))
	}
	return out, nil, nil
}

func (u *Conversations) participantConversation(ctx context.Context, userID, conversationID uuid.UUID) (conversation.Conversation, error) {
	c, err := u.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return conversation.Conversation{}, u.fail("get conversation", err)
	}
	if !c.IsParticipant(userID) {
		return conversation.Conversation{}, domain.ErrNotParticipant
	}
	return c, nil
}

func (u *Conversations) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, in SendMessageInput) (conversation.Message, domain.Outbox, error) {
	if in.Type == "" {
		in.Type = conversation.MessageText
	}
	in.Body = strings.TrimSpace(in.Body)
	in.AttachmentURL = strings.TrimSpace(in.AttachmentURL)
	if !in.Type.UserSendable() || utf8.RuneCountInString(in.Body) > maxMessageLength {
		return conversation.Message{}, nil, domain.ErrInvalidInput
	}
	if in.Type == conversation.MessageText && in.Body == "" {
		return conversation.Message{}, nil, domain.ErrInvalidInput
	}
	if in.Type == conversation.MessageAttachment && in.AttachmentURL == "" {
		return conversation.Message{}, nil, domain.ErrInvalidInput
	}

	c, err := u.participantConversation(ctx, senderID, conversationID)
	if err != nil {
		return conversation.Message{}, nil, err
	}
	if c.Status != conversation.StatusActive {
		return conversation.Message{}, nil, domain.ErrConversationNotActive
	}

	sender := senderID
	m, err := u.messages.Create(ctx, conversation.Message{
		ID:             uuid.New(),
		ConversationID: c.ID,
		SenderID:       &sender,
		Type:           in.Type,
		Body:           in.Body,
		AttachmentURL:  in.AttachmentURL,
		CreatedAt:      u.clock(),
	})
	if err != nil {
		return conversation.Message{}, nil, u.fail("create message", err)
	}

	var out domain.Outbox
	out.Add(domain.EventNewMessage, c.Other(senderID), u.actor(ctx, u.users, senderID), map[string]any{
		"conversation_id": c.ID,
		"message_id":      m.ID,
		"type":            m.Type,
		"preview":         truncate(m.Body, previewLength),
	}, m.CreatedAt)
	return m, out, nil
}

// GetMessages pages newest first. Reads are allowed on any status.
func (u *Conversations) GetMessages(ctx context.Context, userID, conversationID uuid.UUID, before *conversation.Cursor, limit int) ([]conversation.Message, error) {
	if limit <= 0 {
		limit = DefaultMessagePage
	}
	if limit > MaxMessagePage {
		limit = MaxMessagePage
	}
	if _, err := u.participantConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	items, err := u.messages.List(ctx, conversationID, before, limit)
	if err != nil {
		return nil, u.fail("list messages", err)
	}
	return items, nil
}

// MarkMessagesAsRead marks the other side's unread messages up to and
// including upTo, or all of them when upTo is nil.
func (u *Conversations) MarkMessagesAsRead(ctx context.Context, userID, conversationID uuid.UUID, upTo *uuid.UUID) (int, error) {
	if _, err := u.participantConversation(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	now := u.clock()
	cutoff := now
	if upTo != nil {
		m, err := u.messages.GetByID(ctx, *upTo)
		if err != nil {
			return 0, u.fail("get message", err)
		}
		if m.ConversationID != conversationID {
			return 0, domain.ErrMessageNotFound
		}
		cutoff = m.CreatedAt
	}
	n, err := u.messages.MarkRead(ctx, conversationID, userID, cutoff, now)
	if err != nil {
		return 0, u.fail("mark read", err)
	}
	return n, nil
}

func (u *Conversations) GetConversation(ctx context.Context, userID, conversationID uuid.UUID) (conversation.Conversation, error) {
	return u.participantConversation(ctx, userID, conversationID)
}

func (u *Conversations) ListConversations(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	items, err := u.conversations.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, u.fail("list conversations", err)
	}
	return items, nil
}

func (u *Conversations) ArchiveConversation(ctx context.Context, userID, conversationID uuid.UUID) (conversation.Conversation, error) {
	return u.transition(ctx, userID, conversationID, conversation.StatusArchived)
}

func (u *Conversations) UnarchiveConversation(ctx context.Context, userID, conversationID uuid.UUID) (conversation.Conversation, error) {
	return u.transition(ctx, userID, conversationID, conversation.StatusActive)
}

func (u *Conversations) BlockConversation(ctx context.Context, userID, conversationID uuid.UUID) (conversation.Conversation, error) {
	return u.transition(ctx, userID, conversationID, conversation.StatusBlocked)
}

func (u *Conversations) transition(ctx context.Context, userID, conversationID uuid.UUID, to conversation.Status) (conversation.Conversation, error) {
	c, err := u.conversations.Update(ctx, conversationID, func(c *conversation.Conversation) error {
		if !c.IsParticipant(userID) {
			return domain.ErrNotParticipant
		}
		return conversation.Transition(c, to, u.clock())
	})
	if err != nil {
		return conversation.Conversation{}, u.fail("update conversation status", err)
	}
	return c, nil
}
