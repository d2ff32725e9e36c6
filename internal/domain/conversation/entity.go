package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusArchived Status = "ARCHIVED"
	StatusBlocked  Status = "BLOCKED"
)

type MessageType string

const (
	MessageText          MessageType = "TEXT"
	MessageSystem        MessageType = "SYSTEM"
	MessageIceBreaker    MessageType = "ICE_BREAKER"
	MessageTrialProposal MessageType = "TRIAL_PROPOSAL"
	MessageTrialUpdate   MessageType = "TRIAL_UPDATE"
	MessageAttachment    MessageType = "ATTACHMENT"
)

func (t MessageType) UserSendable() bool {
	return t == MessageText || t == MessageAttachment
}

type Conversation struct {
	ID            uuid.UUID
	InterestID    uuid.UUID
	FounderID     uuid.UUID
	BuilderID     uuid.UUID
	Status        Status
	LastMessageID *uuid.UUID
	LastMessageAt *time.Time
	MessageCount  int
	TrialID       *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c Conversation) IsParticipant(userID uuid.UUID) bool {
	return userID != uuid.Nil && (userID == c.FounderID || userID == c.BuilderID)
}

// Other returns the participant that is not userID.
func (c Conversation) Other(userID uuid.UUID) uuid.UUID {
	if userID == c.FounderID {
		return c.BuilderID
	}
	return c.FounderID
}

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       *uuid.UUID
	Type           MessageType
	Body           string
	AttachmentURL  string
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// Cursor marks the oldest message of a page. The next page holds messages
// strictly older in (CreatedAt, ID) order, so equal timestamps never split.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorOf returns the cursor positioned at m.
func CursorOf(m Message) Cursor {
	return Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
}

// After reports whether m sorts strictly after c, newest first.
func (c Cursor) After(m Message) bool {
	if !m.CreatedAt.Equal(c.CreatedAt) {
		return m.CreatedAt.Before(c.CreatedAt)
	}
	return m.ID.String() < c.ID.String()
}

type Repository interface {
	// CreateFromInterest inserts c and its seed message unless a conversation for
	// c.InterestID exists, in which case the existing one is returned with created=false.
	CreateFromInterest(ctx context.Context, c Conversation, seed Message) (out Conversation, created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (Conversation, error)
	GetByInterestID(ctx context.Context, interestID uuid.UUID) (Conversation, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]Conversation, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*Conversation) error) (Conversation, error)
	SetTrial(ctx context.Context, id uuid.UUID, trialID uuid.UUID) error
}

type MessageRepository interface {
	// Create inserts m only while its conversation is ACTIVE, bumping the
	// conversation's counter and last-message pointer in the same statement batch.
	Create(ctx context.Context, m Message) (Message, error)
	GetByID(ctx context.Context, id uuid.UUID) (Message, error)
	// List returns messages newest first by (created_at, id), starting after before.
	List(ctx context.Context, conversationID uuid.UUID, before *Cursor, limit int) ([]Message, error)
	// MarkRead stamps readAt on unread messages not sent by readerID created at or before upTo.
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, upTo time.Time, at time.Time) (int, error)
}
