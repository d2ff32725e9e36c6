package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cofound/internal/database"
	"cofound/internal/domain"
	"cofound/internal/domain/conversation"
)

type PostgresConversationRepository struct {
	db database.DB
}

func NewPostgresConversationRepository(db database.DB) *PostgresConversationRepository {
	return &PostgresConversationRepository{db: db}
}

const conversationColumns = `id, interest_id, founder_id, builder_id, status, last_message_id,
	last_message_at, message_count, trial_id, created_at, updated_at`

func scanConversation(s scanner) (conversation.Conversation, error) {
	var (
		c      conversation.Conversation
		status string
	)
	err := s.Scan(
		&c.ID, &c.InterestID, &c.FounderID, &c.BuilderID, &status, &c.LastMessageID,
		&c.LastMessageAt, &c.MessageCount, &c.TrialID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return conversation.Conversation{}, err
	}
	c.Status = conversation.Status(status)
	return c, nil
}

// CreateFromInterest relies on UNIQUE(interest_id): a concurrent loser's
// insert is a no-op and it reads back the winner's row.
func (r *PostgresConversationRepository) CreateFromInterest(ctx context.Context, c conversation.Conversation, seed conversation.Message) (conversation.Conversation, bool, error) {
	var (
		out     conversation.Conversation
		created bool
	)
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`INSERT INTO conversations (id, interest_id, founder_id, builder_id, status, message_count, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, 0, $6, $6)
			 ON CONFLICT (interest_id) DO NOTHING`,
			c.ID, c.InterestID, c.FounderID, c.BuilderID, string(c.Status), c.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		if n == 0 {
			existing, err := scanConversation(tx.QueryRow(ctx,
				`SELECT `+conversationColumns+` FROM conversations WHERE interest_id = $1`, c.InterestID))
			if err != nil {
				return notFound(err, domain.ErrConversationNotFound, "get existing conversation")
			}
			out = existing
			return nil
		}

		seed.ConversationID = c.ID
		if err := insertMessage(ctx, tx, seed); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE interests SET conversation_id = $2 WHERE id = $1`, c.InterestID, c.ID); err != nil {
			return fmt.Errorf("link interest: %w", err)
		}
		row, err := scanConversation(tx.QueryRow(ctx,
			`UPDATE conversations
			 SET message_count = 1, last_message_id = $2, last_message_at = $3
			 WHERE id = $1
			 RETURNING `+conversationColumns,
			c.ID, seed.ID, seed.CreatedAt,
		))
		if err != nil {
			return fmt.Errorf("seed conversation: %w", err)
		}
		out, created = row, true
		return nil
	})
	if err != nil {
		return conversation.Conversation{}, false, err
	}
	return out, created, nil
}

func (r *PostgresConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	c, err := scanConversation(r.db.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
	if err != nil {
		return conversation.Conversation{}, notFound(err, domain.ErrConversationNotFound, "get conversation")
	}
	return c, nil
}

func (r *PostgresConversationRepository) GetByInterestID(ctx context.Context, interestID uuid.UUID) (conversation.Conversation, error) {
	c, err := scanConversation(r.db.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE interest_id = $1`, interestID))
	if err != nil {
		return conversation.Conversation{}, notFound(err, domain.ErrConversationNotFound, "get conversation by interest")
	}
	return c, nil
}

func (r *PostgresConversationRepository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE founder_id = $1 OR builder_id = $1
		 ORDER BY COALESCE(last_message_at, created_at) DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return collect(rows, scanConversation)
}

func (r *PostgresConversationRepository) Update(ctx context.Context, id uuid.UUID, fn func(*conversation.Conversation) error) (conversation.Conversation, error) {
	var out conversation.Conversation
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		c, err := scanConversation(tx.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound(err, domain.ErrConversationNotFound, "lock conversation")
		}
		if err := fn(&c); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE conversations SET status = $2, trial_id = $3, updated_at = $4 WHERE id = $1`,
			c.ID, string(c.Status), c.TrialID, c.UpdatedAt,
		); err != nil {
			return fmt.Errorf("update conversation: %w", err)
		}
		out = c
		return nil
	})
	return out, err
}

func (r *PostgresConversationRepository) SetTrial(ctx context.Context, id uuid.UUID, trialID uuid.UUID) error {
	n, err := r.db.Exec(ctx, `UPDATE conversations SET trial_id = $2, updated_at = now() WHERE id = $1`, id, trialID)
	if err != nil {
		return fmt.Errorf("set conversation trial: %w", err)
	}
	if n == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

type PostgresMessageRepository struct {
	db database.DB
}

func NewPostgresMessageRepository(db database.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

const messageColumns = `id, conversation_id, sender_id, type, body, attachment_url, read_at, created_at`

func scanMessage(s scanner) (conversation.Message, error) {
	var (
		m   conversation.Message
		typ string
	)
	if err := s.Scan(&m.ID, &m.ConversationID, &m.SenderID, &typ, &m.Body, &m.AttachmentURL, &m.ReadAt, &m.CreatedAt); err != nil {
		return conversation.Message{}, err
	}
	m.Type = conversation.MessageType(typ)
	return m, nil
}

func insertMessage(ctx context.Context, q database.Querier, m conversation.Message) error {
	_, err := q.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, type, body, attachment_url, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.ConversationID, m.SenderID, string(m.Type), m.Body, m.AttachmentURL, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Create bumps the conversation row first; the status predicate makes the
// ACTIVE check and the counter increment a single atomic step.
func (r *PostgresMessageRepository) Create(ctx context.Context, m conversation.Message) (conversation.Message, error) {
	err := database.WithTx(ctx, r.db, func(tx database.Tx) error {
		n, err := tx.Exec(ctx,
			`UPDATE conversations
			 SET message_count = message_count + 1, last_message_id = $2, last_message_at = $3, updated_at = $3
			 WHERE id = $1 AND status = 'ACTIVE'`,
			m.ConversationID, m.ID, m.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("bump conversation: %w", err)
		}
		if n == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM conversations WHERE id = $1)`, m.ConversationID).Scan(&exists); err != nil {
				return fmt.Errorf("check conversation: %w", err)
			}
			if !exists {
				return domain.ErrConversationNotFound
			}
			return domain.ErrConversationNotActive
		}
		return insertMessage(ctx, tx, m)
	})
	if err != nil {
		return conversation.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (conversation.Message, error) {
	m, err := scanMessage(r.db.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		return conversation.Message{}, notFound(err, domain.ErrMessageNotFound, "get message")
	}
	return m, nil
}

func (r *PostgresMessageRepository) List(ctx context.Context, conversationID uuid.UUID, before *conversation.Cursor, limit int) ([]conversation.Message, error) {
	var (
		at *time.Time
		id *uuid.UUID
	)
	if before != nil {
		at, id = &before.CreatedAt, &before.ID
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE conversation_id = $1 AND ($2::timestamptz IS NULL OR (created_at, id) < ($2, $3::uuid))
		 ORDER BY created_at DESC, id DESC
		 LIMIT $4`,
		conversationID, at, id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return collect(rows, scanMessage)
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID, upTo time.Time, at time.Time) (int, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE messages SET read_at = $4
		 WHERE conversation_id = $1
		   AND read_at IS NULL
		   AND sender_id IS DISTINCT FROM $2
		   AND created_at <= $3`,
		conversationID, readerID, upTo, at,
	)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return int(n), nil
}
