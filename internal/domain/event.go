package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventNewInterest    EventType = "new_interest"
	EventShortlisted    EventType = "shortlisted"
	EventNewMessage     EventType = "new_message"
	EventTrialProposed  EventType = "trial_proposed"
	EventTrialAccepted  EventType = "trial_accepted"
	EventTrialDeclined  EventType = "trial_declined"
	EventTrialCancelled EventType = "trial_cancelled"
	EventTrialCompleted EventType = "trial_completed"
	EventTrialOutcome   EventType = "trial_outcome"
)

// Actor is the denormalized display info of whoever caused an event.
// A nil user id means the system.
type Actor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

type Event struct {
	Type        EventType      `json:"type"`
	RecipientID uuid.UUID      `json:"recipient_id"`
	Actor       Actor          `json:"actor"`
	Data        map[string]any `json:"data,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// Outbox collects the events produced by one operation, in emission order.
type Outbox []Event

func (o *Outbox) Add(typ EventType, recipient uuid.UUID, actor Actor, data map[string]any, at time.Time) {
	if recipient == uuid.Nil {
		return
	}
	*o = append(*o, Event{
		Type:        typ,
		RecipientID: recipient,
		Actor:       actor,
		Data:        data,
		OccurredAt:  at.UTC(),
	})
}
