package trial

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"cofound/internal/domain"
)

const Day = 24 * time.Hour

type Action string

const (
	ActionAccept   Action = "accept"
	ActionDecline  Action = "decline"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

var transitions = map[Status]map[Action]Status{
	StatusProposed: {
		ActionAccept:  StatusActive,
		ActionDecline: StatusCancelled,
		ActionCancel:  StatusCancelled,
	},
	StatusActive: {
		ActionCancel:   StatusCancelled,
		ActionComplete: StatusCompleted,
	},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusDeclined:  {},
}

func Next(from Status, a Action) (Status, bool) {
	to, ok := transitions[from][a]
	return to, ok
}

func ValidDuration(days int) bool {
	return days == 7 || days == 14 || days == 21
}

type Proposal struct {
	DurationDays     int
	Goal             string
	CheckinFrequency CheckinFrequency
}

func (p Proposal) Validate() error {
	if !ValidDuration(p.DurationDays) {
		return domain.ErrInvalidDuration
	}
	if strings.TrimSpace(p.Goal) == "" || !p.CheckinFrequency.Valid() {
		return domain.ErrInvalidInput
	}
	return nil
}

// New builds a PROPOSED trial between the two conversation participants.
func New(conversationID, founderID, builderID, proposer uuid.UUID, p Proposal, now time.Time) (Trial, error) {
	if err := p.Validate(); err != nil {
		return Trial{}, err
	}
	t := now.UTC()
	return Trial{
		ID:               uuid.New(),
		ConversationID:   conversationID,
		FounderID:        founderID,
		BuilderID:        builderID,
		ProposedBy:       proposer,
		DurationDays:     p.DurationDays,
		Goal:             strings.TrimSpace(p.Goal),
		CheckinFrequency: p.CheckinFrequency,
		Status:           StatusProposed,
		ProposedAt:       t,
		Outcome:          OutcomePending,
		UpdatedAt:        t,
	}, nil
}

func (t *Trial) apply(a Action, now time.Time) error {
	to, ok := Next(t.Status, a)
	if !ok {
		return domain.ErrInvalidTransition
	}
	t.Status = to
	t.UpdatedAt = now
	return nil
}

// Accept activates a proposed trial. endsAt is acceptedAt plus the duration.
func (t *Trial) Accept(userID uuid.UUID, now time.Time) error {
	if !t.IsParticipant(userID) {
		return domain.ErrNotParticipant
	}
	if t.Status != StatusProposed {
		return domain.ErrInvalidTransition
	}
	if userID == t.ProposedBy {
		return domain.ErrSelfAcceptance
	}
	now = now.UTC()
	if err := t.apply(ActionAccept, now); err != nil {
		return err
	}
	ends := now.Add(time.Duration(t.DurationDays) * Day)
	t.AcceptedAt = &now
	t.EndsAt = &ends
	return nil
}

func (t *Trial) Decline(userID uuid.UUID, now time.Time) error {
	if !t.IsParticipant(userID) {
		return domain.ErrNotParticipant
	}
	if t.Status != StatusProposed {
		return domain.ErrInvalidTransition
	}
	if userID == t.ProposedBy {
		return domain.ErrSelfDecline
	}
	if err := t.markCancelled(ActionDecline, userID, "", now); err != nil {
		return err
	}
	t.Declined = true
	return nil
}

func (t *Trial) Cancel(userID uuid.UUID, reason string, now time.Time) error {
	if !t.IsParticipant(userID) {
		return domain.ErrNotParticipant
	}
	return t.markCancelled(ActionCancel, userID, reason, now)
}

func (t *Trial) markCancelled(a Action, userID uuid.UUID, reason string, now time.Time) error {
	now = now.UTC()
	if err := t.apply(a, now); err != nil {
		return err
	}
	by := userID
	t.CancelledAt = &now
	t.CancelledBy = &by
	t.CancelReason = strings.TrimSpace(reason)
	return nil
}

// Complete closes an active trial. It reports whether the outcome was
// resolved immediately because both feedback records were already present.
func (t *Trial) Complete(now time.Time) (bool, error) {
	now = now.UTC()
	if err := t.apply(ActionComplete, now); err != nil {
		return false, err
	}
	t.CompletedAt = &now
	t.Outcome = DeriveOutcome(t.FounderFeedback, t.BuilderFeedback)
	return t.Outcome != OutcomePending, nil
}

func (f Feedback) Validate() error {
	for _, r := range []int{f.Communication, f.Reliability, f.SkillMatch} {
		if r < 1 || r > 5 {
			return domain.ErrInvalidRating
		}
	}
	return nil
}

// SubmitFeedback records one side's write-once feedback. It reports whether
// this submission completed the pair and therefore resolved the outcome.
func (t *Trial) SubmitFeedback(userID uuid.UUID, f Feedback, now time.Time) (bool, error) {
	side, ok := t.SideOf(userID)
	if !ok {
		return false, domain.ErrNotParticipant
	}
	if t.Status != StatusCompleted {
		return false, domain.ErrInvalidTransition
	}
	if err := f.Validate(); err != nil {
		return false, err
	}

	slot := &t.FounderFeedback
	if side == SideBuilder {
		slot = &t.BuilderFeedback
	}
	if *slot != nil {
		return false, domain.ErrDuplicateFeedback
	}

	now = now.UTC()
	f.PrivateNotes = strings.TrimSpace(f.PrivateNotes)
	f.SubmittedAt = now
	*slot = &f
	t.UpdatedAt = now

	before := t.Outcome
	t.Outcome = DeriveOutcome(t.FounderFeedback, t.BuilderFeedback)
	return before == OutcomePending && t.Outcome != OutcomePending, nil
}

// DeriveOutcome is CONTINUE only when both sides would continue, END when
// either would not, and PENDING until both records exist.
func DeriveOutcome(founder, builder *Feedback) Outcome {
	if founder == nil || builder == nil {
		return OutcomePending
	}
	if founder.WouldContinue && builder.WouldContinue {
		return OutcomeContinue
	}
	return OutcomeEnd
}
