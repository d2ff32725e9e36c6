package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cofound/internal/domain"
	"cofound/internal/domain/conversation"
	"cofound/internal/domain/trial"
	"cofound/internal/domain/user"
)

const maxEndingWithinDays = 90

type SweepResult struct {
	Found     int
	Completed int
	Failed    int
}

type TrialUsecase interface {
	ProposeTrial(ctx context.Context, proposerID, conversationID uuid.UUID, p trial.Proposal) (trial.Trial, domain.Outbox, error)
	AcceptTrial(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, domain.Outbox, error)
	DeclineTrial(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, domain.Outbox, error)
	CancelTrial(ctx context.Context, userID, trialID uuid.UUID, reason string) (trial.Trial, domain.Outbox, error)
	CompleteTrial(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, domain.Outbox, error)
	SubmitFeedback(ctx context.Context, userID, trialID uuid.UUID, f trial.Feedback) (trial.Trial, domain.Outbox, error)
	AutoCompleteExpiredTrials(ctx context.Context) (SweepResult, domain.Outbox, error)
	GetTrial(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, error)
	ListTrialsForConversation(ctx context.Context, userID, conversationID uuid.UUID) ([]trial.Trial, error)
	ListTrialsEndingWithin(ctx context.Context, days int) ([]trial.Trial, error)
}

type Trials struct {
	trials        trial.Repository
	conversations conversation.Repository
	messages      conversation.MessageRepository
	users         user.Repository
	stats         user.StatsRepository
	base
}

func NewTrialUsecase(
	trials trial.Repository,
	conversations conversation.Repository,
	messages conversation.MessageRepository,
	users user.Repository,
	stats user.StatsRepository,
	log *zap.Logger,
	opts ...Option,
) *Trials {
	return &Trials{
		trials:        trials,
		conversations: conversations,
		messages:      messages,
		users:         users,
		stats:         stats,
		base:          newBase(log, "trial", opts),
	}
}

func trialData(t trial.Trial) map[string]any {
	return map[string]any{
		"trial_id":        t.ID,
		"conversation_id": t.ConversationID,
		"status":          t.Status,
	}
}

func (u *Trials) ProposeTrial(ctx context.Context, proposerID, conversationID uuid.UUID, p trial.Proposal) (trial.Trial, domain.Outbox, error) {
	if err := p.Validate(); err != nil {
		return trial.Trial{}, nil, err
	}
	c, err := u.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return trial.Trial{}, nil, u.fail("get conversation", err)
	}
	if !c.IsParticipant(proposerID) {
		return trial.Trial{}, nil, domain.ErrNotParticipant
	}
	if c.Status != conversation.StatusActive {
		return trial.Trial{}, nil, domain.ErrConversationNotActive
	}

	existing, err := u.trials.ListByConversation(ctx, c.ID)
	if err != nil {
		return trial.Trial{}, nil, u.fail("list conversation trials", err)
	}
	for _, t := range existing {
		if t.Status.Live() {
			return trial.Trial{}, nil, domain.ErrLiveTrialExists
		}
	}

	t, err := trial.New(c.ID, c.FounderID, c.BuilderID, proposerID, p, u.clock())
	if err != nil {
		return trial.Trial{}, nil, err
	}
	created, err := u.trials.Create(ctx, t)
	if err != nil {
		return trial.Trial{}, nil, u.fail("create trial", err)
	}

	actor := u.actor(ctx, u.users, proposerID)
	u.systemMessage(ctx, u.messages, c.ID, conversation.MessageTrialProposal,
		fmt.Sprintf("%s proposed a %d-day trial: %s", displayName(actor), created.DurationDays, created.Goal))

	var out domain.Outbox
	data := trialData(created)
	data["duration_days"] = created.DurationDays
	data["goal"] = created.Goal
	out.Add(domain.EventTrialProposed, created.Other(proposerID), actor, data, created.ProposedAt)
	return created, out, nil
}

func (u *Trials) AcceptTrial(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, domain.Outbox, error) {
	t, err := u.trials.Update(ctx, trialID, func(t *trial.Trial) error {
		return t.Accept(userID, u.clock())
	})
	if err != nil {
		return trial.Trial{}, nil, u.fail("accept trial", err)
	}

	if err := u.conversations.SetTrial(ctx, t.ConversationID, t.ID); err != nil {
		u.log.Warn("link trial to conversation", zap.Stringer("trial_id", t.ID), zap.Error(err))
	}
	u.systemMessage(ctx, u.messages, t.ConversationID, conversation.MessageTrialUpdate,
		fmt.Sprintf("Trial accepted. It runs until %s.", t.EndsAt.Format("Jan 2, 2006")))

	var out domain.Outbox
	data := trialData(t)
	data["ends_at"] = t.EndsAt
	out.Add(domain.EventTrialAccepted, t.ProposedBy, u.actor(ctx, u.users, userID), data, *t.AcceptedAt)
	return t, out, nil
}

// DeclineTrial records a cancellation with declined wording.
func (u *Trials) DeclineTrial(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, domain.Outbox, error) {
	t, err := u.trials.Update(ctx, trialID, func(t *trial.Trial) error {
		return t.Decline(userID, u.clock())
	})
	if err != nil {
		return trial.Trial{}, nil, u.fail("decline trial", err)
	}

	u.systemMessage(ctx, u.messages, t.ConversationID, conversation.MessageTrialUpdate, "Trial proposal declined.")

	var out domain.Outbox
	out.Add(domain.EventTrialDeclined, t.Other(userID), u.actor(ctx, u.users, userID), trialData(t), *t.CancelledAt)
	return t, out, nil
}

func (u *Trials) CancelTrial(ctx context.Context, userID, trialID uuid.UUID, reason string) (trial.Trial, domain.Outbox, error) {
	t, err := u.trials.Update(ctx, trialID, func(t *trial.Trial) error {
		return t.Cancel(userID, reason, u.clock())
	})
	if err != nil {
		return trial.Trial{}, nil, u.fail("cancel trial", err)
	}

	body := "Trial cancelled."
	if t.CancelReason != "" {
		body = fmt.Sprintf("Trial cancelled: %s", t.CancelReason)
	}
	u.systemMessage(ctx, u.messages, t.ConversationID, conversation.MessageTrialUpdate, body)

	var out domain.Outbox
	data := trialData(t)
	data["reason"] = t.CancelReason
	out.Add(domain.EventTrialCancelled, t.Other(userID), u.actor(ctx, u.users, userID), data, *t.CancelledAt)
	return t, out, nil
}

func (u *Trials) CompleteTrial(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, domain.Outbox, error) {
	return u.complete(ctx, trialID, userID)
}

// complete closes an active trial. A nil by means the sweep.
func (u *Trials) complete(ctx context.Context, trialID, by uuid.UUID) (trial.Trial, domain.Outbox, error) {
	var resolved bool
	t, err := u.trials.Update(ctx, trialID, func(t *trial.Trial) error {
		if by != uuid.Nil && !t.IsParticipant(by) {
			return domain.ErrNotParticipant
		}
		var err error
		resolved, err = t.Complete(u.clock())
		return err
	})
	if err != nil {
		return trial.Trial{}, nil, u.fail("complete trial", err)
	}

	u.incrementStat(ctx, u.stats, t.FounderID, user.StatTrialsCompleted)
	u.incrementStat(ctx, u.stats, t.BuilderID, user.StatTrialsCompleted)
	u.systemMessage(ctx, u.messages, t.ConversationID, conversation.MessageTrialUpdate,
		"Trial completed. Both of you can now submit feedback.")

	actor := domain.Actor{}
	if by != uuid.Nil {
		actor = u.actor(ctx, u.users, by)
	}
	var out domain.Outbox
	out.Add(domain.EventTrialCompleted, t.FounderID, actor, trialData(t), *t.CompletedAt)
	out.Add(domain.EventTrialCompleted, t.BuilderID, actor, trialData(t), *t.CompletedAt)
	if resolved {
		u.announceOutcome(ctx, t, actor, &out)
	}
	return t, out, nil
}

func (u *Trials) announceOutcome(ctx context.Context, t trial.Trial, actor domain.Actor, out *domain.Outbox) {
	body := "Both sides would like to continue working together."
	if t.Outcome == trial.OutcomeEnd {
		body = "The trial has ended. Thanks to both of you for giving it a go."
	}
	u.systemMessage(ctx, u.messages, t.ConversationID, conversation.MessageTrialUpdate, body)

	data := trialData(t)
	data["outcome"] = t.Outcome
	at := u.clock()
	out.Add(domain.EventTrialOutcome, t.FounderID, actor, data, at)
	out.Add(domain.EventTrialOutcome, t.BuilderID, actor, data, at)
}

// SubmitFeedback announces the outcome only from the submission that
// completes the pair; the row lock makes that submission unique.
func (u *Trials) SubmitFeedback(ctx context.Context, userID, trialID uuid.UUID, f trial.Feedback) (trial.Trial, domain.Outbox, error) {
	var resolved bool
	t, err := u.trials.Update(ctx, trialID, func(t *trial.Trial) error {
		var err error
		resolved, err = t.SubmitFeedback(userID, f, u.clock())
		return err
	})
	if err != nil {
		return trial.Trial{}, nil, u.fail("submit feedback", err)
	}

	var out domain.Outbox
	if resolved {
		u.announceOutcome(ctx, t, u.actor(ctx, u.users, userID), &out)
	}
	return t, out, nil
}

// AutoCompleteExpiredTrials completes every active trial past endsAt. Item
// failures are logged and counted; the batch continues.
func (u *Trials) AutoCompleteExpiredTrials(ctx context.Context) (SweepResult, domain.Outbox, error) {
	due, err := u.trials.ListActiveEndingBefore(ctx, u.clock())
	if err != nil {
		return SweepResult{}, nil, u.fail("list expired trials", err)
	}

	res := SweepResult{Found: len(due)}
	var out domain.Outbox
	for _, t := range due {
		if err := ctx.Err(); err != nil {
			u.log.Warn("sweep interrupted", zap.Int("remaining", len(due)-res.Completed-res.Failed), zap.Error(err))
			break
		}
		_, events, err := u.complete(ctx, t.ID, uuid.Nil)
		if err != nil {
			res.Failed++
			u.log.Warn("auto-complete trial", zap.Stringer("trial_id", t.ID), zap.Error(err))
			continue
		}
		res.Completed++
		out = append(out, events...)
	}

	u.log.Info("expired trial sweep finished",
		zap.Int("found", res.Found),
		zap.Int("completed", res.Completed),
		zap.Int("failed", res.Failed),
	)
	return res, out, nil
}

func (u *Trials) GetTrial(ctx context.Context, userID, trialID uuid.UUID) (trial.Trial, error) {
	t, err := u.trials.GetByID(ctx, trialID)
	if err != nil {
		return trial.Trial{}, u.fail("get trial", err)
	}
	if !t.IsParticipant(userID) {
		return trial.Trial{}, domain.ErrNotParticipant
	}
	return t, nil
}

func (u *Trials) ListTrialsForConversation(ctx context.Context, userID, conversationID uuid.UUID) ([]trial.Trial, error) {
	c, err := u.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, u.fail("get conversation", err)
	}
	if !c.IsParticipant(userID) {
		return nil, domain.ErrNotParticipant
	}
	items, err := u.trials.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, u.fail("list conversation trials", err)
	}
	return items, nil
}

// ListTrialsEndingWithin includes active trials already past endsAt that the
// sweep has not reached yet.
func (u *Trials) ListTrialsEndingWithin(ctx context.Context, days int) ([]trial.Trial, error) {
	if days < 1 || days > maxEndingWithinDays {
		return nil, domain.ErrInvalidInput
	}
	items, err := u.trials.ListActiveEndingBefore(ctx, u.clock().Add(time.Duration(days)*trial.Day))
	if err != nil {
		return nil, u.fail("list ending trials", err)
	}
	return items, nil
}

func displayName(a domain.Actor) string {
	if a.Name != "" {
		return a.Name
	}
	return "Your match"
}
