package trial

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cofound/internal/domain"
)

var t0 = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newTrial(t *testing.T, days int, proposerIsFounder bool) Trial {
	t.Helper()
	founder, builder := uuid.New(), uuid.New()
	proposer := builder
	if proposerIsFounder {
		proposer = founder
	}
	tr, err := New(uuid.New(), founder, builder, proposer, Proposal{
		DurationDays:     days,
		Goal:             "ship the onboarding flow",
		CheckinFrequency: CheckinWeekly,
	}, t0)
	require.NoError(t, err)
	return tr
}

func completed(t *testing.T) Trial {
	t.Helper()
	tr := newTrial(t, 7, true)
	require.NoError(t, tr.Accept(tr.BuilderID, t0))
	_, err := tr.Complete(t0.Add(7 * Day))
	require.NoError(t, err)
	return tr
}

func TestNew_RejectsInvalidDuration(t *testing.T) {
	for _, d := range []int{0, 1, 6, 8, 15, 28, -7} {
		_, err := New(uuid.New(), uuid.New(), uuid.New(), uuid.New(), Proposal{DurationDays: d, Goal: "g", CheckinFrequency: CheckinDaily}, t0)
		assert.ErrorIs(t, err, domain.ErrInvalidDuration, "days=%d", d)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	}
}

func TestAccept_EndsAtRoundTrip(t *testing.T) {
	for _, days := range []int{7, 14, 21} {
		tr := newTrial(t, days, true)
		at := t0.Add(3 * time.Hour)
		require.NoError(t, tr.Accept(tr.BuilderID, at))

		assert.Equal(t, StatusActive, tr.Status)
		require.NotNil(t, tr.AcceptedAt)
		require.NotNil(t, tr.EndsAt)
		assert.Equal(t, time.Duration(days)*86400*time.Second, tr.EndsAt.Sub(*tr.AcceptedAt))
	}
}

func TestAccept_SelfAcceptanceForbidden(t *testing.T) {
	for _, days := range []int{7, 14, 21} {
		for _, founderProposes := range []bool{true, false} {
			tr := newTrial(t, days, founderProposes)
			err := tr.Accept(tr.ProposedBy, t0)
			assert.ErrorIs(t, err, domain.ErrSelfAcceptance)
			assert.ErrorIs(t, err, domain.ErrBadRequest)
			assert.Equal(t, StatusProposed, tr.Status)
			assert.Nil(t, tr.EndsAt)
		}
	}
}

func TestAccept_SecondAcceptFailsNotProposed(t *testing.T) {
	tr := newTrial(t, 14, true)
	require.NoError(t, tr.Accept(tr.BuilderID, t0))
	err := tr.Accept(tr.FounderID, t0.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestAccept_OutsiderForbidden(t *testing.T) {
	tr := newTrial(t, 7, true)
	assert.ErrorIs(t, tr.Accept(uuid.New(), t0), domain.ErrForbidden)
}

func TestDeclineAndCancel(t *testing.T) {
	tr := newTrial(t, 7, true)
	require.NoError(t, tr.Decline(tr.BuilderID, t0))
	assert.Equal(t, StatusCancelled, tr.Status)
	assert.True(t, tr.Declined)
	require.NotNil(t, tr.CancelledBy)
	assert.Equal(t, tr.BuilderID, *tr.CancelledBy)

	active := newTrial(t, 7, true)
	require.NoError(t, active.Accept(active.BuilderID, t0))
	assert.ErrorIs(t, active.Decline(active.BuilderID, t0), domain.ErrInvalidTransition)
	require.NoError(t, active.Cancel(active.FounderID, "  priorities changed ", t0))
	assert.Equal(t, StatusCancelled, active.Status)
	assert.False(t, active.Declined)
	assert.Equal(t, "priorities changed", active.CancelReason)

	assert.ErrorIs(t, active.Cancel(active.FounderID, "", t0), domain.ErrInvalidTransition)
}

func TestComplete_OnlyFromActive(t *testing.T) {
	tr := newTrial(t, 7, false)
	_, err := tr.Complete(t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, tr.Accept(tr.FounderID, t0))
	resolved, err := tr.Complete(t0.Add(7 * Day))
	require.NoError(t, err)
	assert.False(t, resolved)
	assert.Equal(t, StatusCompleted, tr.Status)
	assert.Equal(t, OutcomePending, tr.Outcome)
}

func TestComplete_ResolvesWhenFeedbackAlreadyPresent(t *testing.T) {
	tr := newTrial(t, 7, false)
	require.NoError(t, tr.Accept(tr.FounderID, t0))
	tr.FounderFeedback = &Feedback{Communication: 3, Reliability: 3, SkillMatch: 3, WouldContinue: true}
	tr.BuilderFeedback = &Feedback{Communication: 3, Reliability: 3, SkillMatch: 3, WouldContinue: true}

	resolved, err := tr.Complete(t0)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.Equal(t, OutcomeContinue, tr.Outcome)
}

func TestDeriveOutcome(t *testing.T) {
	yes := &Feedback{WouldContinue: true}
	no := &Feedback{WouldContinue: false}

	tests := []struct {
		name    string
		founder *Feedback
		builder *Feedback
		want    Outcome
	}{
		{"both continue", yes, yes, OutcomeContinue},
		{"founder ends", no, yes, OutcomeEnd},
		{"builder ends", yes, no, OutcomeEnd},
		{"both end", no, no, OutcomeEnd},
		{"only founder", yes, nil, OutcomePending},
		{"only builder", nil, no, OutcomePending},
		{"none", nil, nil, OutcomePending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOutcome(tt.founder, tt.builder))
		})
	}
}

func TestSubmitFeedback_ResolvesOnSecondSubmission(t *testing.T) {
	tr := completed(t)
	fb := Feedback{Communication: 5, Reliability: 4, SkillMatch: 4, WouldContinue: true}

	resolved, err := tr.SubmitFeedback(tr.FounderID, fb, t0)
	require.NoError(t, err)
	assert.False(t, resolved)
	assert.Equal(t, OutcomePending, tr.Outcome)

	fb.WouldContinue = false
	resolved, err = tr.SubmitFeedback(tr.BuilderID, fb, t0)
	require.NoError(t, err)
	assert.True(t, resolved)
	assert.Equal(t, OutcomeEnd, tr.Outcome)
}

func TestSubmitFeedback_WriteOnce(t *testing.T) {
	tr := completed(t)
	fb := Feedback{Communication: 2, Reliability: 2, SkillMatch: 2}
	_, err := tr.SubmitFeedback(tr.BuilderID, fb, t0)
	require.NoError(t, err)

	fb.WouldContinue = true
	_, err = tr.SubmitFeedback(tr.BuilderID, fb, t0)
	assert.ErrorIs(t, err, domain.ErrDuplicateFeedback)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.False(t, tr.BuilderFeedback.WouldContinue)
}

func TestSubmitFeedback_Preconditions(t *testing.T) {
	tr := newTrial(t, 7, true)
	fb := Feedback{Communication: 3, Reliability: 3, SkillMatch: 3}
	_, err := tr.SubmitFeedback(tr.FounderID, fb, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	done := completed(t)
	_, err = done.SubmitFeedback(uuid.New(), fb, t0)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = done.SubmitFeedback(done.FounderID, Feedback{Communication: 6, Reliability: 3, SkillMatch: 3}, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidRating)
	assert.Nil(t, done.FounderFeedback)
}
