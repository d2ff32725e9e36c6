package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"cofound/internal/domain"
	"cofound/internal/usecase"
)

type TrialSweeper interface {
	AutoCompleteExpiredTrials(ctx context.Context) (usecase.SweepResult, domain.Outbox, error)
}

type MatchGenerator interface {
	GenerateMatches(ctx context.Context) (usecase.GenerationReport, error)
}

type EventSink interface {
	Dispatch(ctx context.Context, out domain.Outbox)
}

// SweepJob completes ACTIVE trials past their end on a fixed interval.
type SweepJob struct {
	trials   TrialSweeper
	events   EventSink
	interval time.Duration
}

func NewSweepJob(trials TrialSweeper, events EventSink, interval time.Duration) *SweepJob {
	return &SweepJob{trials: trials, events: events, interval: interval}
}

func (j *SweepJob) Name() string { return "expired_trial_sweep" }

func (j *SweepJob) Definition() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *SweepJob) LockTTL() time.Duration { return j.interval }

func (j *SweepJob) Run(ctx context.Context) error {
	_, out, err := j.trials.AutoCompleteExpiredTrials(ctx)
	if err != nil {
		return err
	}
	if j.events != nil {
		j.events.Dispatch(ctx, out)
	}
	return nil
}

// MatchGenerationJob rebuilds match suggestions once a day.
type MatchGenerationJob struct {
	matching     MatchGenerator
	hour, minute uint
}

func NewMatchGenerationJob(matching MatchGenerator, hour, minute uint) *MatchGenerationJob {
	return &MatchGenerationJob{matching: matching, hour: hour, minute: minute}
}

func (j *MatchGenerationJob) Name() string { return "match_generation" }

func (j *MatchGenerationJob) Definition() gocron.JobDefinition {
	return gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(j.hour, j.minute, 0)))
}

func (j *MatchGenerationJob) LockTTL() time.Duration { return 2 * time.Hour }

func (j *MatchGenerationJob) Run(ctx context.Context) error {
	_, err := j.matching.GenerateMatches(ctx)
	return err
}
