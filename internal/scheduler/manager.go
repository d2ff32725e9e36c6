package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job is one periodic unit of work.
type Job interface {
	Name() string
	Definition() gocron.JobDefinition
	// LockTTL bounds how long a crashed instance can hold the run lock.
	LockTTL() time.Duration
	Run(ctx context.Context) error
}

// Locker provides the cross-instance run lock. An unavailable locker means
// a single instance, so jobs run unguarded.
type Locker interface {
	Available() bool
	SetIfNotExists(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, value string) error
}

type Manager struct {
	scheduler gocron.Scheduler
	locker    Locker
	log       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(locker Locker, log *zap.Logger, opts ...gocron.SchedulerOption) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		scheduler: s,
		locker:    locker,
		log:       log.Named("scheduler"),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (m *Manager) Register(jobs ...Job) error {
	for _, job := range jobs {
		_, err := m.scheduler.NewJob(
			job.Definition(),
			gocron.NewTask(func() { m.runGuarded(m.ctx, job) }),
			gocron.WithName(job.Name()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("register job %s: %w", job.Name(), err)
		}
		m.log.Info("job registered", zap.String("job", job.Name()))
	}
	return nil
}

func (m *Manager) Start() {
	m.scheduler.Start()
	m.log.Info("scheduler started", zap.Int("jobs", len(m.scheduler.Jobs())))
}

// Stop cancels running jobs and waits for them to return.
func (m *Manager) Stop() error {
	m.cancel()
	if err := m.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	m.log.Info("scheduler stopped")
	return nil
}

func lockKey(name string) string {
	return "lock:job:" + name
}

// runGuarded runs job unless another instance holds its lock.
func (m *Manager) runGuarded(ctx context.Context, job Job) {
	log := m.log.With(zap.String("job", job.Name()))

	if m.locker != nil && m.locker.Available() {
		token := uuid.NewString()
		ok, err := m.locker.SetIfNotExists(ctx, lockKey(job.Name()), token, job.LockTTL())
		switch {
		case err != nil:
			log.Warn("acquire job lock failed, running unguarded", zap.Error(err))
		case !ok:
			log.Debug("job already running elsewhere, skipping")
			return
		default:
			defer func() {
				if err := m.locker.Release(context.WithoutCancel(ctx), lockKey(job.Name()), token); err != nil {
					log.Warn("release job lock", zap.Error(err))
				}
			}()
		}
	}

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("job cancelled")
			return
		}
		log.Error("job failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return
	}
	log.Debug("job finished", zap.Duration("elapsed", time.Since(started)))
}
