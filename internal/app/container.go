package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"cofound/internal/config"
	"cofound/internal/database"
	"cofound/internal/database/migration"
	dbpostgres "cofound/internal/database/postgres"
	"cofound/internal/domain/matching"
	"cofound/internal/infrastructure/cache"
	"cofound/internal/pkg/jwt"
	"cofound/internal/repository"
	"cofound/internal/scheduler"
	"cofound/internal/usecase"
	"cofound/internal/ws"
)

// Container owns every long-lived dependency of the process.
type Container struct {
	Config config.Config
	Log    *zap.Logger
	DB     database.DB
	Redis  *cache.Redis
	Tokens jwt.Service

	Hub        *ws.Hub
	Dispatcher *ws.Dispatcher
	Scheduler  *scheduler.Manager

	Interests     *usecase.Interests
	Conversations *usecase.Conversations
	Trials        *usecase.Trials
	Openings      *usecase.Openings
	Matching      *usecase.MatchGeneration
}

func NewContainer(ctx context.Context, cfg config.Config, log *zap.Logger) (*Container, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(connectCtx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Log: log, DB: db}

	if cfg.Database.MigrateOnStart {
		if err := (migration.Runner{}).Up(connectCtx, db.SQLDB()); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
	}

	c.Redis = cache.NewRedis(ctx, cfg.Redis, log)
	c.Tokens = jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiresIn)

	if err := c.buildUsecases(); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Hub = ws.NewHub(log)
	c.Dispatcher, err = ws.NewDispatcher(c.Hub, c.Redis, log)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}

	if cfg.Scheduler.Enabled {
		if err := c.buildScheduler(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (c *Container) buildUsecases() error {
	cfg, log := c.Config, c.Log

	users := repository.NewPostgresUserRepository(c.DB)
	stats := repository.NewPostgresStatsRepository(c.DB)
	openings := repository.NewPostgresOpeningRepository(c.DB)
	builders := repository.NewPostgresBuilderRepository(c.DB)
	interests := repository.NewPostgresInterestRepository(c.DB)
	conversations := repository.NewPostgresConversationRepository(c.DB)
	messages := repository.NewPostgresMessageRepository(c.DB)
	trials := repository.NewPostgresTrialRepository(c.DB)
	suggestions := repository.NewPostgresSuggestionRepository(c.DB)

	scorer, err := matching.NewScorer(cfg.Matching.Weights(), cfg.Matching.Thresholds())
	if err != nil {
		return fmt.Errorf("build scorer: %w", err)
	}
	minTier, err := matching.ParseTier(cfg.Matching.MinTier)
	if err != nil {
		return fmt.Errorf("parse min tier: %w", err)
	}

	quota := usecase.Quota{
		Free:     cfg.Quota.DailyFree,
		Boosted:  cfg.Quota.DailyBoosted,
		Location: cfg.Quota.Location(),
	}

	c.Interests = usecase.NewInterestUsecase(interests, openings, builders, users, stats, quota, log)
	c.Conversations = usecase.NewConversationUsecase(conversations, messages, interests, users, log)
	c.Trials = usecase.NewTrialUsecase(trials, conversations, messages, users, stats, log)
	c.Openings = usecase.NewOpeningUsecase(openings, log)

	var suggestionCache usecase.SuggestionCache
	if c.Redis.Available() {
		suggestionCache = c.Redis
	}
	c.Matching = usecase.NewMatchingUsecase(openings, builders, suggestions, scorer, minTier, cfg.Matching.Workers, suggestionCache, log)
	return nil
}

func (c *Container) buildScheduler() error {
	hour, minute, err := c.Config.Scheduler.MatchGenerationTime()
	if err != nil {
		return fmt.Errorf("match generation time: %w", err)
	}

	m, err := scheduler.NewManager(c.Redis, c.Log, gocron.WithLocation(c.Config.Quota.Location()))
	if err != nil {
		return err
	}
	err = m.Register(
		scheduler.NewSweepJob(c.Trials, c.Dispatcher, c.Config.Scheduler.SweepInterval),
		scheduler.NewMatchGenerationJob(c.Matching, hour, minute),
	)
	if err != nil {
		_ = m.Stop()
		return err
	}
	c.Scheduler = m
	return nil
}

// Close releases resources in reverse order of construction.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Scheduler != nil {
		errs = append(errs, c.Scheduler.Stop())
	}
	c.Dispatcher.Close()
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
