package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"cofound/internal/domain/matching"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	Matching  MatchingConfig
	Quota     QuotaConfig
	Scheduler SchedulerConfig
}

type AppConfig struct {
	AppName     string `envconfig:"APP_NAME" default:"cofound"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8080"`
}

type DatabaseConfig struct {
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBName     string `envconfig:"DB_NAME" default:"cofound"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBSSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`

	ConnectTimeout        time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"5s"`
	PoolMaxConns          int32         `envconfig:"DB_POOL_MAX_CONNS" default:"20"`
	PoolMinConns          int32         `envconfig:"DB_POOL_MIN_CONNS" default:"2"`
	PoolMaxConnLifetime   time.Duration `envconfig:"DB_POOL_MAX_CONN_LIFETIME" default:"1h"`
	PoolMaxConnIdleTime   time.Duration `envconfig:"DB_POOL_MAX_CONN_IDLE_TIME" default:"15m"`
	PoolHealthCheckPeriod time.Duration `envconfig:"DB_POOL_HEALTH_CHECK_PERIOD" default:"1m"`
	MigrateOnStart        bool          `envconfig:"DB_MIGRATE_ON_START" default:"true"`
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"true"`
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type JWTConfig struct {
	AccessSecret    string        `envconfig:"JWT_ACCESS_SECRET" required:"true"`
	AccessExpiresIn time.Duration `envconfig:"JWT_ACCESS_EXPIRES_IN" default:"24h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	File       string `envconfig:"LOG_FILE"`
	MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	MaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"30"`
}

type MatchingConfig struct {
	WeightSkills       float64 `envconfig:"MATCH_WEIGHT_SKILLS" default:"0.25"`
	WeightCompensation float64 `envconfig:"MATCH_WEIGHT_COMPENSATION" default:"0.25"`
	WeightCommitment   float64 `envconfig:"MATCH_WEIGHT_COMMITMENT" default:"0.20"`
	WeightScenario     float64 `envconfig:"MATCH_WEIGHT_SCENARIO" default:"0.15"`
	WeightGeography    float64 `envconfig:"MATCH_WEIGHT_GEOGRAPHY" default:"0.15"`

	TierFair      float64 `envconfig:"MATCH_TIER_FAIR" default:"0.5"`
	TierGood      float64 `envconfig:"MATCH_TIER_GOOD" default:"0.7"`
	TierExcellent float64 `envconfig:"MATCH_TIER_EXCELLENT" default:"0.85"`

	MinTier string `envconfig:"MATCH_MIN_TIER" default:"fair"`
	Workers int    `envconfig:"MATCH_WORKERS" default:"8"`
}

type QuotaConfig struct {
	DailyFree    int    `envconfig:"QUOTA_DAILY_FREE" default:"5"`
	DailyBoosted int    `envconfig:"QUOTA_DAILY_BOOSTED" default:"15"`
	Timezone     string `envconfig:"QUOTA_TIMEZONE" default:"UTC"`
}

type SchedulerConfig struct {
	Enabled           bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`
	MatchGenerationAt string        `envconfig:"MATCH_GENERATION_AT" default:"02:00"`
}

var errInvalidConfig = errors.New("invalid configuration")

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if p, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(c.App.HTTPPort), ":")); err != nil || p < 1 || p > 65535 {
		add("HTTP_PORT must be between 1 and 65535")
	}
	if strings.TrimSpace(c.JWT.AccessSecret) == "" {
		add("JWT_ACCESS_SECRET is required")
	}
	if err := c.Matching.Weights().Validate(); err != nil {
		add("%v", err)
	}
	if err := c.Matching.Thresholds().Validate(); err != nil {
		add("%v", err)
	}
	if _, err := matching.ParseTier(c.Matching.MinTier); err != nil {
		add("MATCH_MIN_TIER: %v", err)
	}
	if c.Matching.Workers < 1 {
		add("MATCH_WORKERS must be at least 1")
	}
	if c.Quota.DailyFree < 1 || c.Quota.DailyBoosted < 1 {
		add("daily quotas must be at least 1")
	}
	if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
		add("QUOTA_TIMEZONE: %v", err)
	}
	if c.Scheduler.SweepInterval < time.Minute {
		add("SWEEP_INTERVAL must be at least 1m")
	}
	if _, _, err := c.Scheduler.MatchGenerationTime(); err != nil {
		add("MATCH_GENERATION_AT: %v", err)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", errInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (m MatchingConfig) Weights() matching.Weights {
	return matching.Weights{
		Skills:       m.WeightSkills,
		Compensation: m.WeightCompensation,
		Commitment:   m.WeightCommitment,
		Scenario:     m.WeightScenario,
		Geography:    m.WeightGeography,
	}
}

func (m MatchingConfig) Thresholds() matching.Thresholds {
	return matching.Thresholds{Fair: m.TierFair, Good: m.TierGood, Excellent: m.TierExcellent}
}

func (q QuotaConfig) Location() *time.Location {
	loc, err := time.LoadLocation(q.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MatchGenerationTime parses the HH:MM daily run time.
func (s SchedulerConfig) MatchGenerationTime() (uint, uint, error) {
	parts := strings.Split(strings.TrimSpace(s.MatchGenerationAt), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s.MatchGenerationAt)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s.MatchGenerationAt)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s.MatchGenerationAt)
	}
	return uint(h), uint(m), nil
}
