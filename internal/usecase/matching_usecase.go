package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"cofound/internal/domain"
	"cofound/internal/domain/builder"
	"cofound/internal/domain/matching"
	"cofound/internal/domain/opening"
)

const (
	generationPageSize       = 500
	maxSuggestionsPerOpening = 200
	maxSuggestionsPage       = 100
	suggestionCacheTTL       = 30 * time.Minute
)

// SuggestionCache is the subset of the Redis client used for read-through caching.
type SuggestionCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type GenerationReport struct {
	Openings int
	Builders int
	Scored   int
	Kept     int
	Failed   int
	Elapsed  time.Duration
}

type MatchingUsecase interface {
	GenerateMatches(ctx context.Context) (GenerationReport, error)
	GetSuggestions(ctx context.Context, founderID, openingID uuid.UUID, limit int) ([]matching.Suggestion, error)
}

type MatchGeneration struct {
	openings    opening.Repository
	builders    builder.Repository
	suggestions matching.SuggestionRepository
	scorer      *matching.Scorer
	minTier     matching.Tier
	workers     int
	cache       SuggestionCache
	base
}

func NewMatchingUsecase(
	openings opening.Repository,
	builders builder.Repository,
	suggestions matching.SuggestionRepository,
	scorer *matching.Scorer,
	minTier matching.Tier,
	workers int,
	cache SuggestionCache,
	log *zap.Logger,
	opts ...Option,
) *MatchGeneration {
	if workers <= 0 {
		workers = 1
	}
	return &MatchGeneration{
		openings:    openings,
		builders:    builders,
		suggestions: suggestions,
		scorer:      scorer,
		minTier:     minTier,
		workers:     workers,
		cache:       cache,
		base:        newBase(log, "matching", opts),
	}
}

func suggestionCacheKey(openingID uuid.UUID) string {
	return "suggestions:" + openingID.String()
}

// GenerateMatches scores every complete builder against every active opening
// and replaces each opening's stored suggestions. A failing opening is logged
// and counted without stopping the run.
func (u *MatchGeneration) GenerateMatches(ctx context.Context) (GenerationReport, error) {
	started := u.now()

	profiles, err := u.completeProfiles(ctx)
	if err != nil {
		return GenerationReport{}, u.fail("load builder profiles", err)
	}
	openings, err := u.activeOpenings(ctx)
	if err != nil {
		return GenerationReport{}, u.fail("load openings", err)
	}

	report := GenerationReport{Openings: len(openings), Builders: len(profiles)}
	if len(openings) == 0 || len(profiles) == 0 {
		report.Elapsed = u.now().Sub(started)
		return report, nil
	}

	pool, err := ants.NewPool(min(u.workers, len(openings)))
	if err != nil {
		return GenerationReport{}, u.fail("create worker pool", fmt.Errorf("ants pool: %w", err))
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		scored atomic.Int64
		kept   atomic.Int64
		failed atomic.Int64
	)
	generatedAt := u.clock()
	for _, o := range openings {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			n, k, err := u.generateForOpening(ctx, o, profiles, generatedAt)
			scored.Add(int64(n))
			if err != nil {
				failed.Add(1)
				u.log.Warn("generate suggestions", zap.Stringer("opening_id", o.ID), zap.Error(err))
				return
			}
			kept.Add(int64(k))
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
			u.log.Error("submit generation task", zap.Stringer("opening_id", o.ID), zap.Error(err))
		}
	}
	wg.Wait()

	report.Scored = int(scored.Load())
	report.Kept = int(kept.Load())
	report.Failed = int(failed.Load())
	report.Elapsed = u.now().Sub(started)
	u.log.Info("match generation finished",
		zap.Int("openings", report.Openings),
		zap.Int("builders", report.Builders),
		zap.Int("kept", report.Kept),
		zap.Int("failed", report.Failed),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (u *MatchGeneration) generateForOpening(ctx context.Context, o opening.Opening, profiles []builder.Profile, at time.Time) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	out := make([]matching.Suggestion, 0)
	scored := 0
	for _, p := range profiles {
		if p.UserID == o.FounderID {
			continue
		}
		scored++
		r := u.scorer.Score(o, p)
		if r.Tier.AtLeast(u.minTier) {
			out = append(out, matching.Suggestion{OpeningID: o.ID, BuilderID: p.UserID, Result: r, GeneratedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Result.Overall != out[j].Result.Overall {
			return out[i].Result.Overall > out[j].Result.Overall
		}
		return out[i].BuilderID.String() < out[j].BuilderID.String()
	})
	if len(out) > maxSuggestionsPerOpening {
		out = out[:maxSuggestionsPerOpening]
	}

	if err := u.suggestions.ReplaceForOpening(ctx, o.ID, out); err != nil {
		return scored, 0, err
	}
	if u.cache != nil {
		if err := u.cache.Delete(ctx, suggestionCacheKey(o.ID)); err != nil {
			u.log.Warn("invalidate suggestions cache", zap.Stringer("opening_id", o.ID), zap.Error(err))
		}
	}
	return scored, len(out), nil
}

func (u *MatchGeneration) completeProfiles(ctx context.Context) ([]builder.Profile, error) {
	var all []builder.Profile
	for offset := 0; ; offset += generationPageSize {
		page, err := u.builders.ListComplete(ctx, generationPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < generationPageSize {
			return all, nil
		}
	}
}

func (u *MatchGeneration) activeOpenings(ctx context.Context) ([]opening.Opening, error) {
	var all []opening.Opening
	for offset := 0; ; offset += generationPageSize {
		page, err := u.openings.ListByStatus(ctx, opening.StatusActive, generationPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < generationPageSize {
			return all, nil
		}
	}
}

// GetSuggestions returns the opening's stored suggestions, best first.
func (u *MatchGeneration) GetSuggestions(ctx context.Context, founderID, openingID uuid.UUID, limit int) ([]matching.Suggestion, error) {
	if limit < 0 {
		return nil, domain.ErrInvalidInput
	}
	if limit == 0 {
		limit = 20
	}
	if limit > maxSuggestionsPage {
		limit = maxSuggestionsPage
	}

	o, err := u.openings.GetByID(ctx, openingID)
	if err != nil {
		return nil, u.fail("get opening", err)
	}
	if o.FounderID != founderID {
		return nil, domain.ErrNotOpeningOwner
	}

	key := suggestionCacheKey(openingID)
	var items []matching.Suggestion
	hit := false
	if u.cache != nil {
		if ok, err := u.cache.GetJSON(ctx, key, &items); err == nil && ok {
			hit = true
		}
	}
	if !hit {
		items, err = u.suggestions.ListForOpening(ctx, openingID, maxSuggestionsPage)
		if err != nil {
			return nil, u.fail("list suggestions", err)
		}
		if u.cache != nil {
			if err := u.cache.SetJSON(ctx, key, items, suggestionCacheTTL); err != nil {
				u.log.Debug("cache suggestions", zap.Stringer("opening_id", openingID), zap.Error(err))
			}
		}
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
