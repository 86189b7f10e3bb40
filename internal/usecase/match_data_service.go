package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/standings"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/cache"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/resilience"
)

// SourceClient is the origin sports-data API. Implementations must
// surface transient failures distinguishably (see resilience
// classifiers) so retry policy can be applied by the caller.
type SourceClient interface {
	FetchUpcoming(ctx context.Context, competitionCode string) ([]match.Match, error)
	FetchMatch(ctx context.Context, id int64) (match.Match, error)
	FetchTeamMatches(ctx context.Context, teamID int64, limit int) ([]match.Match, error)
	FetchStandings(ctx context.Context, competitionCode string) (standings.Snapshot, error)
}

type MatchDataConfig struct {
	UpcomingTTL        time.Duration
	MatchTTL           time.Duration
	TeamMatchesTTL     time.Duration
	StandingsTTL       time.Duration
	StandingsStaleness time.Duration
	PersistRetry       resilience.RetryConfig
}

func (c MatchDataConfig) normalize() MatchDataConfig {
	if c.UpcomingTTL <= 0 {
		c.UpcomingTTL = 5 * time.Minute
	}
	if c.MatchTTL <= 0 {
		c.MatchTTL = 10 * time.Minute
	}
	if c.TeamMatchesTTL <= 0 {
		c.TeamMatchesTTL = time.Hour
	}
	if c.StandingsTTL <= 0 {
		c.StandingsTTL = 10 * time.Minute
	}
	if c.StandingsStaleness <= 0 {
		c.StandingsStaleness = 2 * time.Hour
	}
	return c
}

// MatchDataService is the tiered data gateway: memory cache, then
// persisted snapshot, then the origin API. Persistence failures on the
// read path are logged and swallowed; origin failures propagate.
type MatchDataService struct {
	source        SourceClient
	cache         *cache.Store
	matchRepo     match.Repository
	standingsRepo standings.Repository
	transientDB   func(error) bool
	cfg           MatchDataConfig
	logger        *logging.Logger
	now           func() time.Time
}

func NewMatchDataService(
	source SourceClient,
	store *cache.Store,
	matchRepo match.Repository,
	standingsRepo standings.Repository,
	transientDB func(error) bool,
	cfg MatchDataConfig,
	logger *logging.Logger,
) *MatchDataService {
	if store == nil {
		store = cache.NewStore()
	}
	if transientDB == nil {
		transientDB = func(error) bool { return false }
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchDataService{
		source:        source,
		cache:         store,
		matchRepo:     matchRepo,
		standingsRepo: standingsRepo,
		transientDB:   transientDB,
		cfg:           cfg.normalize(),
		logger:        logger,
		now:           time.Now,
	}
}

// persistHit is a persisted-snapshot read result. TTL overrides the
// entity default when positive, so a snapshot nearing its staleness
// limit is not cached beyond it.
type persistHit[T any] struct {
	value T
	ttl   time.Duration
	found bool
}

// loadThrough runs the tiered traversal for one key. Strict order,
// short-circuit on hit: cache, persisted snapshot, origin fetch. The
// traversal below the cache runs under the store's single flight, so
// concurrent misses on the same key share one persistence read and one
// origin call. The loaded value is cached and, when persistWrite is
// given, written back without blocking the caller.
func loadThrough[T any](
	ctx context.Context,
	s *MatchDataService,
	key string,
	ttl time.Duration,
	persistRead func(context.Context) (persistHit[T], error),
	persistWrite func(context.Context, T) error,
	fetch func(context.Context) (T, error),
) (T, error) {
	var zero T

	if cached, ok := s.cache.Get(ctx, key); ok {
		if value, ok := cached.(T); ok {
			return value, nil
		}
		s.cache.Delete(ctx, key)
	}

	loaded, err := s.cache.GetOrLoad(ctx, key, ttl, func(ctx context.Context) (any, time.Duration, error) {
		if persistRead != nil {
			hit, err := resilience.RetryClassified(ctx, s.persistRetryConfig(key), s.transientDB, persistRead)
			if err != nil {
				s.logger.WarnContext(ctx, "persisted snapshot read failed, falling through to origin",
					"key", key, "error", err)
			} else if hit.found {
				entryTTL := time.Duration(0)
				if hit.ttl > 0 && hit.ttl < ttl {
					entryTTL = hit.ttl
				}
				return hit.value, entryTTL, nil
			}
		}

		value, err := fetch(ctx)
		if err != nil {
			return nil, 0, err
		}

		if persistWrite != nil {
			writeCtx := context.WithoutCancel(ctx)
			go func() {
				_, err := resilience.RetryClassified(writeCtx, s.persistRetryConfig(key), s.transientDB, func(ctx context.Context) (struct{}, error) {
					return struct{}{}, persistWrite(ctx, value)
				})
				if err != nil {
					s.logger.Warn("persist write-back failed", "key", key, "error", err)
				}
			}()
		}

		return value, 0, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := loaded.(T)
	if !ok {
		s.cache.Delete(ctx, key)
		return zero, fmt.Errorf("cache entry %q holds %T", key, loaded)
	}
	return value, nil
}

func (s *MatchDataService) persistRetryConfig(label string) resilience.RetryConfig {
	cfg := s.cfg.PersistRetry
	cfg.Label = "persist(" + label + ")"
	cfg.Logger = s.logger
	return cfg
}

// UpcomingMatches returns matches for the competition kicking off
// within the next days.
func (s *MatchDataService) UpcomingMatches(ctx context.Context, competitionCode string, days int) ([]match.Match, error) {
	if competitionCode == "" {
		return nil, fmt.Errorf("%w: competition code is required", ErrInvalidInput)
	}
	if days <= 0 {
		days = 7
	}

	key := fmt.Sprintf("matches:%s:%d", competitionCode, days)
	return loadThrough(ctx, s, key, s.cfg.UpcomingTTL,
		nil,
		func(ctx context.Context, items []match.Match) error {
			return s.matchRepo.UpsertBatch(ctx, items)
		},
		func(ctx context.Context) ([]match.Match, error) {
			fetched, err := s.source.FetchUpcoming(ctx, competitionCode)
			if err != nil {
				return nil, err
			}

			now := s.now()
			end := now.AddDate(0, 0, days)
			out := make([]match.Match, 0, len(fetched))
			for _, m := range fetched {
				if m.KickoffAt.Before(now) || m.KickoffAt.After(end) {
					continue
				}
				out = append(out, m)
			}
			return out, nil
		},
	)
}

// MatchByID serves match details, preferring the persisted record when
// the cache misses.
func (s *MatchDataService) MatchByID(ctx context.Context, id int64) (match.Match, error) {
	if id <= 0 {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	key := fmt.Sprintf("match:%d", id)
	return loadThrough(ctx, s, key, s.cfg.MatchTTL,
		func(ctx context.Context) (persistHit[match.Match], error) {
			m, found, err := s.matchRepo.GetByID(ctx, id)
			if err != nil {
				return persistHit[match.Match]{}, err
			}
			return persistHit[match.Match]{value: m, found: found}, nil
		},
		func(ctx context.Context, m match.Match) error {
			return s.matchRepo.Upsert(ctx, m)
		},
		func(ctx context.Context) (match.Match, error) {
			return s.source.FetchMatch(ctx, id)
		},
	)
}

// RefreshMatch bypasses cache and persistence and asks the origin for
// the current state. The result is persisted and re-cached before
// returning; monitors depend on this being the live status.
func (s *MatchDataService) RefreshMatch(ctx context.Context, id int64) (match.Match, error) {
	if id <= 0 {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	updated, err := s.source.FetchMatch(ctx, id)
	if err != nil {
		return match.Match{}, fmt.Errorf("refresh match id=%d: %w", id, err)
	}

	key := fmt.Sprintf("match:%d", id)
	s.cache.Set(ctx, key, updated, s.cfg.MatchTTL)

	if _, err := resilience.RetryClassified(ctx, s.persistRetryConfig(key), s.transientDB, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.matchRepo.Upsert(ctx, updated)
	}); err != nil {
		s.logger.WarnContext(ctx, "persist refreshed match failed", "match_id", id, "error", err)
	}

	return updated, nil
}

// TeamLastMatches returns the team's recent finished matches.
func (s *MatchDataService) TeamLastMatches(ctx context.Context, teamID int64, limit int) ([]match.Match, error) {
	if teamID <= 0 {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 5
	}

	key := fmt.Sprintf("team:%d:matches:%d", teamID, limit)
	return loadThrough(ctx, s, key, s.cfg.TeamMatchesTTL,
		nil,
		nil,
		func(ctx context.Context) ([]match.Match, error) {
			return s.source.FetchTeamMatches(ctx, teamID, limit)
		},
	)
}

// Standings serves the league table. A persisted snapshot is
// acceptable only while younger than the staleness window; older
// snapshots count as a miss and the origin is consulted.
func (s *MatchDataService) Standings(ctx context.Context, competitionCode string) (standings.Snapshot, error) {
	if competitionCode == "" {
		return standings.Snapshot{}, fmt.Errorf("%w: competition code is required", ErrInvalidInput)
	}

	key := standingsCacheKey(competitionCode)
	return loadThrough(ctx, s, key, s.cfg.StandingsTTL,
		func(ctx context.Context) (persistHit[standings.Snapshot], error) {
			snapshot, found, err := s.standingsRepo.Get(ctx, competitionCode)
			if err != nil {
				return persistHit[standings.Snapshot]{}, err
			}
			now := s.now()
			if !found || !snapshot.FetchedWithin(now, s.cfg.StandingsStaleness) {
				return persistHit[standings.Snapshot]{}, nil
			}
			remaining := s.cfg.StandingsStaleness - now.Sub(snapshot.FetchedAt)
			return persistHit[standings.Snapshot]{value: snapshot, ttl: remaining, found: true}, nil
		},
		func(ctx context.Context, snapshot standings.Snapshot) error {
			return s.standingsRepo.Upsert(ctx, snapshot)
		},
		func(ctx context.Context) (standings.Snapshot, error) {
			snapshot, err := s.source.FetchStandings(ctx, competitionCode)
			if err != nil {
				return standings.Snapshot{}, err
			}
			snapshot.FetchedAt = s.now()
			return snapshot, nil
		},
	)
}

// ClearStandingsCache drops the in-memory entry so the next read goes
// past the cache tier.
func (s *MatchDataService) ClearStandingsCache(ctx context.Context, competitionCode string) {
	s.cache.Delete(ctx, standingsCacheKey(competitionCode))
}

// RefreshStandings invalidates and refetches the table; used after a
// finished match once the origin has settled.
func (s *MatchDataService) RefreshStandings(ctx context.Context, competitionCode string) (standings.Snapshot, error) {
	s.ClearStandingsCache(ctx, competitionCode)

	snapshot, err := s.source.FetchStandings(ctx, competitionCode)
	if err != nil {
		return standings.Snapshot{}, fmt.Errorf("refresh standings competition=%s: %w", competitionCode, err)
	}
	snapshot.FetchedAt = s.now()

	s.cache.Set(ctx, standingsCacheKey(competitionCode), snapshot, s.cfg.StandingsTTL)

	if _, err := resilience.RetryClassified(ctx, s.persistRetryConfig("standings"), s.transientDB, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.standingsRepo.Upsert(ctx, snapshot)
	}); err != nil {
		s.logger.WarnContext(ctx, "persist refreshed standings failed",
			"competition", competitionCode, "error", err)
	}

	return snapshot, nil
}

func standingsCacheKey(competitionCode string) string {
	return "standings:" + competitionCode
}
