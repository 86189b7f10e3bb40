package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/standings"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/cache"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/resilience"
)

type stubSource struct {
	mu             sync.Mutex
	fetchUpcoming  func(ctx context.Context, code string) ([]match.Match, error)
	fetchMatch     func(ctx context.Context, id int64) (match.Match, error)
	fetchTeam      func(ctx context.Context, teamID int64, limit int) ([]match.Match, error)
	fetchStandings func(ctx context.Context, code string) (standings.Snapshot, error)

	upcomingCalls  atomic.Int64
	matchCalls     atomic.Int64
	teamCalls      atomic.Int64
	standingsCalls atomic.Int64
}

func (s *stubSource) FetchUpcoming(ctx context.Context, code string) ([]match.Match, error) {
	s.upcomingCalls.Add(1)
	if s.fetchUpcoming == nil {
		return nil, errors.New("unexpected FetchUpcoming")
	}
	return s.fetchUpcoming(ctx, code)
}

func (s *stubSource) FetchMatch(ctx context.Context, id int64) (match.Match, error) {
	s.matchCalls.Add(1)
	if s.fetchMatch == nil {
		return match.Match{}, errors.New("unexpected FetchMatch")
	}
	return s.fetchMatch(ctx, id)
}

func (s *stubSource) FetchTeamMatches(ctx context.Context, teamID int64, limit int) ([]match.Match, error) {
	s.teamCalls.Add(1)
	if s.fetchTeam == nil {
		return nil, errors.New("unexpected FetchTeamMatches")
	}
	return s.fetchTeam(ctx, teamID, limit)
}

func (s *stubSource) FetchStandings(ctx context.Context, code string) (standings.Snapshot, error) {
	s.standingsCalls.Add(1)
	if s.fetchStandings == nil {
		return standings.Snapshot{}, errors.New("unexpected FetchStandings")
	}
	return s.fetchStandings(ctx, code)
}

type stubMatchRepo struct {
	mu       sync.Mutex
	byID     map[int64]match.Match
	getErr   error
	getDelay time.Duration
	getCalls atomic.Int64
	upserts  []match.Match
}

func newStubMatchRepo() *stubMatchRepo {
	return &stubMatchRepo{byID: map[int64]match.Match{}}
}

func (r *stubMatchRepo) Upsert(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = m
	r.upserts = append(r.upserts, m)
	return nil
}

func (r *stubMatchRepo) UpsertBatch(ctx context.Context, matches []match.Match) error {
	for _, m := range matches {
		if err := r.Upsert(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *stubMatchRepo) GetByID(_ context.Context, id int64) (match.Match, bool, error) {
	r.getCalls.Add(1)
	if r.getDelay > 0 {
		time.Sleep(r.getDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return match.Match{}, false, r.getErr
	}
	m, ok := r.byID[id]
	return m, ok, nil
}

func (r *stubMatchRepo) ListWindow(_ context.Context, from, to time.Time, excludeTerminal bool) ([]match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []match.Match
	for _, m := range r.byID {
		if m.KickoffAt.Before(from) || m.KickoffAt.After(to) {
			continue
		}
		if excludeTerminal && m.IsTerminal() {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *stubMatchRepo) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.upserts)
}

type stubStandingsRepo struct {
	mu        sync.Mutex
	snapshots map[string]standings.Snapshot
	getErr    error
	upserts   int
}

func newStubStandingsRepo() *stubStandingsRepo {
	return &stubStandingsRepo{snapshots: map[string]standings.Snapshot{}}
}

func (r *stubStandingsRepo) Get(_ context.Context, code string) (standings.Snapshot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return standings.Snapshot{}, false, r.getErr
	}
	s, ok := r.snapshots[code]
	return s, ok, nil
}

func (r *stubStandingsRepo) Upsert(_ context.Context, snapshot standings.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snapshot.CompetitionCode] = snapshot
	r.upserts++
	return nil
}

func newTestMatchData(source *stubSource, matchRepo *stubMatchRepo, standingsRepo *stubStandingsRepo, now time.Time) *MatchDataService {
	svc := NewMatchDataService(
		source,
		cache.NewStore(),
		matchRepo,
		standingsRepo,
		nil,
		MatchDataConfig{PersistRetry: resilience.RetryConfig{Retries: 0, BaseDelay: time.Millisecond}},
		logging.NewNop(),
	)
	svc.now = func() time.Time { return now }
	return svc
}

func TestMatchDataService_MatchByID_CacheMissServedFromPersistence(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	source := &stubSource{}
	matchRepo := newStubMatchRepo()
	stored := match.Match{ID: 42, HomeTeam: "Arsenal", AwayTeam: "Chelsea", Status: match.StatusTimed, KickoffAt: now.Add(3 * time.Hour)}
	matchRepo.byID[42] = stored

	svc := newTestMatchData(source, matchRepo, newStubStandingsRepo(), now)

	got, err := svc.MatchByID(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, stored, got)
	require.Zero(t, source.matchCalls.Load(), "origin must not be consulted on persistence hit")

	// The persistence hit is promoted into the cache tier.
	got, err = svc.MatchByID(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, stored, got)
	require.Zero(t, source.matchCalls.Load())
}

func TestMatchDataService_MatchByID_PersistenceMissFetchesOriginOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	fromOrigin := match.Match{ID: 7, HomeTeam: "Bayern", AwayTeam: "Dortmund", Status: match.StatusScheduled, KickoffAt: now.Add(24 * time.Hour)}
	source := &stubSource{
		fetchMatch: func(context.Context, int64) (match.Match, error) { return fromOrigin, nil },
	}

	svc := newTestMatchData(source, newStubMatchRepo(), newStubStandingsRepo(), now)

	got, err := svc.MatchByID(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, fromOrigin, got)

	// Second read hits the cache tier.
	got, err = svc.MatchByID(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, fromOrigin, got)
	require.Equal(t, int64(1), source.matchCalls.Load())
}

func TestMatchDataService_MatchByID_PersistenceErrorFallsThroughToOrigin(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	fromOrigin := match.Match{ID: 9, Status: match.StatusInPlay}
	source := &stubSource{
		fetchMatch: func(context.Context, int64) (match.Match, error) { return fromOrigin, nil },
	}
	matchRepo := newStubMatchRepo()
	matchRepo.getErr = errors.New("connection refused")

	svc := newTestMatchData(source, matchRepo, newStubStandingsRepo(), now)

	got, err := svc.MatchByID(context.Background(), 9)
	require.NoError(t, err, "persistence failures on the read path must not surface")
	require.Equal(t, fromOrigin, got)
	require.Equal(t, int64(1), source.matchCalls.Load())
}

func TestMatchDataService_MatchByID_ConcurrentMissesShareOneLoad(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	source := &stubSource{}
	matchRepo := newStubMatchRepo()
	matchRepo.getDelay = 10 * time.Millisecond
	stored := match.Match{ID: 55, HomeTeam: "Lyon", AwayTeam: "Lille", Status: match.StatusTimed, KickoffAt: now.Add(2 * time.Hour)}
	matchRepo.byID[55] = stored

	svc := newTestMatchData(source, matchRepo, newStubStandingsRepo(), now)

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			<-start
			got, err := svc.MatchByID(context.Background(), 55)
			if err != nil {
				t.Errorf("MatchByID error: %v", err)
				return
			}
			if got.ID != 55 {
				t.Errorf("unexpected match %d", got.ID)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int64(1), matchRepo.getCalls.Load(), "concurrent misses share one persistence read")
	require.Zero(t, source.matchCalls.Load())
}

func TestMatchDataService_MatchByID_OriginErrorPropagates(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("origin unavailable")
	source := &stubSource{
		fetchMatch: func(context.Context, int64) (match.Match, error) { return match.Match{}, wantErr },
	}

	svc := newTestMatchData(source, newStubMatchRepo(), newStubStandingsRepo(), time.Now())

	_, err := svc.MatchByID(context.Background(), 5)
	require.ErrorIs(t, err, wantErr)
}

func TestMatchDataService_UpcomingMatches_FiltersWindowAndCaches(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	source := &stubSource{
		fetchUpcoming: func(context.Context, string) ([]match.Match, error) {
			return []match.Match{
				{ID: 1, CompetitionCode: "PL", KickoffAt: now.Add(-time.Hour), Status: match.StatusFinished},
				{ID: 2, CompetitionCode: "PL", KickoffAt: now.Add(48 * time.Hour), Status: match.StatusTimed},
				{ID: 3, CompetitionCode: "PL", KickoffAt: now.Add(10 * 24 * time.Hour), Status: match.StatusScheduled},
			}, nil
		},
	}
	matchRepo := newStubMatchRepo()

	svc := newTestMatchData(source, matchRepo, newStubStandingsRepo(), now)

	got, err := svc.UpcomingMatches(context.Background(), "PL", 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(2), got[0].ID)

	_, err = svc.UpcomingMatches(context.Background(), "PL", 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), source.upcomingCalls.Load())

	// Fire-and-forget persistence of the fetched window.
	require.Eventually(t, func() bool { return matchRepo.upsertCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestMatchDataService_UpcomingMatches_RequiresCompetition(t *testing.T) {
	t.Parallel()

	svc := newTestMatchData(&stubSource{}, newStubMatchRepo(), newStubStandingsRepo(), time.Now())

	_, err := svc.UpcomingMatches(context.Background(), "", 7)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestMatchDataService_RefreshMatch_BypassesCacheAndPersists(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 22, 0, 0, 0, time.UTC)
	score := func(v int) *int { return &v }
	live := match.Match{ID: 11, Status: match.StatusFinished, HomeScore: score(2), AwayScore: score(1)}
	source := &stubSource{
		fetchMatch: func(context.Context, int64) (match.Match, error) { return live, nil },
	}
	matchRepo := newStubMatchRepo()
	matchRepo.byID[11] = match.Match{ID: 11, Status: match.StatusInPlay}

	svc := newTestMatchData(source, matchRepo, newStubStandingsRepo(), now)

	// Prime the cache with a stale state; refresh must ignore it.
	cached, err := svc.MatchByID(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, match.StatusInPlay, cached.Status)

	got, err := svc.RefreshMatch(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, match.StatusFinished, got.Status)
	require.Equal(t, int64(1), source.matchCalls.Load())

	persisted, found, err := matchRepo.GetByID(context.Background(), 11)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, match.StatusFinished, persisted.Status)

	// Subsequent cached reads see the refreshed record.
	after, err := svc.MatchByID(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, match.StatusFinished, after.Status)
}

func TestMatchDataService_Standings_FreshSnapshotSkipsOrigin(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	standingsRepo := newStubStandingsRepo()
	standingsRepo.snapshots["PL"] = standings.Snapshot{
		CompetitionCode: "PL",
		Rows:            []standings.Row{{Position: 1, TeamName: "Liverpool", Points: 70}},
		FetchedAt:       now.Add(-30 * time.Minute),
	}

	svc := newTestMatchData(&stubSource{}, newStubMatchRepo(), standingsRepo, now)

	got, err := svc.Standings(context.Background(), "PL")
	require.NoError(t, err)
	require.Equal(t, "Liverpool", got.Rows[0].TeamName)
}

func TestMatchDataService_Standings_StaleSnapshotGoesToOrigin(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	standingsRepo := newStubStandingsRepo()
	standingsRepo.snapshots["PL"] = standings.Snapshot{
		CompetitionCode: "PL",
		Rows:            []standings.Row{{Position: 1, TeamName: "Stale FC"}},
		FetchedAt:       now.Add(-3 * time.Hour),
	}
	source := &stubSource{
		fetchStandings: func(context.Context, string) (standings.Snapshot, error) {
			return standings.Snapshot{
				CompetitionCode: "PL",
				Rows:            []standings.Row{{Position: 1, TeamName: "Arsenal", Points: 64}},
			}, nil
		},
	}

	svc := newTestMatchData(source, newStubMatchRepo(), standingsRepo, now)

	got, err := svc.Standings(context.Background(), "PL")
	require.NoError(t, err)
	require.Equal(t, "Arsenal", got.Rows[0].TeamName)
	require.Equal(t, now, got.FetchedAt)
	require.Equal(t, int64(1), source.standingsCalls.Load())
}

func TestMatchDataService_RefreshStandings_InvalidatesAndRefetches(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	standingsRepo := newStubStandingsRepo()
	source := &stubSource{
		fetchStandings: func(context.Context, string) (standings.Snapshot, error) {
			return standings.Snapshot{
				CompetitionCode: "PL",
				Rows:            []standings.Row{{Position: 1, TeamName: "Fresh FC"}},
			}, nil
		},
	}

	svc := newTestMatchData(source, newStubMatchRepo(), standingsRepo, now)

	// Seed the cache with an old table.
	svc.cache.Set(context.Background(), standingsCacheKey("PL"), standings.Snapshot{
		CompetitionCode: "PL",
		Rows:            []standings.Row{{Position: 1, TeamName: "Old FC"}},
		FetchedAt:       now.Add(-time.Hour),
	}, time.Hour)

	got, err := svc.RefreshStandings(context.Background(), "PL")
	require.NoError(t, err)
	require.Equal(t, "Fresh FC", got.Rows[0].TeamName)

	standingsRepo.mu.Lock()
	persisted := standingsRepo.snapshots["PL"]
	standingsRepo.mu.Unlock()
	require.Equal(t, "Fresh FC", persisted.Rows[0].TeamName)

	// The cache now serves the refreshed table.
	cached, ok := svc.cache.Get(context.Background(), standingsCacheKey("PL"))
	require.True(t, ok)
	require.Equal(t, "Fresh FC", cached.(standings.Snapshot).Rows[0].TeamName)
}

func TestMatchDataService_TeamLastMatches_CachesPerTeamAndLimit(t *testing.T) {
	t.Parallel()

	source := &stubSource{
		fetchTeam: func(_ context.Context, teamID int64, limit int) ([]match.Match, error) {
			return []match.Match{{ID: teamID * 100, HomeTeamID: teamID}}, nil
		},
	}
	svc := newTestMatchData(source, newStubMatchRepo(), newStubStandingsRepo(), time.Now())

	got, err := svc.TeamLastMatches(context.Background(), 3, 5)
	require.NoError(t, err)
	require.Equal(t, int64(300), got[0].ID)

	_, err = svc.TeamLastMatches(context.Background(), 3, 5)
	require.NoError(t, err)
	require.Equal(t, int64(1), source.teamCalls.Load())

	_, err = svc.TeamLastMatches(context.Background(), 3, 10)
	require.NoError(t, err)
	require.Equal(t, int64(2), source.teamCalls.Load(), "different limit is a distinct cache key")
}
