package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/metrics"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/resilience"
)

type SyncConfig struct {
	// Competitions are the league codes kept in sync.
	Competitions []string

	// CronSpec schedules the daily full sync, evaluated in UTC.
	CronSpec string

	// WindowBefore/WindowAfter bound the registration window around
	// now; persistence covers the whole fetched schedule.
	WindowBefore time.Duration
	WindowAfter  time.Duration

	// OriginPause spaces per-competition origin calls so a full run
	// stays under the origin's rate limit.
	OriginPause time.Duration

	Workers int

	FetchRetry   resilience.RetryConfig
	PersistRetry resilience.RetryConfig
}

func (c SyncConfig) normalize() SyncConfig {
	if len(c.Competitions) == 0 {
		c.Competitions = []string{"PL", "BL1", "SA", "PD", "FL1"}
	}
	if c.CronSpec == "" {
		c.CronSpec = "0 6 * * *"
	}
	if c.WindowBefore <= 0 {
		c.WindowBefore = 24 * time.Hour
	}
	if c.WindowAfter <= 0 {
		c.WindowAfter = 24 * time.Hour
	}
	if c.OriginPause <= 0 {
		c.OriginPause = 2 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return c
}

// SyncService runs the daily catalog sync: pull the upcoming schedule
// for every tracked competition, persist it, then hand each
// non-terminal match inside the near window to the reminder and
// monitor services. Registration idempotency downstream makes repeated
// runs safe.
type SyncService struct {
	source      SourceClient
	matches     match.Repository
	monitor     *MonitorService
	reminders   *ReminderService
	transientDB func(error) bool
	cfg         SyncConfig
	logger      *logging.Logger

	cron    *cron.Cron
	pool    *ants.Pool
	limiter *rate.Limiter

	mu      sync.Mutex
	started bool

	now func() time.Time
}

func NewSyncService(
	source SourceClient,
	matches match.Repository,
	monitor *MonitorService,
	reminders *ReminderService,
	transientDB func(error) bool,
	cfg SyncConfig,
	logger *logging.Logger,
) (*SyncService, error) {
	cfg = cfg.normalize()
	if transientDB == nil {
		transientDB = func(error) bool { return false }
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(cfg.Workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}

	return &SyncService{
		source:      source,
		matches:     matches,
		monitor:     monitor,
		reminders:   reminders,
		transientDB: transientDB,
		cfg:         cfg,
		logger:      logger,
		cron:        cron.New(cron.WithLocation(time.UTC)),
		pool:        pool,
		limiter:     rate.NewLimiter(rate.Every(cfg.OriginPause), 1),
		now:         time.Now,
	}, nil
}

// Start arms the daily cron entry and runs one full sync immediately
// so a restart re-registers every match in the current window.
func (s *SyncService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.CronSpec, func() {
		s.RunFullSync(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.started = true

	go s.RunFullSync(context.WithoutCancel(ctx))
	return nil
}

// RunFullSync syncs every competition, then registers the current
// window for monitoring. Per-competition failures are counted and
// logged; the run continues with the rest.
func (s *SyncService) RunFullSync(ctx context.Context) {
	runID := uuid.NewString()
	metrics.SyncRuns.Inc()

	started := s.now()
	s.logger.InfoContext(ctx, "full sync started",
		"run_id", runID, "competitions", len(s.cfg.Competitions))

	var wg sync.WaitGroup
	for _, code := range s.cfg.Competitions {
		wg.Add(1)
		if err := s.pool.Submit(func() {
			defer wg.Done()
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			if err := s.syncCompetition(ctx, code); err != nil {
				metrics.SyncCompetitionFailures.Inc()
				s.logger.ErrorContext(ctx, "competition sync failed",
					"run_id", runID, "competition", code, "error", err)
			}
		}); err != nil {
			wg.Done()
			s.logger.ErrorContext(ctx, "submit competition sync failed",
				"run_id", runID, "competition", code, "error", err)
		}
	}
	wg.Wait()

	if err := s.ScheduleMatchMonitoring(ctx); err != nil {
		s.logger.ErrorContext(ctx, "schedule monitoring after sync failed",
			"run_id", runID, "error", err)
	}

	s.logger.InfoContext(ctx, "full sync finished",
		"run_id", runID, "elapsed", s.now().Sub(started).String())
}

// syncCompetition pulls the origin's schedule for one competition and
// persists every fetched fixture. The monitoring window only narrows
// registration, never the catalog.
func (s *SyncService) syncCompetition(ctx context.Context, code string) error {
	fetchCfg := s.cfg.FetchRetry
	fetchCfg.Label = "fetch schedule " + code
	fetchCfg.Logger = s.logger
	fetched, err := resilience.Retry(ctx, fetchCfg, func(ctx context.Context) ([]match.Match, error) {
		return s.source.FetchUpcoming(ctx, code)
	})
	if err != nil {
		return err
	}
	if len(fetched) == 0 {
		return nil
	}

	persistCfg := s.cfg.PersistRetry
	persistCfg.Label = "persist schedule " + code
	persistCfg.Logger = s.logger
	_, err = resilience.RetryClassified(ctx, persistCfg, s.transientDB, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.matches.UpsertBatch(ctx, fetched)
	})
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "competition synced", "competition", code, "matches", len(fetched))
	return nil
}

// ScheduleMatchMonitoring registers every non-terminal match in the
// window with the reminder and monitor services.
func (s *SyncService) ScheduleMatchMonitoring(ctx context.Context) error {
	now := s.now()

	listCfg := s.cfg.PersistRetry
	listCfg.Label = "list monitoring window"
	listCfg.Logger = s.logger
	window, err := resilience.RetryClassified(ctx, listCfg, s.transientDB, func(ctx context.Context) ([]match.Match, error) {
		return s.matches.ListWindow(ctx, now.Add(-s.cfg.WindowBefore), now.Add(s.cfg.WindowAfter), true)
	})
	if err != nil {
		return err
	}

	for _, m := range window {
		s.reminders.EnsureReminder(ctx, m)
		s.monitor.EnsureMonitored(ctx, m)
	}

	s.logger.InfoContext(ctx, "monitoring window registered", "matches", len(window))
	return nil
}

// Stop halts the cron scheduler and worker pool and cascades shutdown
// to the monitor and reminder services.
func (s *SyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		s.pool.Release()
		s.monitor.Stop()
		s.reminders.Stop()
		return
	}
	s.started = false

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	s.pool.Release()
	s.monitor.Stop()
	s.reminders.Stop()
}
