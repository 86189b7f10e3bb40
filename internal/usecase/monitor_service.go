package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/standings"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/metrics"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/resilience"
)

// MatchRefresher pulls the live state of a match from the origin.
type MatchRefresher interface {
	RefreshMatch(ctx context.Context, id int64) (match.Match, error)
}

// StandingsRefresher invalidates and refetches a league table.
type StandingsRefresher interface {
	RefreshStandings(ctx context.Context, competitionCode string) (standings.Snapshot, error)
}

// MatchScorer evaluates stored predictions against a finished match.
type MatchScorer interface {
	EvaluateMatch(ctx context.Context, m match.Match) (int, error)
}

// ResultNotifier messages subscribers after a match ends.
type ResultNotifier interface {
	SendPostMatchResults(ctx context.Context, m match.Match) (int, error)
}

type MonitorConfig struct {
	// CheckInterval is the poll cadence while a monitor is active.
	CheckInterval time.Duration

	// DurationBuffer is how long after kickoff polling begins; a
	// regulation match plus stoppage fits inside it.
	DurationBuffer time.Duration

	// MaxMonitoringWindow bounds active polling. A match that never
	// turns terminal within it is abandoned.
	MaxMonitoringWindow time.Duration

	// StandingsDelay is how long after the finish pipeline the league
	// table refresh runs; the origin needs time to settle the table.
	StandingsDelay time.Duration

	PollRetry      resilience.RetryConfig
	EvaluateRetry  resilience.RetryConfig
	StandingsRetry resilience.RetryConfig
}

func (c MonitorConfig) normalize() MonitorConfig {
	if c.CheckInterval <= 0 {
		c.CheckInterval = 5 * time.Minute
	}
	if c.DurationBuffer <= 0 {
		c.DurationBuffer = 2 * time.Hour
	}
	if c.MaxMonitoringWindow <= 0 {
		c.MaxMonitoringWindow = time.Hour
	}
	if c.StandingsDelay <= 0 {
		c.StandingsDelay = 15 * time.Minute
	}
	return c
}

type monitorState int

const (
	monitorDeferred monitorState = iota
	monitorPolling
)

// monitorHandle is the single in-process registration for one match.
// Exactly one exists per match id at any time.
type monitorHandle struct {
	match match.Match
	state monitorState
	timer *time.Timer
	stop  chan struct{}
}

// MonitorService tracks registered matches to their terminal status
// and runs the finish pipeline when one ends. Registration is
// idempotent per match id. State is in-process; the daily sync re-arms
// monitors after a restart.
type MonitorService struct {
	refresher MatchRefresher
	scorer    MatchScorer
	notifier  ResultNotifier
	standings StandingsRefresher
	reminders *ReminderService
	cfg       MonitorConfig
	logger    *logging.Logger

	mu              sync.Mutex
	handles         map[int64]*monitorHandle
	standingsTimers map[*time.Timer]struct{}
	stopped         bool

	pollers conc.WaitGroup

	// onFinished runs after the finish pipeline; tests hook it.
	onFinished func(match.Match)

	now func() time.Time
}

func NewMonitorService(
	refresher MatchRefresher,
	scorer MatchScorer,
	notifier ResultNotifier,
	standings StandingsRefresher,
	reminders *ReminderService,
	cfg MonitorConfig,
	logger *logging.Logger,
) *MonitorService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MonitorService{
		refresher:       refresher,
		scorer:          scorer,
		notifier:        notifier,
		standings:       standings,
		reminders:       reminders,
		cfg:             cfg.normalize(),
		logger:          logger,
		handles:         map[int64]*monitorHandle{},
		standingsTimers: map[*time.Timer]struct{}{},
		now:             time.Now,
	}
}

// EnsureMonitored registers the match for lifecycle tracking. Three
// cases by position relative to the polling window: before it, a
// deferred timer arms the poller at window start; inside it, polling
// starts now; past it, a single catch-up check settles the result.
// Terminal matches and duplicate registrations are no-ops.
func (s *MonitorService) EnsureMonitored(ctx context.Context, m match.Match) {
	if m.IsTerminal() {
		return
	}

	now := s.now()
	pollFrom := m.KickoffAt.Add(s.cfg.DurationBuffer)
	deadline := pollFrom.Add(s.cfg.MaxMonitoringWindow)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, exists := s.handles[m.ID]; exists {
		return
	}

	if now.After(deadline) {
		// The window already closed, likely after a restart. One
		// check settles whatever result exists. The handle is kept
		// until the check returns so Stop can cancel it too.
		s.logger.InfoContext(ctx, "monitoring window passed, running catch-up check", "match_id", m.ID)
		h := &monitorHandle{match: m, state: monitorPolling, stop: make(chan struct{})}
		s.handles[m.ID] = h
		s.pollers.Go(func() {
			defer s.release(m.ID)
			if _, err := s.checkOnce(context.Background(), h); err != nil {
				s.logger.Warn("catch-up check failed", "match_id", m.ID, "error", err)
			}
		})
		return
	}

	h := &monitorHandle{match: m, stop: make(chan struct{})}
	metrics.MonitorsStarted.Inc()

	if now.Before(pollFrom) {
		h.state = monitorDeferred
		h.timer = time.AfterFunc(pollFrom.Sub(now), func() {
			s.activate(m.ID, deadline)
		})
		s.handles[m.ID] = h
		s.logger.DebugContext(ctx, "monitor deferred", "match_id", m.ID, "polls_from", pollFrom)
		return
	}

	h.state = monitorPolling
	s.handles[m.ID] = h
	s.pollers.Go(func() {
		s.pollUntilTerminal(h, deadline)
	})
	s.logger.DebugContext(ctx, "monitor polling", "match_id", m.ID, "deadline", deadline)
}

// Monitored reports whether a handle exists for the match.
func (s *MonitorService) Monitored(matchID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handles[matchID]
	return ok
}

// activate flips a deferred handle into polling when its start timer
// fires.
func (s *MonitorService) activate(matchID int64, deadline time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	h, ok := s.handles[matchID]
	if !ok || h.state != monitorDeferred {
		return
	}
	h.state = monitorPolling
	h.timer = nil
	s.pollers.Go(func() {
		s.pollUntilTerminal(h, deadline)
	})
}

func (s *MonitorService) pollUntilTerminal(h *monitorHandle, deadline time.Time) {
	ctx := context.Background()
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		if s.now().After(deadline) {
			metrics.MonitorDeadlineExpired.Inc()
			s.logger.Warn("monitoring deadline reached without terminal status",
				"match_id", h.match.ID, "status", h.match.Status)
			s.release(h.match.ID)
			return
		}

		done, err := s.checkOnce(ctx, h)
		if err != nil {
			s.logger.Warn("status poll failed", "match_id", h.match.ID, "error", err)
		}
		if done {
			s.release(h.match.ID)
			return
		}

		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}
	}
}

// checkOnce polls the origin once. It reports done when the match is
// terminal, after running the finish pipeline if a final score exists.
func (s *MonitorService) checkOnce(ctx context.Context, h *monitorHandle) (bool, error) {
	metrics.MonitorPolls.Inc()

	cfg := s.cfg.PollRetry
	cfg.Label = "poll match status"
	cfg.Logger = s.logger
	updated, err := resilience.Retry(ctx, cfg, func(ctx context.Context) (match.Match, error) {
		return s.refresher.RefreshMatch(ctx, h.match.ID)
	})
	if err != nil {
		return false, err
	}
	h.match = updated

	if !updated.IsTerminal() {
		return false, nil
	}

	// The handle may have been stopped while the poll was in flight;
	// a stopped monitor must produce no side effects.
	select {
	case <-h.stop:
		return true, nil
	default:
	}

	if s.reminders != nil {
		s.reminders.Cancel(updated.ID)
	}

	if updated.Status == match.StatusFinished && updated.HasFinalScore() {
		s.runFinishPipeline(ctx, updated)
	} else {
		s.logger.InfoContext(ctx, "match ended without a final score, skipping finish pipeline",
			"match_id", updated.ID, "status", updated.Status)
	}
	return true, nil
}

// runFinishPipeline performs the three post-match effects. Each is
// independent; a failure in one is logged and the rest still run.
func (s *MonitorService) runFinishPipeline(ctx context.Context, m match.Match) {
	metrics.FinishPipelines.Inc()
	s.logger.InfoContext(ctx, "match finished, running finish pipeline",
		"match_id", m.ID, "home", m.HomeTeam, "away", m.AwayTeam)

	evalCfg := s.cfg.EvaluateRetry
	evalCfg.Label = "evaluate predictions"
	evalCfg.Logger = s.logger
	if err := resilience.RetryNoResult(ctx, evalCfg, func(ctx context.Context) error {
		_, err := s.scorer.EvaluateMatch(ctx, m)
		return err
	}); err != nil {
		s.logger.ErrorContext(ctx, "prediction evaluation failed", "match_id", m.ID, "error", err)
	}

	if _, err := s.notifier.SendPostMatchResults(ctx, m); err != nil {
		s.logger.ErrorContext(ctx, "post-match notifications failed", "match_id", m.ID, "error", err)
	}

	if m.CompetitionCode != "" {
		s.scheduleStandingsRefresh(m.CompetitionCode)
	}

	s.mu.Lock()
	hook := s.onFinished
	s.mu.Unlock()
	if hook != nil {
		hook(m)
	}
}

// scheduleStandingsRefresh arms the delayed league table refresh.
func (s *MonitorService) scheduleStandingsRefresh(competitionCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(s.cfg.StandingsDelay, func() {
		s.mu.Lock()
		delete(s.standingsTimers, timer)
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return
		}

		metrics.StandingsRefreshes.Inc()
		cfg := s.cfg.StandingsRetry
		cfg.Label = "refresh standings"
		cfg.Logger = s.logger
		if err := resilience.RetryNoResult(context.Background(), cfg, func(ctx context.Context) error {
			_, err := s.standings.RefreshStandings(ctx, competitionCode)
			return err
		}); err != nil {
			s.logger.Error("delayed standings refresh failed",
				"competition", competitionCode, "error", err)
		}
	})
	s.standingsTimers[timer] = struct{}{}
}

func (s *MonitorService) release(matchID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handles, matchID)
}

// Stop cancels every handle and pending standings refresh, then waits
// for active pollers to drain. Idempotent.
func (s *MonitorService) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, h := range s.handles {
		if h.timer != nil {
			h.timer.Stop()
		}
		close(h.stop)
		delete(s.handles, id)
	}
	for timer := range s.standingsTimers {
		timer.Stop()
		delete(s.standingsTimers, timer)
	}
	s.mu.Unlock()

	s.pollers.Wait()
}
