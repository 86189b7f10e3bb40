package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/metrics"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/resilience"
)

// ReminderNotifier is invoked when a match's reminder moment arrives.
type ReminderNotifier func(ctx context.Context, m match.Match) error

type ReminderConfig struct {
	// Offset before kickoff at which the reminder fires.
	Offset      time.Duration
	NotifyRetry resilience.RetryConfig
}

func (c ReminderConfig) normalize() ReminderConfig {
	if c.Offset <= 0 {
		c.Offset = 15 * time.Minute
	}
	return c
}

// ReminderService arms one pre-kickoff reminder per match. Timers are
// in-process only; on restart the sync pass re-arms reminders for the
// current window and the persisted notified flags keep subscribers
// from being messaged twice.
type ReminderService struct {
	notify ReminderNotifier
	cfg    ReminderConfig
	logger *logging.Logger

	mu      sync.Mutex
	timers  map[int64]*time.Timer
	stopped bool

	now func() time.Time
}

func NewReminderService(notify ReminderNotifier, cfg ReminderConfig, logger *logging.Logger) *ReminderService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReminderService{
		notify: notify,
		cfg:    cfg.normalize(),
		logger: logger,
		timers: map[int64]*time.Timer{},
		now:    time.Now,
	}
}

// EnsureReminder arms a reminder for the match unless one is already
// armed. A match inside the reminder window but before kickoff fires
// immediately; a match past kickoff is ignored.
func (s *ReminderService) EnsureReminder(ctx context.Context, m match.Match) {
	if m.IsTerminal() {
		return
	}

	now := s.now()
	if !now.Before(m.KickoffAt) {
		return
	}

	reminderAt := m.KickoffAt.Add(-s.cfg.Offset)
	if !now.Before(reminderAt) {
		// Inside the window already. Fire once, without arming a
		// timer, so a repeat EnsureReminder call can not double-fire
		// ahead of the persisted flag check.
		s.fire(ctx, m)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if _, exists := s.timers[m.ID]; exists {
		return
	}

	s.timers[m.ID] = time.AfterFunc(reminderAt.Sub(now), func() {
		s.mu.Lock()
		delete(s.timers, m.ID)
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return
		}
		s.fire(context.Background(), m)
	})

	s.logger.DebugContext(ctx, "reminder armed",
		"match_id", m.ID, "fires_at", reminderAt)
}

// Cancel drops an armed reminder, if any. Used when a match turns
// terminal before its reminder moment.
func (s *ReminderService) Cancel(matchID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[matchID]; ok {
		timer.Stop()
		delete(s.timers, matchID)
	}
}

// Armed reports whether a reminder timer exists for the match.
func (s *ReminderService) Armed(matchID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[matchID]
	return ok
}

// Stop cancels every armed reminder. In-flight notify callbacks are
// not interrupted.
func (s *ReminderService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

func (s *ReminderService) fire(ctx context.Context, m match.Match) {
	metrics.RemindersFired.Inc()

	cfg := s.cfg.NotifyRetry
	cfg.Label = "pre-match reminder"
	cfg.Logger = s.logger
	if err := resilience.RetryNoResult(ctx, cfg, func(ctx context.Context) error {
		return s.notify(ctx, m)
	}); err != nil {
		s.logger.ErrorContext(ctx, "pre-match reminder delivery failed",
			"match_id", m.ID, "error", err)
	}
}
