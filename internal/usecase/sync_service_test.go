package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/resilience"
)

func newTestSync(t *testing.T, source SourceClient, matches match.Repository, competitions ...string) (*SyncService, *MonitorService, *ReminderService) {
	t.Helper()

	quick := resilience.RetryConfig{Retries: 0, BaseDelay: time.Millisecond}
	monitor := NewMonitorService(
		refresherFunc(func(_ context.Context, id int64) (match.Match, error) {
			return match.Match{}, errors.New("unused")
		}),
		&recordingScorer{}, &recordingNotifier{}, newRecordingStandings(), nil,
		MonitorConfig{PollRetry: quick, EvaluateRetry: quick, StandingsRetry: quick},
		logging.NewNop(),
	)
	reminders := NewReminderService(func(context.Context, match.Match) error { return nil },
		ReminderConfig{NotifyRetry: quick}, logging.NewNop())

	svc, err := NewSyncService(source, matches, monitor, reminders, nil, SyncConfig{
		Competitions: competitions,
		OriginPause:  time.Millisecond,
		Workers:      2,
		FetchRetry:   quick,
		PersistRetry: quick,
	}, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(svc.Stop)
	return svc, monitor, reminders
}

func TestSyncService_RunFullSync_PersistsScheduleAndRegistersWindow(t *testing.T) {
	t.Parallel()

	now := time.Now()
	inWindow := match.Match{ID: 1, CompetitionCode: "PL", Status: match.StatusTimed, KickoffAt: now.Add(6 * time.Hour)}
	nextWeek := match.Match{ID: 2, CompetitionCode: "PL", Status: match.StatusScheduled, KickoffAt: now.Add(72 * time.Hour)}
	source := &stubSource{
		fetchUpcoming: func(_ context.Context, code string) ([]match.Match, error) {
			return []match.Match{inWindow, nextWeek}, nil
		},
	}
	matches := newStubMatchRepo()

	svc, monitor, reminders := newTestSync(t, source, matches, "PL")

	svc.RunFullSync(context.Background())

	_, found, err := matches.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, found)
	_, found, err = matches.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, found, "the full fetched schedule is persisted, not just the near window")

	require.True(t, monitor.Monitored(1))
	require.True(t, reminders.Armed(1))
	require.False(t, monitor.Monitored(2), "registration stays bounded to the near window")
	require.False(t, reminders.Armed(2))
}

func TestSyncService_RunFullSync_CompetitionFailureDoesNotAbortRun(t *testing.T) {
	t.Parallel()

	now := time.Now()
	source := &stubSource{
		fetchUpcoming: func(_ context.Context, code string) ([]match.Match, error) {
			if code == "SA" {
				return nil, errors.New("origin 500")
			}
			return []match.Match{
				{ID: 10, CompetitionCode: code, Status: match.StatusTimed, KickoffAt: now.Add(time.Hour)},
			}, nil
		},
	}
	matches := newStubMatchRepo()

	svc, monitor, _ := newTestSync(t, source, matches, "SA", "PL")

	svc.RunFullSync(context.Background())

	_, found, err := matches.GetByID(context.Background(), 10)
	require.NoError(t, err)
	require.True(t, found, "healthy competitions still sync")
	require.True(t, monitor.Monitored(10))
}

func TestSyncService_ScheduleMatchMonitoring_SkipsTerminalMatches(t *testing.T) {
	t.Parallel()

	now := time.Now()
	matches := newStubMatchRepo()
	matches.byID[20] = match.Match{ID: 20, Status: match.StatusTimed, KickoffAt: now.Add(2 * time.Hour)}
	matches.byID[21] = match.Match{ID: 21, Status: match.StatusFinished, KickoffAt: now.Add(-2 * time.Hour)}

	svc, monitor, reminders := newTestSync(t, &stubSource{}, matches, "PL")

	require.NoError(t, svc.ScheduleMatchMonitoring(context.Background()))

	require.True(t, monitor.Monitored(20))
	require.True(t, reminders.Armed(20))
	require.False(t, monitor.Monitored(21))
	require.False(t, reminders.Armed(21))
}

func TestSyncService_RunFullSync_IsIdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	now := time.Now()
	source := &stubSource{
		fetchUpcoming: func(_ context.Context, code string) ([]match.Match, error) {
			return []match.Match{
				{ID: 30, CompetitionCode: code, Status: match.StatusTimed, KickoffAt: now.Add(3 * time.Hour)},
			}, nil
		},
	}
	matches := newStubMatchRepo()

	svc, monitor, _ := newTestSync(t, source, matches, "PL")

	svc.RunFullSync(context.Background())
	svc.RunFullSync(context.Background())

	monitor.mu.Lock()
	handles := len(monitor.handles)
	monitor.mu.Unlock()
	require.Equal(t, 1, handles, "repeat registration must not duplicate monitors")
}
