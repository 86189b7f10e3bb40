// Package metrics exposes Prometheus counters for the scheduling and
// notification engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "matchbot"

var (
	SyncRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Full catalog sync runs.",
	})

	SyncCompetitionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "competition_failures_total",
		Help:      "Per-competition sync failures.",
	})

	MonitorsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "started_total",
		Help:      "Match monitors armed (deferred or active).",
	})

	MonitorPolls = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "polls_total",
		Help:      "Status polls performed by active monitors.",
	})

	MonitorDeadlineExpired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "deadline_expired_total",
		Help:      "Monitors stopped by the monitoring deadline without a terminal status.",
	})

	FinishPipelines = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "monitor",
		Name:      "finish_pipelines_total",
		Help:      "Finish pipelines executed for terminal matches.",
	})

	RemindersFired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reminder",
		Name:      "fired_total",
		Help:      "Pre-match reminder callbacks fired.",
	})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "sent_total",
		Help:      "Messages delivered to subscribers.",
	}, []string{"kind"})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "failures_total",
		Help:      "Message delivery failures.",
	}, []string{"kind"})

	StandingsRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "standings",
		Name:      "refreshes_total",
		Help:      "Delayed standings refreshes executed after a finished match.",
	})
)
