package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"golang.org/x/time/rate"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/external/footballdata"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/external/telegram"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/config"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/infrastructure/repository/postgres"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/interfaces/httpapi"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/observability"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/cache"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/resilience"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/usecase"
)

// App owns every long-lived component and their shutdown order.
type App struct {
	cfg    config.Config
	logger *logging.Logger

	db       *sqlx.DB
	notifier *telegram.Notifier
	sync     *usecase.SyncService

	httpServer  *http.Server
	debugServer *http.Server

	shutdownUptrace func(context.Context) error
	stopPyroscope   func() error
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Open("postgres", cfg.DBURL,
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	matchRepo := postgres.NewMatchRepository(db)
	standingsRepo := postgres.NewStandingsRepository(db)
	predictionRepo := postgres.NewPredictionRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)

	dbRetry := resilience.RetryConfig{
		Retries:   cfg.RetryAttempts,
		BaseDelay: cfg.RetryBaseDelay,
		Logger:    logger,
	}
	originRetry := resilience.RetryConfig{
		Retries:   cfg.OriginRetryAttempts,
		BaseDelay: cfg.OriginRetryBaseDelay,
		Logger:    logger,
	}

	source := footballdata.NewClient(footballdata.ClientConfig{
		BaseURL:          cfg.FootballDataBaseURL,
		Token:            cfg.FootballDataToken,
		Timeout:          cfg.FootballDataTimeout,
		CircuitEnabled:   cfg.FootballDataCircuitEnabled,
		FailureThreshold: cfg.FootballDataCircuitFailureCount,
		OpenTimeout:      cfg.FootballDataCircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.FootballDataCircuitHalfOpenMaxReq,
		Logger:           logger,
	})

	matchData := usecase.NewMatchDataService(
		source,
		cache.NewStore(),
		matchRepo,
		standingsRepo,
		postgres.IsTransient,
		usecase.MatchDataConfig{
			UpcomingTTL:        cfg.UpcomingTTL,
			MatchTTL:           cfg.MatchTTL,
			TeamMatchesTTL:     cfg.TeamMatchesTTL,
			StandingsTTL:       cfg.StandingsTTL,
			StandingsStaleness: cfg.StandingsStaleness,
			PersistRetry:       dbRetry,
		},
		logger,
	)

	accuracy := usecase.NewAccuracyService(predictionRepo, logger)

	var messenger usecase.Messenger
	var notifier *telegram.Notifier
	if cfg.TelegramEnabled {
		notifier, err = telegram.New(telegram.Config{
			Token:       cfg.TelegramToken,
			PollTimeout: cfg.TelegramPollTimeout,
			SendRate:    rate.Limit(cfg.TelegramSendRate),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("build telegram notifier: %w", err)
		}
		messenger = notifier
	} else {
		messenger = logMessenger{logger: logger}
	}

	notification := usecase.NewNotificationService(
		subscriptionRepo,
		predictionRepo,
		messenger,
		postgres.IsTransient,
		dbRetry,
		logger,
	)

	reminders := usecase.NewReminderService(
		func(ctx context.Context, m match.Match) error {
			_, err := notification.SendPreMatchReminders(ctx, m)
			return err
		},
		usecase.ReminderConfig{
			Offset:      cfg.ReminderOffset,
			NotifyRetry: dbRetry,
		},
		logger,
	)

	monitor := usecase.NewMonitorService(
		matchData,
		accuracy,
		notification,
		matchData,
		reminders,
		usecase.MonitorConfig{
			CheckInterval:       cfg.MonitorCheckInterval,
			DurationBuffer:      cfg.MonitorDurationBuffer,
			MaxMonitoringWindow: cfg.MonitorMaxWindow,
			StandingsDelay:      cfg.StandingsRefreshDelay,
			PollRetry:           originRetry,
			EvaluateRetry:       dbRetry,
			StandingsRetry:      dbRetry,
		},
		logger,
	)

	syncService, err := usecase.NewSyncService(
		source,
		matchRepo,
		monitor,
		reminders,
		postgres.IsTransient,
		usecase.SyncConfig{
			Competitions: cfg.Competitions,
			CronSpec:     cfg.SyncCron,
			WindowBefore: cfg.SyncWindowBack,
			WindowAfter:  cfg.SyncWindowAhead,
			OriginPause:  cfg.SyncOriginPause,
			Workers:      cfg.SyncWorkers,
			FetchRetry:   originRetry,
			PersistRetry: dbRetry,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("build sync service: %w", err)
	}

	handler := httpapi.NewHandler(matchData, accuracy, syncService, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.SyncTriggerToken)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		notifier:   notifier,
		sync:       syncService,
		httpServer: httpServer,
	}, nil
}

// Start brings up observability, verifies the database, and launches
// the bot, the sync scheduler, and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	shutdownUptrace, err := observability.InitUptrace(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	a.shutdownUptrace = shutdownUptrace

	stopPyroscope, err := observability.InitPyroscope(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	a.stopPyroscope = stopPyroscope

	debugServer, err := observability.StartDebugServer(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("start debug server: %w", err)
	}
	a.debugServer = debugServer

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := a.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if a.notifier != nil {
		go a.notifier.Start()
	}

	if err := a.sync.Start(ctx); err != nil {
		return fmt.Errorf("start sync service: %w", err)
	}

	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server failed", "error", err)
		}
	}()

	return nil
}

// Stop tears components down in reverse dependency order.
func (a *App) Stop(ctx context.Context) error {
	var firstErr error

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown failed", "error", err)
		firstErr = err
	}

	a.sync.Stop()

	if a.notifier != nil {
		a.notifier.Stop()
	}

	if a.debugServer != nil {
		if err := observability.StopDebugServer(a.debugServer, a.logger, 5*time.Second); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.stopPyroscope != nil {
		if err := a.stopPyroscope(); err != nil {
			a.logger.Error("pyroscope stop failed", "error", err)
		}
	}

	if a.shutdownUptrace != nil {
		if err := a.shutdownUptrace(ctx); err != nil {
			a.logger.Error("uptrace shutdown failed", "error", err)
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}

// logMessenger stands in for Telegram when the bot is disabled, so
// notification flows still complete in development.
type logMessenger struct {
	logger *logging.Logger
}

func (m logMessenger) Send(_ context.Context, chatID int64, text string) error {
	m.logger.Info("notification suppressed, telegram disabled", "chat_id", chatID, "text", text)
	return nil
}
