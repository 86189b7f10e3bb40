package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	SyncTriggerToken   string

	DebugEnabled bool
	DebugAddr    string

	DBURL string

	FootballDataBaseURL               string
	FootballDataToken                 string
	FootballDataTimeout               time.Duration
	FootballDataCircuitEnabled        bool
	FootballDataCircuitFailureCount   int
	FootballDataCircuitOpenTimeout    time.Duration
	FootballDataCircuitHalfOpenMaxReq int

	TelegramEnabled     bool
	TelegramToken       string
	TelegramPollTimeout time.Duration
	TelegramSendRate    float64

	Competitions    []string
	SyncCron        string
	SyncWindowBack  time.Duration
	SyncWindowAhead time.Duration
	SyncOriginPause time.Duration
	SyncWorkers     int

	MonitorCheckInterval  time.Duration
	MonitorDurationBuffer time.Duration
	MonitorMaxWindow      time.Duration
	StandingsRefreshDelay time.Duration
	ReminderOffset        time.Duration

	UpcomingTTL        time.Duration
	MatchTTL           time.Duration
	TeamMatchesTTL     time.Duration
	StandingsTTL       time.Duration
	StandingsStaleness time.Duration

	RetryAttempts  int
	RetryBaseDelay time.Duration

	// Origin polls back off on the sports API's timescale, separate
	// from the database retry tuning.
	OriginRetryAttempts  int
	OriginRetryBaseDelay time.Duration

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
	PyroscopeUploadRate    time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "matchbot"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	cfg.HTTPAddr = getEnv("APP_HTTP_ADDR", ":8080")
	readTimeout, err := getEnvAsDuration("APP_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("APP_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.CORSAllowedOrigins = splitCSV(getEnv("APP_CORS_ALLOWED_ORIGINS", ""))
	cfg.SyncTriggerToken = strings.TrimSpace(getEnv("APP_SYNC_TRIGGER_TOKEN", ""))

	debugEnabled, err := getEnvAsBool("APP_DEBUG_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cfg.DebugEnabled = debugEnabled
	cfg.DebugAddr = getEnv("APP_DEBUG_ADDR", ":6060")

	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}

	cfg.FootballDataBaseURL = strings.TrimRight(getEnv("FOOTBALL_DATA_BASE_URL", "https://api.football-data.org/v4"), "/")
	cfg.FootballDataToken = strings.TrimSpace(getEnv("FOOTBALL_DATA_TOKEN", ""))
	if cfg.FootballDataToken == "" {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_TOKEN is required")
	}
	fdTimeout, err := getEnvAsDuration("FOOTBALL_DATA_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.FootballDataTimeout = fdTimeout
	fdCircuitEnabled, err := getEnvAsBool("FOOTBALL_DATA_CIRCUIT_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cfg.FootballDataCircuitEnabled = fdCircuitEnabled
	fdFailures, err := getEnvAsInt("FOOTBALL_DATA_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, err
	}
	if fdFailures < 1 {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cfg.FootballDataCircuitFailureCount = fdFailures
	fdOpenTimeout, err := getEnvAsDuration("FOOTBALL_DATA_CIRCUIT_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	if fdOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	cfg.FootballDataCircuitOpenTimeout = fdOpenTimeout
	fdHalfOpen, err := getEnvAsInt("FOOTBALL_DATA_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, err
	}
	if fdHalfOpen < 1 {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	cfg.FootballDataCircuitHalfOpenMaxReq = fdHalfOpen

	telegramEnabled, err := getEnvAsBool("TELEGRAM_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cfg.TelegramEnabled = telegramEnabled
	cfg.TelegramToken = strings.TrimSpace(getEnv("TELEGRAM_TOKEN", ""))
	if cfg.TelegramEnabled && cfg.TelegramToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_TOKEN is required when TELEGRAM_ENABLED=true")
	}
	pollTimeout, err := getEnvAsDuration("TELEGRAM_POLL_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.TelegramPollTimeout = pollTimeout
	sendRate, err := getEnvAsFloat("TELEGRAM_SEND_RATE", 25)
	if err != nil {
		return Config{}, err
	}
	if sendRate <= 0 {
		return Config{}, fmt.Errorf("TELEGRAM_SEND_RATE must be > 0")
	}
	cfg.TelegramSendRate = sendRate

	cfg.Competitions = splitCSV(strings.ToUpper(getEnv("SYNC_COMPETITIONS", "PL,BL1,SA,PD,FL1")))
	if len(cfg.Competitions) == 0 {
		return Config{}, fmt.Errorf("SYNC_COMPETITIONS must list at least one competition code")
	}
	cfg.SyncCron = strings.TrimSpace(getEnv("SYNC_CRON", "0 6 * * *"))
	windowBack, err := getEnvAsDuration("SYNC_WINDOW_BACK", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	windowAhead, err := getEnvAsDuration("SYNC_WINDOW_AHEAD", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.SyncWindowBack = windowBack
	cfg.SyncWindowAhead = windowAhead
	originPause, err := getEnvAsDuration("SYNC_ORIGIN_PAUSE", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.SyncOriginPause = originPause
	syncWorkers, err := getEnvAsInt("SYNC_WORKERS", 4)
	if err != nil {
		return Config{}, err
	}
	if syncWorkers < 1 {
		return Config{}, fmt.Errorf("SYNC_WORKERS must be >= 1")
	}
	cfg.SyncWorkers = syncWorkers

	checkInterval, err := getEnvAsDuration("MONITOR_CHECK_INTERVAL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	durationBuffer, err := getEnvAsDuration("MONITOR_DURATION_BUFFER", 2*time.Hour)
	if err != nil {
		return Config{}, err
	}
	maxWindow, err := getEnvAsDuration("MONITOR_MAX_WINDOW", time.Hour)
	if err != nil {
		return Config{}, err
	}
	standingsDelay, err := getEnvAsDuration("STANDINGS_REFRESH_DELAY", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	reminderOffset, err := getEnvAsDuration("REMINDER_OFFSET", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.MonitorCheckInterval = checkInterval
	cfg.MonitorDurationBuffer = durationBuffer
	cfg.MonitorMaxWindow = maxWindow
	cfg.StandingsRefreshDelay = standingsDelay
	cfg.ReminderOffset = reminderOffset

	upcomingTTL, err := getEnvAsDuration("CACHE_UPCOMING_TTL", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	matchTTL, err := getEnvAsDuration("CACHE_MATCH_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	teamMatchesTTL, err := getEnvAsDuration("CACHE_TEAM_MATCHES_TTL", time.Hour)
	if err != nil {
		return Config{}, err
	}
	standingsTTL, err := getEnvAsDuration("CACHE_STANDINGS_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	standingsStaleness, err := getEnvAsDuration("CACHE_STANDINGS_STALENESS", 2*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.UpcomingTTL = upcomingTTL
	cfg.MatchTTL = matchTTL
	cfg.TeamMatchesTTL = teamMatchesTTL
	cfg.StandingsTTL = standingsTTL
	cfg.StandingsStaleness = standingsStaleness

	retryAttempts, err := getEnvAsInt("RETRY_ATTEMPTS", 3)
	if err != nil {
		return Config{}, err
	}
	if retryAttempts < 0 {
		return Config{}, fmt.Errorf("RETRY_ATTEMPTS must be >= 0")
	}
	cfg.RetryAttempts = retryAttempts
	retryBaseDelay, err := getEnvAsDuration("RETRY_BASE_DELAY", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.RetryBaseDelay = retryBaseDelay
	originRetryAttempts, err := getEnvAsInt("ORIGIN_RETRY_ATTEMPTS", 3)
	if err != nil {
		return Config{}, err
	}
	if originRetryAttempts < 0 {
		return Config{}, fmt.Errorf("ORIGIN_RETRY_ATTEMPTS must be >= 0")
	}
	cfg.OriginRetryAttempts = originRetryAttempts
	originRetryBaseDelay, err := getEnvAsDuration("ORIGIN_RETRY_BASE_DELAY", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.OriginRetryBaseDelay = originRetryBaseDelay

	uptraceEnabled, err := getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	cfg.UptraceEnabled = uptraceEnabled
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	cfg.PyroscopeEnabled = pyroscopeEnabled
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.PyroscopeUploadRate = pyroscopeUploadRate

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
