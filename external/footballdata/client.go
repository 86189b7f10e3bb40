// Package footballdata is the football-data.org v4 API client. It is
// the single origin tier: callers go through the data gateway, which
// layers caching and persistence on top.
package footballdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/standings"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/resilience"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/usecase"
)

const (
	defaultBaseURL     = "https://api.football-data.org/v4"
	defaultWindowBack  = 24 * time.Hour
	defaultWindowAhead = 14 * 24 * time.Hour
	maxBodyBytes       = 4 << 20
)

var tokenHeaderRegex = regexp.MustCompile(`X-Auth-Token:\s*\S+`)

// ErrTransient marks failures worth retrying: network errors, 429 and
// 5xx responses.
var ErrTransient = crerr.New("football-data transient failure")

// IsTransient reports whether an origin error is retryable.
func IsTransient(err error) bool {
	return crerr.Is(err, ErrTransient)
}

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
	Timeout    time.Duration

	// WindowBack/WindowAhead bound the schedule query for
	// FetchUpcoming; the gateway narrows further.
	WindowBack  time.Duration
	WindowAhead time.Duration

	CircuitEnabled   bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int

	Logger *logging.Logger
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	windowBack     time.Duration
	windowAhead    time.Duration
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	logger         *logging.Logger

	now func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	windowBack := cfg.WindowBack
	if windowBack <= 0 {
		windowBack = defaultWindowBack
	}
	windowAhead := cfg.WindowAhead
	if windowAhead <= 0 {
		windowAhead = defaultWindowAhead
	}
	failureThreshold := cfg.FailureThreshold
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}
	halfOpenMax := cfg.HalfOpenMaxReq
	if halfOpenMax <= 0 {
		halfOpenMax = 1
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		token:          strings.TrimSpace(cfg.Token),
		windowBack:     windowBack,
		windowAhead:    windowAhead,
		breaker:        resilience.NewCircuitBreaker(failureThreshold, openTimeout, halfOpenMax),
		circuitEnabled: cfg.CircuitEnabled,
		logger:         logger,
		now:            time.Now,
	}
}

var _ usecase.SourceClient = (*Client)(nil)

// FetchUpcoming returns the competition's schedule around now.
func (c *Client) FetchUpcoming(ctx context.Context, competitionCode string) ([]match.Match, error) {
	if competitionCode == "" {
		return nil, fmt.Errorf("competition code is required")
	}

	now := c.now().UTC()
	query := map[string]string{
		"dateFrom": now.Add(-c.windowBack).Format("2006-01-02"),
		"dateTo":   now.Add(c.windowAhead).Format("2006-01-02"),
	}

	var envelope matchesEnvelope
	path := "/competitions/" + url.PathEscape(competitionCode) + "/matches"
	if err := c.doJSON(ctx, path, query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch schedule competition=%s: %w", competitionCode, err)
	}

	out := make([]match.Match, 0, len(envelope.Matches))
	for _, item := range envelope.Matches {
		m, err := item.toDomain()
		if err != nil {
			c.logger.WarnContext(ctx, "skipping malformed schedule entry",
				"competition", competitionCode, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// FetchMatch returns the live state of one match.
func (c *Client) FetchMatch(ctx context.Context, id int64) (match.Match, error) {
	if id <= 0 {
		return match.Match{}, fmt.Errorf("match id must be greater than zero")
	}

	var item matchItem
	path := "/matches/" + strconv.FormatInt(id, 10)
	if err := c.doJSON(ctx, path, nil, &item); err != nil {
		return match.Match{}, fmt.Errorf("fetch match id=%d: %w", id, err)
	}
	return item.toDomain()
}

// FetchTeamMatches returns the team's most recent finished matches.
func (c *Client) FetchTeamMatches(ctx context.Context, teamID int64, limit int) ([]match.Match, error) {
	if teamID <= 0 {
		return nil, fmt.Errorf("team id must be greater than zero")
	}
	if limit <= 0 {
		limit = 5
	}

	query := map[string]string{
		"status": match.StatusFinished,
		"limit":  strconv.Itoa(limit),
	}

	var envelope matchesEnvelope
	path := "/teams/" + strconv.FormatInt(teamID, 10) + "/matches"
	if err := c.doJSON(ctx, path, query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch team matches team_id=%d: %w", teamID, err)
	}

	out := make([]match.Match, 0, len(envelope.Matches))
	for _, item := range envelope.Matches {
		m, err := item.toDomain()
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// FetchStandings returns the competition's total table.
func (c *Client) FetchStandings(ctx context.Context, competitionCode string) (standings.Snapshot, error) {
	if competitionCode == "" {
		return standings.Snapshot{}, fmt.Errorf("competition code is required")
	}

	var envelope standingsEnvelope
	path := "/competitions/" + url.PathEscape(competitionCode) + "/standings"
	if err := c.doJSON(ctx, path, nil, &envelope); err != nil {
		return standings.Snapshot{}, fmt.Errorf("fetch standings competition=%s: %w", competitionCode, err)
	}

	snapshot := standings.Snapshot{
		CompetitionCode: firstNonEmpty(envelope.Competition.Code, competitionCode),
		CompetitionName: envelope.Competition.Name,
	}
	for _, block := range envelope.Standings {
		if block.Type != "TOTAL" {
			continue
		}
		snapshot.Rows = make([]standings.Row, 0, len(block.Table))
		for _, entry := range block.Table {
			snapshot.Rows = append(snapshot.Rows, standings.Row{
				Position:       entry.Position,
				TeamID:         entry.Team.ID,
				TeamName:       entry.Team.Name,
				Played:         entry.PlayedGames,
				Won:            entry.Won,
				Draw:           entry.Draw,
				Lost:           entry.Lost,
				GoalsFor:       entry.GoalsFor,
				GoalsAgainst:   entry.GoalsAgainst,
				GoalDifference: entry.GoalDifference,
				Points:         entry.Points,
			})
		}
		break
	}
	if len(snapshot.Rows) == 0 {
		return standings.Snapshot{}, fmt.Errorf("standings competition=%s: no TOTAL table in response", competitionCode)
	}
	return snapshot, nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "origin circuit breaker rejected request",
				"path", path, "state", string(c.breaker.State()))
			return fmt.Errorf("%w: origin is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && IsTransient(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode origin payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %s", ErrTransient, sanitize(err.Error(), c.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", ErrTransient, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case isRetryableStatus(resp.StatusCode):
		return nil, fmt.Errorf("%w: origin status=%d body=%s", ErrTransient, resp.StatusCode, abbreviate(raw))
	default:
		return nil, fmt.Errorf("origin status=%d body=%s", resp.StatusCode, abbreviate(raw))
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func sanitize(value, token string) string {
	value = strings.TrimSpace(value)
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return tokenHeaderRegex.ReplaceAllString(value, "X-Auth-Token: REDACTED")
}

func abbreviate(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
