package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/standings"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/infrastructure/repository/memory"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/cache"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/usecase"
)

type stubSource struct {
	upcoming  []match.Match
	matches   map[int64]match.Match
	standings map[string]standings.Snapshot
}

func (s *stubSource) FetchUpcoming(_ context.Context, _ string) ([]match.Match, error) {
	return s.upcoming, nil
}

func (s *stubSource) FetchMatch(_ context.Context, id int64) (match.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return match.Match{}, fmt.Errorf("%w: match %d", usecase.ErrNotFound, id)
	}
	return m, nil
}

func (s *stubSource) FetchTeamMatches(_ context.Context, _ int64, _ int) ([]match.Match, error) {
	return nil, nil
}

func (s *stubSource) FetchStandings(_ context.Context, code string) (standings.Snapshot, error) {
	snapshot, ok := s.standings[code]
	if !ok {
		return standings.Snapshot{}, fmt.Errorf("%w: standings %s", usecase.ErrNotFound, code)
	}
	return snapshot, nil
}

type recordingSync struct {
	runs chan struct{}
}

func (r *recordingSync) RunFullSync(_ context.Context) {
	r.runs <- struct{}{}
}

func newTestRouter(t *testing.T, source *stubSource, sync SyncRunner, syncToken string) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	matchData := usecase.NewMatchDataService(
		source,
		cache.NewStore(),
		memory.NewMatchRepository(),
		memory.NewStandingsRepository(),
		nil,
		usecase.MatchDataConfig{},
		logger,
	)
	accuracy := usecase.NewAccuracyService(memory.NewPredictionRepository(), logger)
	handler := NewHandler(matchData, accuracy, sync, logger)

	return NewRouter(handler, logger, nil, syncToken)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, &stubSource{}, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["status"].(string); got != "ok" {
		t.Fatalf("expected status ok, got %v", data["status"])
	}
}

func TestListUpcomingMatches(t *testing.T) {
	kickoff := time.Now().Add(3 * time.Hour).UTC().Truncate(time.Second)
	source := &stubSource{
		upcoming: []match.Match{
			{
				ID:              101,
				CompetitionCode: "PL",
				HomeTeam:        "Arsenal",
				HomeTeamID:      57,
				AwayTeam:        "Chelsea",
				AwayTeamID:      61,
				KickoffAt:       kickoff,
				Status:          match.StatusTimed,
			},
		},
	}
	router := newTestRouter(t, source, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/matches/upcoming?competition=pl&days=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	items, ok := body["data"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one match in data, got %v", body["data"])
	}
	item, _ := items[0].(map[string]any)
	if got, _ := item["home_team"].(string); got != "Arsenal" {
		t.Fatalf("expected home_team Arsenal, got %v", item["home_team"])
	}
}

func TestListUpcomingMatches_ValidationErrors(t *testing.T) {
	router := newTestRouter(t, &stubSource{}, nil, "")

	cases := []struct {
		name string
		url  string
	}{
		{"missing competition", "/v1/matches/upcoming"},
		{"days out of range", "/v1/matches/upcoming?competition=PL&days=60"},
		{"days not numeric", "/v1/matches/upcoming?competition=PL&days=tomorrow"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestGetMatch(t *testing.T) {
	home, away := 2, 1
	source := &stubSource{
		matches: map[int64]match.Match{
			77: {
				ID:        77,
				HomeTeam:  "Inter",
				AwayTeam:  "Milan",
				Status:    match.StatusFinished,
				HomeScore: &home,
				AwayScore: &away,
			},
		},
	}
	router := newTestRouter(t, source, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/matches/77", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["status"].(string); got != match.StatusFinished {
		t.Fatalf("expected FINISHED status, got %v", data["status"])
	}
	if got, _ := data["home_score"].(float64); int(got) != 2 {
		t.Fatalf("expected home_score 2, got %v", data["home_score"])
	}
}

func TestGetMatch_InvalidID(t *testing.T) {
	router := newTestRouter(t, &stubSource{}, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/matches/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestGetStandings(t *testing.T) {
	source := &stubSource{
		standings: map[string]standings.Snapshot{
			"PL": {
				CompetitionCode: "PL",
				CompetitionName: "Premier League",
				Rows: []standings.Row{
					{Position: 1, TeamID: 57, TeamName: "Arsenal", Points: 80},
				},
			},
		},
	}
	router := newTestRouter(t, source, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/competitions/pl/standings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	table, _ := data["table"].([]any)
	if len(table) != 1 {
		t.Fatalf("expected one table row, got %v", data["table"])
	}
	row, _ := table[0].(map[string]any)
	if got, _ := row["team_name"].(string); got != "Arsenal" {
		t.Fatalf("expected team_name Arsenal, got %v", row["team_name"])
	}
}

func TestGetAccuracyStats_Empty(t *testing.T) {
	router := newTestRouter(t, &stubSource{}, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/v1/predictions/accuracy", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["total_evaluated"].(float64); int(got) != 0 {
		t.Fatalf("expected total_evaluated 0, got %v", data["total_evaluated"])
	}
}

func TestRunSync_TriggersBackgroundRun(t *testing.T) {
	sync := &recordingSync{runs: make(chan struct{}, 1)}
	router := newTestRouter(t, &stubSource{}, sync, "secret-token")

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/sync/run", nil)
	req.Header.Set("X-Sync-Token", "secret-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body.String())
	}

	select {
	case <-sync.runs:
	case <-time.After(time.Second):
		t.Fatalf("expected sync run to be triggered")
	}
}

func TestRunSync_WithoutSyncService(t *testing.T) {
	router := newTestRouter(t, &stubSource{}, nil, "secret-token")

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/sync/run", nil)
	req.Header.Set("X-Sync-Token", "secret-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}
