package footballdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/usecase"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		BaseURL: server.URL,
		Token:   "test-token",
		Logger:  logging.NewNop(),
	})
}

func TestClient_FetchMatch_MapsPayload(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matches/327115" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Auth-Token"); got != "test-token" {
			t.Errorf("missing auth token header, got %q", got)
		}
		w.Write([]byte(`{
			"id": 327115,
			"utcDate": "2026-03-07T15:00:00Z",
			"status": "FINISHED",
			"homeTeam": {"id": 57, "name": "Arsenal FC"},
			"awayTeam": {"id": 61, "name": "Chelsea FC"},
			"score": {"fullTime": {"home": 2, "away": 0}},
			"competition": {"code": "PL", "name": "Premier League"}
		}`))
	}))

	got, err := client.FetchMatch(context.Background(), 327115)
	if err != nil {
		t.Fatalf("fetch match: %v", err)
	}
	if got.ID != 327115 || got.HomeTeam != "Arsenal FC" || got.AwayTeam != "Chelsea FC" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if got.Status != match.StatusFinished {
		t.Fatalf("unexpected status %s", got.Status)
	}
	if got.HomeScore == nil || *got.HomeScore != 2 || got.AwayScore == nil || *got.AwayScore != 0 {
		t.Fatalf("unexpected score: %+v", got)
	}
	want := time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC)
	if !got.KickoffAt.Equal(want) {
		t.Fatalf("unexpected kickoff %s", got.KickoffAt)
	}
}

func TestClient_FetchUpcoming_SkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/competitions/PL/matches" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("dateFrom") == "" || r.URL.Query().Get("dateTo") == "" {
			t.Error("schedule query must bound the date window")
		}
		w.Write([]byte(`{"matches": [
			{"id": 1, "utcDate": "2026-03-08T17:30:00Z", "status": "TIMED",
			 "homeTeam": {"id": 5, "name": "Bayern"}, "awayTeam": {"id": 4, "name": "Dortmund"},
			 "score": {"fullTime": {"home": null, "away": null}},
			 "competition": {"code": "BL1", "name": "Bundesliga"}},
			{"id": 2, "utcDate": "not-a-date", "status": "TIMED",
			 "homeTeam": {}, "awayTeam": {}, "score": {"fullTime": {}}, "competition": {}}
		]}`))
	}))

	got, err := client.FetchUpcoming(context.Background(), "PL")
	if err != nil {
		t.Fatalf("fetch upcoming: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected the malformed entry to be skipped, got %d matches", len(got))
	}
	if got[0].HomeScore != nil {
		t.Fatal("unfinished match must carry nil scores")
	}
}

func TestClient_FetchStandings_SelectsTotalTable(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"competition": {"code": "PL", "name": "Premier League"},
			"standings": [
				{"type": "HOME", "table": [{"position": 9, "team": {"id": 1, "name": "Wrong"}}]},
				{"type": "TOTAL", "table": [
					{"position": 1, "team": {"id": 64, "name": "Liverpool FC"},
					 "playedGames": 28, "won": 20, "draw": 5, "lost": 3,
					 "points": 65, "goalsFor": 60, "goalsAgainst": 25, "goalDifference": 35}
				]}
			]
		}`))
	}))

	got, err := client.FetchStandings(context.Background(), "PL")
	if err != nil {
		t.Fatalf("fetch standings: %v", err)
	}
	if got.CompetitionCode != "PL" || got.CompetitionName != "Premier League" {
		t.Fatalf("unexpected competition mapping: %+v", got)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("expected the TOTAL table only, got %d rows", len(got.Rows))
	}
	row := got.Rows[0]
	if row.TeamName != "Liverpool FC" || row.Points != 65 || row.GoalDifference != 35 {
		t.Fatalf("unexpected row mapping: %+v", row)
	}
}

func TestClient_TransientStatusClassification(t *testing.T) {
	t.Parallel()

	var status atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))

	status.Store(http.StatusTooManyRequests)
	_, err := client.FetchMatch(context.Background(), 1)
	if !IsTransient(err) {
		t.Fatalf("429 must classify transient, got %v", err)
	}

	status.Store(http.StatusServiceUnavailable)
	_, err = client.FetchMatch(context.Background(), 1)
	if !IsTransient(err) {
		t.Fatalf("503 must classify transient, got %v", err)
	}

	status.Store(http.StatusNotFound)
	_, err = client.FetchMatch(context.Background(), 1)
	if err == nil || IsTransient(err) {
		t.Fatalf("404 must classify permanent, got %v", err)
	}
}

func TestClient_CircuitBreakerRejectsWhenOpen(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:          server.URL,
		Token:            "test-token",
		CircuitEnabled:   true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		Logger:           logging.NewNop(),
	})

	for range 2 {
		if _, err := client.FetchMatch(context.Background(), 1); err == nil {
			t.Fatal("expected origin failure")
		}
	}

	_, err := client.FetchMatch(context.Background(), 1)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("open breaker must report dependency unavailable, got %v", err)
	}
}
