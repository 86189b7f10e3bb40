package footballdata

import (
	"fmt"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
)

// Wire shapes for the football-data.org v4 payloads. Only the fields
// the engine consumes are declared.

type matchesEnvelope struct {
	Matches []matchItem `json:"matches"`
}

type matchItem struct {
	ID          int64           `json:"id"`
	UTCDate     string          `json:"utcDate"`
	Status      string          `json:"status"`
	HomeTeam    teamRef         `json:"homeTeam"`
	AwayTeam    teamRef         `json:"awayTeam"`
	Score       scoreBlock      `json:"score"`
	Competition competitionInfo `json:"competition"`
}

type teamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type scoreBlock struct {
	FullTime scorePair `json:"fullTime"`
}

type scorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

type competitionInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type standingsEnvelope struct {
	Competition competitionInfo `json:"competition"`
	Standings   []standingBlock `json:"standings"`
}

type standingBlock struct {
	Type  string          `json:"type"`
	Table []standingEntry `json:"table"`
}

type standingEntry struct {
	Position       int     `json:"position"`
	Team           teamRef `json:"team"`
	PlayedGames    int     `json:"playedGames"`
	Won            int     `json:"won"`
	Draw           int     `json:"draw"`
	Lost           int     `json:"lost"`
	Points         int     `json:"points"`
	GoalsFor       int     `json:"goalsFor"`
	GoalsAgainst   int     `json:"goalsAgainst"`
	GoalDifference int     `json:"goalDifference"`
}

func (item matchItem) toDomain() (match.Match, error) {
	if item.ID <= 0 {
		return match.Match{}, fmt.Errorf("match entry has no id")
	}
	kickoff, err := time.Parse(time.RFC3339, item.UTCDate)
	if err != nil {
		return match.Match{}, fmt.Errorf("match id=%d: parse utcDate %q: %w", item.ID, item.UTCDate, err)
	}

	return match.Match{
		ID:              item.ID,
		CompetitionCode: item.Competition.Code,
		CompetitionName: item.Competition.Name,
		HomeTeam:        item.HomeTeam.Name,
		HomeTeamID:      item.HomeTeam.ID,
		AwayTeam:        item.AwayTeam.Name,
		AwayTeamID:      item.AwayTeam.ID,
		KickoffAt:       kickoff.UTC(),
		Status:          match.NormalizeStatus(item.Status),
		HomeScore:       item.Score.FullTime.Home,
		AwayScore:       item.Score.FullTime.Away,
	}, nil
}
