package httpapi

import (
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/standings"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/usecase"
)

type matchDTO struct {
	ID              int64     `json:"id"`
	CompetitionCode string    `json:"competition_code"`
	CompetitionName string    `json:"competition_name,omitempty"`
	HomeTeam        string    `json:"home_team"`
	HomeTeamID      int64     `json:"home_team_id"`
	AwayTeam        string    `json:"away_team"`
	AwayTeamID      int64     `json:"away_team_id"`
	KickoffAt       time.Time `json:"kickoff_at"`
	Status          string    `json:"status"`
	HomeScore       *int      `json:"home_score,omitempty"`
	AwayScore       *int      `json:"away_score,omitempty"`
}

func matchToDTO(m match.Match) matchDTO {
	return matchDTO{
		ID:              m.ID,
		CompetitionCode: m.CompetitionCode,
		CompetitionName: m.CompetitionName,
		HomeTeam:        m.HomeTeam,
		HomeTeamID:      m.HomeTeamID,
		AwayTeam:        m.AwayTeam,
		AwayTeamID:      m.AwayTeamID,
		KickoffAt:       m.KickoffAt,
		Status:          m.Status,
		HomeScore:       m.HomeScore,
		AwayScore:       m.AwayScore,
	}
}

type standingsRowDTO struct {
	Position       int    `json:"position"`
	TeamID         int64  `json:"team_id"`
	TeamName       string `json:"team_name"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Draw           int    `json:"draw"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
}

type standingsDTO struct {
	CompetitionCode string            `json:"competition_code"`
	CompetitionName string            `json:"competition_name,omitempty"`
	FetchedAt       time.Time         `json:"fetched_at"`
	Table           []standingsRowDTO `json:"table"`
}

func standingsToDTO(snapshot standings.Snapshot) standingsDTO {
	table := make([]standingsRowDTO, 0, len(snapshot.Rows))
	for _, row := range snapshot.Rows {
		table = append(table, standingsRowDTO{
			Position:       row.Position,
			TeamID:         row.TeamID,
			TeamName:       row.TeamName,
			Played:         row.Played,
			Won:            row.Won,
			Draw:           row.Draw,
			Lost:           row.Lost,
			GoalsFor:       row.GoalsFor,
			GoalsAgainst:   row.GoalsAgainst,
			GoalDifference: row.GoalDifference,
			Points:         row.Points,
		})
	}

	return standingsDTO{
		CompetitionCode: snapshot.CompetitionCode,
		CompetitionName: snapshot.CompetitionName,
		FetchedAt:       snapshot.FetchedAt,
		Table:           table,
	}
}

type accuracyMarketDTO struct {
	Evaluated int `json:"evaluated"`
	Correct   int `json:"correct"`
	Percent   int `json:"percent"`
}

type accuracyStatsDTO struct {
	TotalEvaluated int               `json:"total_evaluated"`
	Outcome        accuracyMarketDTO `json:"outcome"`
	OverUnder      accuracyMarketDTO `json:"over_under"`
	BTTS           accuracyMarketDTO `json:"btts"`
}

func accuracyStatsToDTO(stats usecase.AccuracyStats) accuracyStatsDTO {
	return accuracyStatsDTO{
		TotalEvaluated: stats.TotalEvaluated,
		Outcome: accuracyMarketDTO{
			Evaluated: stats.OutcomeTotal,
			Correct:   stats.OutcomeCorrect,
			Percent:   stats.OutcomePct,
		},
		OverUnder: accuracyMarketDTO{
			Evaluated: stats.OverUnderTotal,
			Correct:   stats.OverUnderCorrect,
			Percent:   stats.OverUnderPct,
		},
		BTTS: accuracyMarketDTO{
			Evaluated: stats.BTTSTotal,
			Correct:   stats.BTTSCorrect,
			Percent:   stats.BTTSPct,
		},
	}
}
