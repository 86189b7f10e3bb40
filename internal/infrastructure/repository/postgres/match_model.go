package postgres

import (
	"database/sql"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
)

type matchTableModel struct {
	ID              int64         `db:"id"`
	CompetitionCode string        `db:"competition_code"`
	CompetitionName string        `db:"competition_name"`
	HomeTeam        string        `db:"home_team"`
	HomeTeamID      int64         `db:"home_team_id"`
	AwayTeam        string        `db:"away_team"`
	AwayTeamID      int64         `db:"away_team_id"`
	KickoffAt       time.Time     `db:"kickoff_at"`
	Status          string        `db:"status"`
	HomeScore       sql.NullInt64 `db:"home_score"`
	AwayScore       sql.NullInt64 `db:"away_score"`
	CreatedAt       time.Time     `db:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}

func (row matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:              row.ID,
		CompetitionCode: row.CompetitionCode,
		CompetitionName: row.CompetitionName,
		HomeTeam:        row.HomeTeam,
		HomeTeamID:      row.HomeTeamID,
		AwayTeam:        row.AwayTeam,
		AwayTeamID:      row.AwayTeamID,
		KickoffAt:       row.KickoffAt,
		Status:          row.Status,
		HomeScore:       nullInt64ToIntPtr(row.HomeScore),
		AwayScore:       nullInt64ToIntPtr(row.AwayScore),
	}
}

func nullInt64ToIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}

func intPtrToNullInt64(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}
