package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const upsertMatchQuery = `
INSERT INTO matches (
	id, competition_code, competition_name,
	home_team, home_team_id, away_team, away_team_id,
	kickoff_at, status, home_score, away_score
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
	competition_code = EXCLUDED.competition_code,
	competition_name = EXCLUDED.competition_name,
	home_team = EXCLUDED.home_team,
	home_team_id = EXCLUDED.home_team_id,
	away_team = EXCLUDED.away_team,
	away_team_id = EXCLUDED.away_team_id,
	kickoff_at = EXCLUDED.kickoff_at,
	status = EXCLUDED.status,
	home_score = EXCLUDED.home_score,
	away_score = EXCLUDED.away_score,
	updated_at = NOW()`

func (r *MatchRepository) Upsert(ctx context.Context, m match.Match) error {
	if _, err := r.db.ExecContext(ctx, upsertMatchQuery,
		m.ID, m.CompetitionCode, m.CompetitionName,
		m.HomeTeam, m.HomeTeamID, m.AwayTeam, m.AwayTeamID,
		m.KickoffAt.UTC(), m.Status,
		intPtrToNullInt64(m.HomeScore), intPtrToNullInt64(m.AwayScore),
	); err != nil {
		return fmt.Errorf("upsert match id=%d: %w", m.ID, err)
	}
	return nil
}

func (r *MatchRepository) UpsertBatch(ctx context.Context, matches []match.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert batch: %w", err)
	}
	defer tx.Rollback()

	for _, m := range matches {
		if _, err := tx.ExecContext(ctx, upsertMatchQuery,
			m.ID, m.CompetitionCode, m.CompetitionName,
			m.HomeTeam, m.HomeTeamID, m.AwayTeam, m.AwayTeamID,
			m.KickoffAt.UTC(), m.Status,
			intPtrToNullInt64(m.HomeScore), intPtrToNullInt64(m.AwayScore),
		); err != nil {
			return fmt.Errorf("upsert match id=%d in batch: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert batch: %w", err)
	}
	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, id int64) (match.Match, bool, error) {
	var row matchTableModel
	err := r.db.GetContext(ctx, &row, `SELECT * FROM matches WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match id=%d: %w", id, err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) ListWindow(ctx context.Context, from, to time.Time, excludeTerminal bool) ([]match.Match, error) {
	query := `SELECT * FROM matches WHERE kickoff_at BETWEEN $1 AND $2`
	args := []any{from.UTC(), to.UTC()}
	if excludeTerminal {
		placeholders := make([]string, 0, len(match.TerminalStatuses))
		for i, status := range match.TerminalStatuses {
			placeholders = append(placeholders, fmt.Sprintf("$%d", i+3))
			args = append(args, status)
		}
		query += " AND status NOT IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY kickoff_at, id"

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select match window: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
