package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/standings"
)

type standingsTableModel struct {
	CompetitionCode string    `db:"competition_code"`
	CompetitionName string    `db:"competition_name"`
	Rows            []byte    `db:"rows"`
	FetchedAt       time.Time `db:"fetched_at"`
}

// StandingsRepository stores one snapshot per competition. The table
// rows live in a jsonb column: the engine only ever reads the snapshot
// whole, never row by row.
type StandingsRepository struct {
	db *sqlx.DB
}

func NewStandingsRepository(db *sqlx.DB) *StandingsRepository {
	return &StandingsRepository{db: db}
}

func (r *StandingsRepository) Get(ctx context.Context, competitionCode string) (standings.Snapshot, bool, error) {
	var row standingsTableModel
	err := r.db.GetContext(ctx, &row,
		`SELECT competition_code, competition_name, rows, fetched_at FROM standings WHERE competition_code = $1`,
		competitionCode)
	if err != nil {
		if isNotFound(err) {
			return standings.Snapshot{}, false, nil
		}
		return standings.Snapshot{}, false, fmt.Errorf("select standings competition=%s: %w", competitionCode, err)
	}

	var tableRows []standings.Row
	if err := sonic.Unmarshal(row.Rows, &tableRows); err != nil {
		return standings.Snapshot{}, false, fmt.Errorf("decode standings rows competition=%s: %w", competitionCode, err)
	}

	return standings.Snapshot{
		CompetitionCode: row.CompetitionCode,
		CompetitionName: row.CompetitionName,
		Rows:            tableRows,
		FetchedAt:       row.FetchedAt,
	}, true, nil
}

func (r *StandingsRepository) Upsert(ctx context.Context, snapshot standings.Snapshot) error {
	encoded, err := sonic.Marshal(snapshot.Rows)
	if err != nil {
		return fmt.Errorf("encode standings rows competition=%s: %w", snapshot.CompetitionCode, err)
	}

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO standings (competition_code, competition_name, rows, fetched_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (competition_code) DO UPDATE SET
	competition_name = EXCLUDED.competition_name,
	rows = EXCLUDED.rows,
	fetched_at = EXCLUDED.fetched_at`,
		snapshot.CompetitionCode, snapshot.CompetitionName, encoded, snapshot.FetchedAt.UTC(),
	); err != nil {
		return fmt.Errorf("upsert standings competition=%s: %w", snapshot.CompetitionCode, err)
	}
	return nil
}
