package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/prediction"
)

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const selectPredictionsWithAccuracy = `
SELECT
	p.id, p.match_id, p.user_id, p.type, p.content, p.created_at,
	a.match_id AS acc_match_id,
	a.actual_home_score AS acc_home_score,
	a.actual_away_score AS acc_away_score,
	a.actual_total_goals AS acc_total_goals,
	a.outcome_correct AS acc_outcome_correct,
	a.over_under_correct AS acc_over_under_correct,
	a.btts_correct AS acc_btts_correct,
	a.evaluated_at AS acc_evaluated_at
FROM predictions p
LEFT JOIN prediction_accuracy a ON a.prediction_id = p.id`

func (r *PredictionRepository) ListByMatch(ctx context.Context, matchID int64) ([]prediction.Prediction, error) {
	var rows []predictionTableModel
	query := selectPredictionsWithAccuracy + ` WHERE p.match_id = $1 ORDER BY p.id`
	if err := r.db.SelectContext(ctx, &rows, query, matchID); err != nil {
		return nil, fmt.Errorf("select predictions match_id=%d: %w", matchID, err)
	}
	return mapPredictionRows(rows)
}

func (r *PredictionRepository) ListPickedByUser(ctx context.Context, userID, matchID int64) ([]prediction.Prediction, error) {
	var rows []predictionTableModel
	query := selectPredictionsWithAccuracy + ` WHERE p.user_id = $1 AND p.match_id = $2 ORDER BY p.id`
	if err := r.db.SelectContext(ctx, &rows, query, userID, matchID); err != nil {
		return nil, fmt.Errorf("select user predictions user_id=%d match_id=%d: %w", userID, matchID, err)
	}
	return mapPredictionRows(rows)
}

func mapPredictionRows(rows []predictionTableModel) ([]prediction.Prediction, error) {
	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// InsertAccuracy writes one evaluation. The primary key on
// prediction_id plus DO NOTHING makes re-evaluation a no-op, which is
// the exactly-once guard for retried finish pipelines.
func (r *PredictionRepository) InsertAccuracy(ctx context.Context, record prediction.Accuracy) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
INSERT INTO prediction_accuracy (
	prediction_id, match_id,
	actual_home_score, actual_away_score, actual_total_goals,
	outcome_correct, over_under_correct, btts_correct, evaluated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (prediction_id) DO NOTHING`,
		record.PredictionID, record.MatchID,
		record.ActualHomeScore, record.ActualAwayScore, record.ActualTotalGoals,
		boolPtrToNullBool(record.OutcomeCorrect),
		boolPtrToNullBool(record.GoalsOverUnderCorrect),
		boolPtrToNullBool(record.BTTSCorrect),
		record.EvaluatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert accuracy prediction_id=%d: %w", record.PredictionID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert accuracy rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *PredictionRepository) ListAccuracies(ctx context.Context) ([]prediction.Accuracy, error) {
	var rows []accuracyTableModel
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM prediction_accuracy ORDER BY evaluated_at, prediction_id`); err != nil {
		return nil, fmt.Errorf("select accuracy records: %w", err)
	}

	out := make([]prediction.Accuracy, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
