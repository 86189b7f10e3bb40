package postgres

import (
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/prediction"
)

type predictionTableModel struct {
	ID        int64         `db:"id"`
	MatchID   int64         `db:"match_id"`
	UserID    sql.NullInt64 `db:"user_id"`
	Type      string        `db:"type"`
	Content   []byte        `db:"content"`
	CreatedAt time.Time     `db:"created_at"`

	// Accuracy columns joined in; NULL when unevaluated.
	AccMatchID     sql.NullInt64 `db:"acc_match_id"`
	AccHomeScore   sql.NullInt64 `db:"acc_home_score"`
	AccAwayScore   sql.NullInt64 `db:"acc_away_score"`
	AccTotalGoals  sql.NullInt64 `db:"acc_total_goals"`
	AccOutcome     sql.NullBool  `db:"acc_outcome_correct"`
	AccOverUnderOK sql.NullBool  `db:"acc_over_under_correct"`
	AccBTTSOK      sql.NullBool  `db:"acc_btts_correct"`
	AccEvaluatedAt sql.NullTime  `db:"acc_evaluated_at"`
}

// predictionContent is the jsonb shape of the content column. All
// markets share one document; the type column tells which fields are
// meaningful.
type predictionContent struct {
	HomeWinPct     float64 `json:"homeWinPct,omitempty"`
	DrawPct        float64 `json:"drawPct,omitempty"`
	AwayWinPct     float64 `json:"awayWinPct,omitempty"`
	Recommendation string  `json:"recommendation,omitempty"`
	Over25Pct      float64 `json:"over25Pct,omitempty"`
	Under25Pct     float64 `json:"under25Pct,omitempty"`
	BTTSYesPct     float64 `json:"bttsYesPct,omitempty"`
	BTTSNoPct      float64 `json:"bttsNoPct,omitempty"`
}

func (row predictionTableModel) toDomain() (prediction.Prediction, error) {
	out := prediction.Prediction{
		ID:      row.ID,
		MatchID: row.MatchID,
		Type:    prediction.NormalizeType(row.Type),
	}

	var content predictionContent
	if len(row.Content) > 0 {
		if err := sonic.Unmarshal(row.Content, &content); err != nil {
			return prediction.Prediction{}, fmt.Errorf("decode prediction id=%d content: %w", row.ID, err)
		}
	}

	switch out.Type {
	case prediction.TypeOutcome:
		out.Outcome = &prediction.OutcomeContent{
			HomeWinPct:     content.HomeWinPct,
			DrawPct:        content.DrawPct,
			AwayWinPct:     content.AwayWinPct,
			Recommendation: prediction.Recommendation(content.Recommendation),
		}
	case prediction.TypeTotal:
		out.Total = &prediction.TotalContent{
			Over25Pct:  content.Over25Pct,
			Under25Pct: content.Under25Pct,
		}
	case prediction.TypeBTTS:
		out.BTTS = &prediction.BTTSContent{
			YesPct: content.BTTSYesPct,
			NoPct:  content.BTTSNoPct,
		}
	case prediction.TypeGoals:
		out.Total = &prediction.TotalContent{
			Over25Pct:  content.Over25Pct,
			Under25Pct: content.Under25Pct,
		}
		out.BTTS = &prediction.BTTSContent{
			YesPct: content.BTTSYesPct,
			NoPct:  content.BTTSNoPct,
		}
	}

	if row.AccEvaluatedAt.Valid {
		out.Accuracy = &prediction.Accuracy{
			PredictionID:          row.ID,
			MatchID:               row.AccMatchID.Int64,
			ActualHomeScore:       int(row.AccHomeScore.Int64),
			ActualAwayScore:       int(row.AccAwayScore.Int64),
			ActualTotalGoals:      int(row.AccTotalGoals.Int64),
			OutcomeCorrect:        nullBoolToPtr(row.AccOutcome),
			GoalsOverUnderCorrect: nullBoolToPtr(row.AccOverUnderOK),
			BTTSCorrect:           nullBoolToPtr(row.AccBTTSOK),
			EvaluatedAt:           row.AccEvaluatedAt.Time,
		}
	}

	return out, nil
}

type accuracyTableModel struct {
	PredictionID     int64        `db:"prediction_id"`
	MatchID          int64        `db:"match_id"`
	ActualHomeScore  int          `db:"actual_home_score"`
	ActualAwayScore  int          `db:"actual_away_score"`
	ActualTotalGoals int          `db:"actual_total_goals"`
	OutcomeCorrect   sql.NullBool `db:"outcome_correct"`
	OverUnderCorrect sql.NullBool `db:"over_under_correct"`
	BTTSCorrect      sql.NullBool `db:"btts_correct"`
	EvaluatedAt      time.Time    `db:"evaluated_at"`
}

func (row accuracyTableModel) toDomain() prediction.Accuracy {
	return prediction.Accuracy{
		PredictionID:          row.PredictionID,
		MatchID:               row.MatchID,
		ActualHomeScore:       row.ActualHomeScore,
		ActualAwayScore:       row.ActualAwayScore,
		ActualTotalGoals:      row.ActualTotalGoals,
		OutcomeCorrect:        nullBoolToPtr(row.OutcomeCorrect),
		GoalsOverUnderCorrect: nullBoolToPtr(row.OverUnderCorrect),
		BTTSCorrect:           nullBoolToPtr(row.BTTSCorrect),
		EvaluatedAt:           row.EvaluatedAt,
	}
}

func nullBoolToPtr(value sql.NullBool) *bool {
	if !value.Valid {
		return nil
	}
	v := value.Bool
	return &v
}

func boolPtrToNullBool(value *bool) sql.NullBool {
	if value == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *value, Valid: true}
}
