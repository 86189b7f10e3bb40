package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/prediction"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/logging"
)

// AccuracyService scores stored predictions against final results and
// aggregates hit rates. Evaluation is append-only and exactly-once per
// prediction; the repository insert guard enforces the latter.
type AccuracyService struct {
	predictions prediction.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewAccuracyService(predictions prediction.Repository, logger *logging.Logger) *AccuracyService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AccuracyService{
		predictions: predictions,
		logger:      logger,
		now:         time.Now,
	}
}

// EvaluateMatch scores every unevaluated auto-evaluable prediction of
// a finished match. Matches without a final score are rejected;
// already-evaluated and non-evaluable predictions are skipped. Returns
// the number of accuracy records written.
func (s *AccuracyService) EvaluateMatch(ctx context.Context, m match.Match) (int, error) {
	if !m.IsTerminal() {
		return 0, fmt.Errorf("%w: match id=%d status=%s is not terminal", ErrInvalidInput, m.ID, m.Status)
	}
	if !m.HasFinalScore() {
		return 0, fmt.Errorf("%w: match id=%d has no final score", ErrInvalidInput, m.ID)
	}

	preds, err := s.predictions.ListByMatch(ctx, m.ID)
	if err != nil {
		return 0, fmt.Errorf("list predictions for match id=%d: %w", m.ID, err)
	}

	home, away := *m.HomeScore, *m.AwayScore
	total := home + away

	written := 0
	for _, p := range preds {
		if p.Accuracy != nil {
			continue
		}
		if !p.Type.CanAutoEvaluate() {
			s.logger.DebugContext(ctx, "skipping prediction type without score-only evaluation",
				"prediction_id", p.ID, "type", string(p.Type))
			continue
		}

		record := prediction.Accuracy{
			PredictionID:     p.ID,
			MatchID:          m.ID,
			ActualHomeScore:  home,
			ActualAwayScore:  away,
			ActualTotalGoals: total,
			EvaluatedAt:      s.now(),
		}

		switch p.Type {
		case prediction.TypeOutcome:
			record.OutcomeCorrect = evaluateOutcome(p.Outcome, home, away)
		case prediction.TypeTotal:
			record.GoalsOverUnderCorrect = evaluateOverUnder(p.Total, total)
		case prediction.TypeBTTS:
			record.BTTSCorrect = evaluateBTTS(p.BTTS, home, away)
		case prediction.TypeGoals:
			// Legacy records carry both markets in one prediction.
			record.GoalsOverUnderCorrect = evaluateOverUnder(p.Total, total)
			record.BTTSCorrect = evaluateBTTS(p.BTTS, home, away)
		}

		if record.OutcomeCorrect == nil && record.GoalsOverUnderCorrect == nil && record.BTTSCorrect == nil {
			s.logger.WarnContext(ctx, "prediction has no content for its type, skipping",
				"prediction_id", p.ID, "type", string(p.Type))
			continue
		}

		inserted, err := s.predictions.InsertAccuracy(ctx, record)
		if err != nil {
			return written, fmt.Errorf("insert accuracy prediction_id=%d: %w", p.ID, err)
		}
		if inserted {
			written++
		}
	}

	return written, nil
}

// evaluateOutcome compares the recommended 1X2 pick with the actual
// result.
func evaluateOutcome(content *prediction.OutcomeContent, home, away int) *bool {
	if content == nil {
		return nil
	}

	var actual prediction.Recommendation
	switch {
	case home > away:
		actual = prediction.RecommendHome
	case home < away:
		actual = prediction.RecommendAway
	default:
		actual = prediction.RecommendDraw
	}

	correct := content.Recommendation == actual
	return &correct
}

// evaluateOverUnder scores the over/under 2.5 market against the total
// goal count. The predicted side is whichever percentage is higher.
func evaluateOverUnder(content *prediction.TotalContent, totalGoals int) *bool {
	if content == nil {
		return nil
	}

	predictedOver := content.Over25Pct > content.Under25Pct
	actualOver := float64(totalGoals) > 2.5

	correct := predictedOver == actualOver
	return &correct
}

func evaluateBTTS(content *prediction.BTTSContent, home, away int) *bool {
	if content == nil {
		return nil
	}

	predictedYes := content.YesPct > content.NoPct
	actualYes := home > 0 && away > 0

	correct := predictedYes == actualYes
	return &correct
}

// AccuracyStats is the aggregated hit-rate report across all
// evaluated predictions.
type AccuracyStats struct {
	TotalEvaluated int

	OutcomeTotal   int
	OutcomeCorrect int
	OutcomePct     int

	OverUnderTotal   int
	OverUnderCorrect int
	OverUnderPct     int

	BTTSTotal   int
	BTTSCorrect int
	BTTSPct     int
}

// Stats aggregates every stored accuracy record. Markets with zero
// evaluations report zero percent rather than dividing by zero.
func (s *AccuracyService) Stats(ctx context.Context) (AccuracyStats, error) {
	records, err := s.predictions.ListAccuracies(ctx)
	if err != nil {
		return AccuracyStats{}, fmt.Errorf("list accuracy records: %w", err)
	}

	var stats AccuracyStats
	stats.TotalEvaluated = len(records)
	for _, r := range records {
		if r.OutcomeCorrect != nil {
			stats.OutcomeTotal++
			if *r.OutcomeCorrect {
				stats.OutcomeCorrect++
			}
		}
		if r.GoalsOverUnderCorrect != nil {
			stats.OverUnderTotal++
			if *r.GoalsOverUnderCorrect {
				stats.OverUnderCorrect++
			}
		}
		if r.BTTSCorrect != nil {
			stats.BTTSTotal++
			if *r.BTTSCorrect {
				stats.BTTSCorrect++
			}
		}
	}

	stats.OutcomePct = percent(stats.OutcomeCorrect, stats.OutcomeTotal)
	stats.OverUnderPct = percent(stats.OverUnderCorrect, stats.OverUnderTotal)
	stats.BTTSPct = percent(stats.BTTSCorrect, stats.BTTSTotal)

	return stats, nil
}

func percent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
