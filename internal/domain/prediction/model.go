package prediction

import (
	"strings"
	"time"
)

// Type tags the prediction variant. Exactly one content struct is set
// per type; the legacy "goals" type carries both Total and BTTS (old
// records stored them together).
type Type string

const (
	TypeOutcome  Type = "outcome"
	TypeTotal    Type = "total"
	TypeBTTS     Type = "btts"
	TypeCorners  Type = "corners"
	TypeCards    Type = "cards"
	TypeOffsides Type = "offsides"
	TypeGoals    Type = "goals"
)

// Recommendation uses the 1X2 wire convention of the origin data.
type Recommendation string

const (
	RecommendHome Recommendation = "1"
	RecommendDraw Recommendation = "X"
	RecommendAway Recommendation = "2"
)

func NormalizeType(value string) Type {
	return Type(strings.ToLower(strings.TrimSpace(value)))
}

// CanAutoEvaluate reports whether the type is scorable from a final
// score alone. Corners, cards and offsides need box-score data the
// origin API does not provide.
func (t Type) CanAutoEvaluate() bool {
	switch t {
	case TypeOutcome, TypeTotal, TypeBTTS, TypeGoals:
		return true
	default:
		return false
	}
}

type OutcomeContent struct {
	HomeWinPct     float64
	DrawPct        float64
	AwayWinPct     float64
	Recommendation Recommendation
}

type TotalContent struct {
	Over25Pct  float64
	Under25Pct float64
}

type BTTSContent struct {
	YesPct float64
	NoPct  float64
}

// Prediction is a closed-form record produced by the prediction
// generator before kickoff; read-only to the scoring pipeline.
type Prediction struct {
	ID      int64
	MatchID int64
	Type    Type
	Outcome *OutcomeContent
	Total   *TotalContent
	BTTS    *BTTSContent

	// Accuracy is attached when the prediction has already been
	// evaluated; its presence guards against duplicate scoring.
	Accuracy *Accuracy
}

// Accuracy holds the tri-state evaluation of one prediction against
// the final score. A nil field means not-applicable for the type.
type Accuracy struct {
	PredictionID          int64
	MatchID               int64
	ActualHomeScore       int
	ActualAwayScore       int
	ActualTotalGoals      int
	OutcomeCorrect        *bool
	GoalsOverUnderCorrect *bool
	BTTSCorrect           *bool
	EvaluatedAt           time.Time
}
