package standings

import "time"

// Row is one league table entry.
type Row struct {
	Position       int
	TeamID         int64
	TeamName       string
	Played         int
	Won            int
	Draw           int
	Lost           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
}

// Snapshot is a persisted league table. FetchedAt drives the staleness
// window: a snapshot older than the window is treated as a cache miss.
type Snapshot struct {
	CompetitionCode string
	CompetitionName string
	Rows            []Row
	FetchedAt       time.Time
}

func (s Snapshot) FetchedWithin(now time.Time, window time.Duration) bool {
	if s.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(s.FetchedAt) < window
}
