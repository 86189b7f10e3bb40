package match

import (
	"strings"
	"time"
)

// Statuses as reported by the origin football data API.
const (
	StatusScheduled = "SCHEDULED"
	StatusTimed     = "TIMED"
	StatusInPlay    = "IN_PLAY"
	StatusPaused    = "PAUSED"
	StatusFinished  = "FINISHED"
	StatusSuspended = "SUSPENDED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
	StatusAwarded   = "AWARDED"
)

// Match is one tracked fixture. ID is the stable external id; scores
// stay nil until the origin reports them. Records are never deleted,
// they outlive the lifecycle for history and accuracy evaluation.
type Match struct {
	ID              int64
	CompetitionCode string
	CompetitionName string
	HomeTeam        string
	HomeTeamID      int64
	AwayTeam        string
	AwayTeamID      int64
	KickoffAt       time.Time
	Status          string
	HomeScore       *int
	AwayScore       *int
}

// TerminalStatuses lists every status after which no further
// transition is expected.
var TerminalStatuses = []string{
	StatusFinished, StatusCancelled, StatusPostponed, StatusSuspended, StatusAwarded,
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

// IsTerminalStatus reports whether no further transition is expected.
// Suspended matches are treated as terminal by policy: the origin
// reschedules them under a new timeline and monitoring restarts from
// the daily sync.
func IsTerminalStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, StatusCancelled, StatusPostponed, StatusSuspended, StatusAwarded:
		return true
	default:
		return false
	}
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusInPlay, StatusPaused:
		return true
	default:
		return false
	}
}

func (m Match) IsTerminal() bool {
	return IsTerminalStatus(m.Status)
}

func (m Match) HasFinalScore() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}
