package memory

import (
	"context"
	"sync"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/standings"
)

type StandingsRepository struct {
	mu            sync.RWMutex
	byCompetition map[string]standings.Snapshot
}

func NewStandingsRepository() *StandingsRepository {
	return &StandingsRepository{byCompetition: make(map[string]standings.Snapshot)}
}

func (r *StandingsRepository) Get(_ context.Context, competitionCode string) (standings.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot, ok := r.byCompetition[competitionCode]
	return snapshot, ok, nil
}

func (r *StandingsRepository) Upsert(_ context.Context, snapshot standings.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCompetition[snapshot.CompetitionCode] = snapshot
	return nil
}
