// Package memory holds in-process repository implementations, used by
// tests and by bot-only runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
)

type MatchRepository struct {
	mu   sync.RWMutex
	byID map[int64]match.Match
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{byID: make(map[int64]match.Match)}
}

func (r *MatchRepository) Upsert(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = m
	return nil
}

func (r *MatchRepository) UpsertBatch(_ context.Context, matches []match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		r.byID[m.ID] = m
	}
	return nil
}

func (r *MatchRepository) GetByID(_ context.Context, id int64) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	return m, ok, nil
}

func (r *MatchRepository) ListWindow(_ context.Context, from, to time.Time, excludeTerminal bool) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.byID))
	for _, m := range r.byID {
		if m.KickoffAt.Before(from) || m.KickoffAt.After(to) {
			continue
		}
		if excludeTerminal && m.IsTerminal() {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].KickoffAt.Before(out[j].KickoffAt)
	})
	return out, nil
}
