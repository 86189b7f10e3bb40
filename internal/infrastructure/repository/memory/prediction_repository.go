package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/prediction"
)

type storedPrediction struct {
	prediction.Prediction
	userID int64
}

type PredictionRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*storedPrediction
	accuracies map[int64]prediction.Accuracy
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{
		nextID:     1,
		byID:       make(map[int64]*storedPrediction),
		accuracies: make(map[int64]prediction.Accuracy),
	}
}

// Add stores a prediction and returns its id. userID zero means the
// prediction is not attached to a user's picks.
func (r *PredictionRepository) Add(p prediction.Prediction, userID int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	} else if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	r.byID[p.ID] = &storedPrediction{Prediction: p, userID: userID}
	return p.ID
}

func (r *PredictionRepository) ListByMatch(_ context.Context, matchID int64) ([]prediction.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(s *storedPrediction) bool { return s.MatchID == matchID }), nil
}

func (r *PredictionRepository) ListPickedByUser(_ context.Context, userID, matchID int64) ([]prediction.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(s *storedPrediction) bool {
		return s.userID == userID && s.MatchID == matchID
	}), nil
}

func (r *PredictionRepository) collect(keep func(*storedPrediction) bool) []prediction.Prediction {
	var out []prediction.Prediction
	for _, s := range r.byID {
		if !keep(s) {
			continue
		}
		p := s.Prediction
		if acc, ok := r.accuracies[p.ID]; ok {
			accCopy := acc
			p.Accuracy = &accCopy
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *PredictionRepository) InsertAccuracy(_ context.Context, record prediction.Accuracy) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accuracies[record.PredictionID]; exists {
		return false, nil
	}
	r.accuracies[record.PredictionID] = record
	return true, nil
}

func (r *PredictionRepository) ListAccuracies(context.Context) ([]prediction.Accuracy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.Accuracy, 0, len(r.accuracies))
	for _, record := range r.accuracies {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PredictionID < out[j].PredictionID })
	return out, nil
}
