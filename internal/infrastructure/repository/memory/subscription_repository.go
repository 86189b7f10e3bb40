package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/subscription"
)

type SubscriptionRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*subscription.Subscription
}

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{nextID: 1, byID: make(map[int64]*subscription.Subscription)}
}

func (r *SubscriptionRepository) Subscribe(_ context.Context, userID, chatID, matchID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.byID {
		if s.UserID == userID && s.MatchID == matchID {
			s.ChatID = chatID
			return nil
		}
	}

	id := r.nextID
	r.nextID++
	r.byID[id] = &subscription.Subscription{
		ID: id, UserID: userID, ChatID: chatID, MatchID: matchID,
	}
	return nil
}

func (r *SubscriptionRepository) Unsubscribe(_ context.Context, userID, matchID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.byID {
		if s.UserID == userID && s.MatchID == matchID {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *SubscriptionRepository) IsSubscribed(_ context.Context, userID, matchID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.byID {
		if s.UserID == userID && s.MatchID == matchID {
			return true, nil
		}
	}
	return false, nil
}

func (r *SubscriptionRepository) ListPendingPre(_ context.Context, matchID int64) ([]subscription.Subscription, error) {
	return r.listPending(matchID, func(s *subscription.Subscription) bool { return !s.NotifiedPre }), nil
}

func (r *SubscriptionRepository) ListPendingPost(_ context.Context, matchID int64) ([]subscription.Subscription, error) {
	return r.listPending(matchID, func(s *subscription.Subscription) bool { return !s.NotifiedPost }), nil
}

func (r *SubscriptionRepository) listPending(matchID int64, pending func(*subscription.Subscription) bool) []subscription.Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []subscription.Subscription
	for _, s := range r.byID {
		if s.MatchID == matchID && pending(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *SubscriptionRepository) MarkNotifiedPre(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		s.NotifiedPre = true
	}
	return nil
}

func (r *SubscriptionRepository) MarkNotifiedPost(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		s.NotifiedPost = true
	}
	return nil
}
