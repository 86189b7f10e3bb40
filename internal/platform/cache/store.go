package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/platform/resilience"
)

// DefaultTTL applies when a caller passes a non-positive TTL.
const DefaultTTL = 10 * time.Minute

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is an in-memory key/value cache with per-entry TTL and lazy
// expiry: an expired entry is evicted on the next Get. There is no
// capacity bound; the keyspace is session-scoped and moderate.
//
// Safe for concurrent use by independent scheduled tasks.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	flight  resilience.SingleFlight
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	now := s.now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.After(now) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Has reports whether the key holds a live entry. Defined as
// Get != absent, so it also performs lazy eviction.
func (s *Store) Has(ctx context.Context, key string) bool {
	_, ok := s.Get(ctx, key)
	return ok
}

func (s *Store) Set(_ context.Context, key string, value any, ttl time.Duration) {
	if key == "" {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	s.entries[key] = entry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

func (s *Store) Clear(_ context.Context) {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}

// GetOrLoad returns the cached value or runs loader once, deduplicating
// concurrent loads for the same key. A positive TTL returned by the
// loader overrides ttl for the stored entry.
func (s *Store) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (any, time.Duration, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		value, _, err := loader(ctx)
		return value, err
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadTTL, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if loadTTL <= 0 {
			loadTTL = ttl
		}
		s.Set(ctx, key, loaded, loadTTL)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}
