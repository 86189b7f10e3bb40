package match

import (
	"context"
	"time"
)

// Repository persists tracked matches. Upsert has last-write-wins
// semantics on mutable fields; the external id is immutable.
type Repository interface {
	Upsert(ctx context.Context, m Match) error
	UpsertBatch(ctx context.Context, matches []Match) error
	GetByID(ctx context.Context, id int64) (Match, bool, error)
	ListWindow(ctx context.Context, from, to time.Time, excludeTerminal bool) ([]Match, error)
}
