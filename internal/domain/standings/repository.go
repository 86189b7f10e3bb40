package standings

import "context"

type Repository interface {
	Get(ctx context.Context, competitionCode string) (Snapshot, bool, error)
	Upsert(ctx context.Context, snapshot Snapshot) error
}
