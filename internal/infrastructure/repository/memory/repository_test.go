package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/match"
	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/prediction"
)

func TestMatchRepository_ListWindowFiltersAndSorts(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

	err := repo.UpsertBatch(ctx, []match.Match{
		{ID: 3, Status: match.StatusTimed, KickoffAt: base.Add(2 * time.Hour)},
		{ID: 1, Status: match.StatusTimed, KickoffAt: base.Add(time.Hour)},
		{ID: 2, Status: match.StatusFinished, KickoffAt: base.Add(time.Hour)},
		{ID: 4, Status: match.StatusTimed, KickoffAt: base.Add(48 * time.Hour)},
	})
	if err != nil {
		t.Fatalf("upsert batch: %v", err)
	}

	got, err := repo.ListWindow(ctx, base, base.Add(24*time.Hour), true)
	if err != nil {
		t.Fatalf("list window: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("unexpected window result: %+v", got)
	}

	withTerminal, err := repo.ListWindow(ctx, base, base.Add(24*time.Hour), false)
	if err != nil {
		t.Fatalf("list window with terminal: %v", err)
	}
	if len(withTerminal) != 3 {
		t.Fatalf("expected terminal match included, got %d", len(withTerminal))
	}
}

func TestPredictionRepository_AccuracyAttachmentAndInsertGuard(t *testing.T) {
	t.Parallel()

	repo := NewPredictionRepository()
	ctx := context.Background()

	id := repo.Add(prediction.Prediction{MatchID: 9, Type: prediction.TypeOutcome}, 7)

	inserted, err := repo.InsertAccuracy(ctx, prediction.Accuracy{PredictionID: id, MatchID: 9})
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}
	inserted, err = repo.InsertAccuracy(ctx, prediction.Accuracy{PredictionID: id, MatchID: 9})
	if err != nil || inserted {
		t.Fatalf("second insert must be rejected: inserted=%v err=%v", inserted, err)
	}

	picked, err := repo.ListPickedByUser(ctx, 7, 9)
	if err != nil {
		t.Fatalf("list picked: %v", err)
	}
	if len(picked) != 1 || picked[0].Accuracy == nil {
		t.Fatalf("expected picked prediction with accuracy attached: %+v", picked)
	}

	other, err := repo.ListPickedByUser(ctx, 8, 9)
	if err != nil {
		t.Fatalf("list picked other user: %v", err)
	}
	if len(other) != 0 {
		t.Fatal("another user's picks must be empty")
	}
}

func TestSubscriptionRepository_PendingFlagsLifecycle(t *testing.T) {
	t.Parallel()

	repo := NewSubscriptionRepository()
	ctx := context.Background()

	if err := repo.Subscribe(ctx, 1, 100, 50); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// Re-subscribing moves the chat without duplicating the row.
	if err := repo.Subscribe(ctx, 1, 200, 50); err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}

	pre, err := repo.ListPendingPre(ctx, 50)
	if err != nil {
		t.Fatalf("pending pre: %v", err)
	}
	if len(pre) != 1 || pre[0].ChatID != 200 {
		t.Fatalf("unexpected pending pre: %+v", pre)
	}

	if err := repo.MarkNotifiedPre(ctx, pre[0].ID); err != nil {
		t.Fatalf("mark pre: %v", err)
	}
	pre, _ = repo.ListPendingPre(ctx, 50)
	if len(pre) != 0 {
		t.Fatal("pre flag must clear the pending list")
	}

	post, _ := repo.ListPendingPost(ctx, 50)
	if len(post) != 1 {
		t.Fatal("post flag is independent of pre")
	}
}
