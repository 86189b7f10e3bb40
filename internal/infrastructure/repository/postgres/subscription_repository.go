package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Artem2298/AI-based-chatbot-for-predicting-sporting-events/internal/domain/subscription"
)

type subscriptionTableModel struct {
	ID           int64 `db:"id"`
	UserID       int64 `db:"user_id"`
	ChatID       int64 `db:"chat_id"`
	MatchID      int64 `db:"match_id"`
	NotifiedPre  bool  `db:"notified_pre"`
	NotifiedPost bool  `db:"notified_post"`
}

func (row subscriptionTableModel) toDomain() subscription.Subscription {
	return subscription.Subscription{
		ID:           row.ID,
		UserID:       row.UserID,
		ChatID:       row.ChatID,
		MatchID:      row.MatchID,
		NotifiedPre:  row.NotifiedPre,
		NotifiedPost: row.NotifiedPost,
	}
}

type SubscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Subscribe is idempotent per (user, match); re-subscribing only moves
// the chat and never resets the notified flags.
func (r *SubscriptionRepository) Subscribe(ctx context.Context, userID, chatID, matchID int64) error {
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO subscriptions (user_id, chat_id, match_id)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, match_id) DO UPDATE SET chat_id = EXCLUDED.chat_id`,
		userID, chatID, matchID,
	); err != nil {
		return fmt.Errorf("subscribe user_id=%d match_id=%d: %w", userID, matchID, err)
	}
	return nil
}

func (r *SubscriptionRepository) Unsubscribe(ctx context.Context, userID, matchID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_id = $1 AND match_id = $2`,
		userID, matchID,
	); err != nil {
		return fmt.Errorf("unsubscribe user_id=%d match_id=%d: %w", userID, matchID, err)
	}
	return nil
}

func (r *SubscriptionRepository) IsSubscribed(ctx context.Context, userID, matchID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = $1 AND match_id = $2)`,
		userID, matchID)
	if err != nil {
		return false, fmt.Errorf("check subscription user_id=%d match_id=%d: %w", userID, matchID, err)
	}
	return exists, nil
}

func (r *SubscriptionRepository) ListPendingPre(ctx context.Context, matchID int64) ([]subscription.Subscription, error) {
	return r.listPending(ctx, matchID, "notified_pre")
}

func (r *SubscriptionRepository) ListPendingPost(ctx context.Context, matchID int64) ([]subscription.Subscription, error) {
	return r.listPending(ctx, matchID, "notified_post")
}

func (r *SubscriptionRepository) listPending(ctx context.Context, matchID int64, flagColumn string) ([]subscription.Subscription, error) {
	// flagColumn is one of two compile-time constants, never input.
	query := fmt.Sprintf(
		`SELECT id, user_id, chat_id, match_id, notified_pre, notified_post
		 FROM subscriptions WHERE match_id = $1 AND %s = FALSE ORDER BY id`, flagColumn)

	var rows []subscriptionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, matchID); err != nil {
		return nil, fmt.Errorf("select pending subscriptions match_id=%d: %w", matchID, err)
	}

	out := make([]subscription.Subscription, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *SubscriptionRepository) MarkNotifiedPre(ctx context.Context, id int64) error {
	return r.markFlag(ctx, id, "notified_pre")
}

func (r *SubscriptionRepository) MarkNotifiedPost(ctx context.Context, id int64) error {
	return r.markFlag(ctx, id, "notified_post")
}

func (r *SubscriptionRepository) markFlag(ctx context.Context, id int64, flagColumn string) error {
	query := fmt.Sprintf(`UPDATE subscriptions SET %s = TRUE WHERE id = $1`, flagColumn)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark %s subscription_id=%d: %w", flagColumn, id, err)
	}
	return nil
}
