package subscription

import "context"

type Repository interface {
	Subscribe(ctx context.Context, userID, chatID, matchID int64) error
	Unsubscribe(ctx context.Context, userID, matchID int64) error
	IsSubscribed(ctx context.Context, userID, matchID int64) (bool, error)

	// ListPendingPre/Post return subscriptions whose corresponding
	// notified flag is still false.
	ListPendingPre(ctx context.Context, matchID int64) ([]Subscription, error)
	ListPendingPost(ctx context.Context, matchID int64) ([]Subscription, error)

	MarkNotifiedPre(ctx context.Context, id int64) error
	MarkNotifiedPost(ctx context.Context, id int64) error
}
