package prediction

import "context"

type Repository interface {
	// ListByMatch returns predictions with any existing accuracy
	// record attached.
	ListByMatch(ctx context.Context, matchID int64) ([]Prediction, error)

	// InsertAccuracy stores one evaluation. It reports false without
	// error when an accuracy record already exists for the prediction;
	// this is the exactly-once guard.
	InsertAccuracy(ctx context.Context, record Accuracy) (bool, error)

	ListAccuracies(ctx context.Context) ([]Accuracy, error)

	// ListPickedByUser returns the predictions a user saved for a
	// match, with accuracy attached where evaluated.
	ListPickedByUser(ctx context.Context, userID, matchID int64) ([]Prediction, error)
}
