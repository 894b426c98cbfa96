package reactor

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/store"
)

// RatingReactor folds RatingCreated events into the per-user aggregate so
// reputation reads never scan the ratings table. The read-modify-write runs
// in a transaction; incremental application keeps it O(1) per event.
type RatingReactor struct {
	db         *sql.DB
	aggregates store.AggregateStore
	logger     *slog.Logger
}

// NewRatingReactor creates a new RatingReactor.
func NewRatingReactor(
	db *sql.DB,
	aggregates store.AggregateStore,
	logger *slog.Logger,
) (*RatingReactor, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if aggregates == nil {
		return nil, errors.New("aggregates cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RatingReactor{
		db:         db,
		aggregates: aggregates,
		logger:     logger.With("component", "rating_reactor"),
	}, nil
}

// Register subscribes the reactor's handlers on the consumer.
func (r *RatingReactor) Register(consumer *events.Consumer) {
	consumer.OnFunc(events.StreamServiceLifecycle, events.TypeRatingCreated, r.onRatingCreated)
}

func (r *RatingReactor) onRatingCreated(ctx context.Context, env *events.Envelope) error {
	payload, err := events.DecodeRatingCreated(env.Payload)
	if err != nil {
		return err
	}

	err = store.RunInTransaction(ctx, r.db, r.logger, func(ctx context.Context, tx *sql.Tx) error {
		txAggregates := r.aggregates.WithTx(tx)

		aggregate, err := txAggregates.Get(ctx, payload.RateeID)
		if err != nil {
			return err
		}
		if err := aggregate.Apply(payload.Score); err != nil {
			return err
		}
		return txAggregates.Upsert(ctx, aggregate)
	})
	if err != nil {
		return err
	}

	r.logger.Info("rating folded into aggregate",
		"ratee_id", payload.RateeID,
		"score", payload.Score)
	return nil
}
