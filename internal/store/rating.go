package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
)

// RatingStore defines the interface for rating persistence.
type RatingStore interface {
	// Create saves a new rating. Returns ErrDuplicateRating if a rating
	// already exists for the same assignment, rater, and direction.
	Create(ctx context.Context, rating *domain.Rating) error

	// GetByID retrieves a rating by its unique ID.
	// Returns ErrRatingNotFound if the rating does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Rating, error)

	// ExistsFor reports whether a rating already exists for the given
	// assignment, rater, and direction.
	ExistsFor(
		ctx context.Context,
		assignmentID, raterID uuid.UUID,
		direction domain.RatingDirection,
	) (bool, error)

	// ListByRatee retrieves all ratings received by the given user, most
	// recent first.
	ListByRatee(ctx context.Context, rateeID uuid.UUID) ([]*domain.Rating, error)

	// WithTx returns a RatingStore bound to the given transaction.
	WithTx(tx *sql.Tx) RatingStore
}

// AggregateStore defines the interface for per-user rating aggregate
// persistence. Aggregates are maintained incrementally by the rating
// reactor rather than recomputed from the ratings table.
type AggregateStore interface {
	// Get retrieves the aggregate for the given user. Users with no
	// ratings yet get a zero-valued aggregate rather than an error.
	Get(ctx context.Context, userID uuid.UUID) (*domain.RatingAggregate, error)

	// Upsert writes the aggregate, inserting the row on first use.
	Upsert(ctx context.Context, aggregate *domain.RatingAggregate) error

	// WithTx returns an AggregateStore bound to the given transaction.
	WithTx(tx *sql.Tx) AggregateStore
}
