package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/events"
	"github.com/taskloop/taskloop-api/internal/store"
)

// RatingService handles rating submission and reputation lookups. A rating
// is accepted only from a party to a completed assignment, once per
// direction; the per-user aggregate is maintained asynchronously by the
// rating reactor off the RatingCreated event.
type RatingService interface {
	// SubmitRating records a rating for a completed assignment.
	SubmitRating(
		ctx context.Context,
		assignmentID, raterID uuid.UUID,
		score float64,
		direction domain.RatingDirection,
		comment string,
	) (*domain.Rating, error)

	// GetAggregate retrieves the user's rating aggregate.
	GetAggregate(ctx context.Context, userID uuid.UUID) (*domain.RatingAggregate, error)

	// ListRatingsFor retrieves the ratings a user has received.
	ListRatingsFor(ctx context.Context, userID uuid.UUID) ([]*domain.Rating, error)
}

// ratingServiceImpl implements the RatingService interface
type ratingServiceImpl struct {
	db          *sql.DB
	ratings     store.RatingStore
	aggregates  store.AggregateStore
	assignments store.AssignmentStore
	requests    store.RequestStore
	outbox      events.OutboxStore
	logger      *slog.Logger
}

// NewRatingService creates a new RatingService.
// It returns an error if any of the required dependencies are nil.
func NewRatingService(
	db *sql.DB,
	ratings store.RatingStore,
	aggregates store.AggregateStore,
	assignments store.AssignmentStore,
	requests store.RequestStore,
	outbox events.OutboxStore,
	logger *slog.Logger,
) (RatingService, error) {
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if ratings == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "ratings cannot be nil"}
	}
	if aggregates == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "aggregates cannot be nil"}
	}
	if assignments == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "assignments cannot be nil"}
	}
	if requests == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "requests cannot be nil"}
	}
	if outbox == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "outbox cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ratingServiceImpl{
		db:          db,
		ratings:     ratings,
		aggregates:  aggregates,
		assignments: assignments,
		requests:    requests,
		outbox:      outbox,
		logger:      logger.With("component", "rating_service"),
	}, nil
}

// SubmitRating validates the rater's role on the completed assignment and
// writes the rating with its RatingCreated event in one transaction.
func (s *ratingServiceImpl) SubmitRating(
	ctx context.Context,
	assignmentID, raterID uuid.UUID,
	score float64,
	direction domain.RatingDirection,
	comment string,
) (*domain.Rating, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrAssignmentNotFound
		}
		return nil, NewServiceError("submit_rating", "failed to look up assignment", err)
	}
	if assignment.Status != domain.AssignmentStatusCompleted {
		return nil, ErrServiceNotCompleted
	}

	request, err := s.requests.GetByID(ctx, assignment.RequestID)
	if err != nil {
		return nil, NewServiceError("submit_rating", "failed to look up request", err)
	}

	rateeID, err := resolveRatee(request, assignment, raterID, direction)
	if err != nil {
		return nil, err
	}

	exists, err := s.ratings.ExistsFor(ctx, assignmentID, raterID, direction)
	if err != nil {
		return nil, NewServiceError("submit_rating", "failed to check for existing rating", err)
	}
	if exists {
		return nil, ErrDuplicateRating
	}

	rating, err := domain.NewRating(assignmentID, raterID, rateeID, score, direction, comment)
	if err != nil {
		return nil, NewServiceError("submit_rating", "invalid rating data", err)
	}

	err = store.RunInTransaction(ctx, s.db, s.logger, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.ratings.WithTx(tx).Create(ctx, rating); err != nil {
			if errors.Is(err, store.ErrDuplicateRating) {
				return ErrDuplicateRating
			}
			return err
		}

		payload := events.RatingCreatedPayload{
			RatingID:     rating.ID,
			AssignmentID: rating.AssignmentID,
			RaterID:      rating.RaterID,
			RateeID:      rating.RateeID,
			Score:        rating.Score,
			Direction:    rating.Direction,
		}
		return s.outbox.Enqueue(ctx, tx, events.NewOutboxEvent(
			events.StreamServiceLifecycle,
			events.TypeRatingCreated,
			payload.Encode(),
		))
	})
	if err != nil {
		return nil, NewServiceError("submit_rating", "failed to save rating", err)
	}

	s.logger.Info("rating submitted",
		"rating_id", rating.ID,
		"assignment_id", assignmentID,
		"direction", direction)
	return rating, nil
}

// GetAggregate retrieves the user's rating aggregate. Users with no ratings
// get a zero-valued aggregate.
func (s *ratingServiceImpl) GetAggregate(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.RatingAggregate, error) {
	aggregate, err := s.aggregates.Get(ctx, userID)
	if err != nil {
		return nil, NewServiceError("get_aggregate", "failed to load aggregate", err)
	}
	return aggregate, nil
}

// ListRatingsFor retrieves the ratings a user has received.
func (s *ratingServiceImpl) ListRatingsFor(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Rating, error) {
	ratings, err := s.ratings.ListByRatee(ctx, userID)
	if err != nil {
		return nil, NewServiceError("list_ratings", "failed to list ratings", err)
	}
	return ratings, nil
}

// resolveRatee checks that the rater's role matches the rating direction and
// returns the user being rated.
func resolveRatee(
	request *domain.ServiceRequest,
	assignment *domain.Assignment,
	raterID uuid.UUID,
	direction domain.RatingDirection,
) (uuid.UUID, error) {
	switch direction {
	case domain.RatesProvider:
		if raterID != request.RequesterID {
			return uuid.Nil, ErrRatingNotAllowed
		}
		return assignment.ProviderID, nil
	case domain.RatesRequester:
		if raterID != assignment.ProviderID {
			return uuid.Nil, ErrRatingNotAllowed
		}
		return request.RequesterID, nil
	default:
		return uuid.Nil, domain.ErrInvalidRatingDirection
	}
}
