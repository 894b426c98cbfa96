package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/platform/logger"
	"github.com/taskloop/taskloop-api/internal/store"
)

// PostgresRatingStore implements the store.RatingStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRatingStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRatingStore creates a new PostgreSQL implementation of the
// RatingStore interface. If logger is nil, a default logger will be used.
func NewPostgresRatingStore(db store.DBTX, logger *slog.Logger) *PostgresRatingStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRatingStore{
		db:     db,
		logger: logger.With(slog.String("component", "rating_store")),
	}
}

// Ensure PostgresRatingStore implements store.RatingStore interface
var _ store.RatingStore = (*PostgresRatingStore)(nil)

const ratingColumns = `id, assignment_id, rater_id, ratee_id, score, direction, comment, created_at`

// Create implements store.RatingStore.Create
// A unique index on (assignment_id, rater_id, direction) enforces the
// one-rating rule; violations map to store.ErrDuplicateRating.
func (s *PostgresRatingStore) Create(ctx context.Context, rating *domain.Rating) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rating.Validate(); err != nil {
		log.Warn("rating validation failed during create",
			slog.String("error", err.Error()),
			slog.String("rating_id", rating.ID.String()))
		return err
	}

	query := `
		INSERT INTO ratings
			(id, assignment_id, rater_id, ratee_id, score, direction, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		rating.ID,
		rating.AssignmentID,
		rating.RaterID,
		rating.RateeID,
		rating.Score,
		rating.Direction,
		rating.Comment,
		rating.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrDuplicateRating, err)
		}
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		log.Error("failed to create rating",
			slog.String("error", err.Error()),
			slog.String("rating_id", rating.ID.String()))
		return MapError(err)
	}

	log.Info("rating created",
		slog.String("rating_id", rating.ID.String()),
		slog.String("assignment_id", rating.AssignmentID.String()),
		slog.String("direction", string(rating.Direction)))
	return nil
}

// GetByID implements store.RatingStore.GetByID
// Returns store.ErrRatingNotFound if the rating does not exist.
func (s *PostgresRatingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rating, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE id = $1`
	rating, err := scanRating(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRatingNotFound
		}
		log.Error("failed to get rating",
			slog.String("error", err.Error()),
			slog.String("rating_id", id.String()))
		return nil, MapError(err)
	}
	return rating, nil
}

// ExistsFor implements store.RatingStore.ExistsFor
func (s *PostgresRatingStore) ExistsFor(
	ctx context.Context,
	assignmentID, raterID uuid.UUID,
	direction domain.RatingDirection,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ratings
			WHERE assignment_id = $1 AND rater_id = $2 AND direction = $3
		)
	`
	var exists bool
	err := s.db.QueryRowContext(ctx, query, assignmentID, raterID, direction).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// ListByRatee implements store.RatingStore.ListByRatee
func (s *PostgresRatingStore) ListByRatee(
	ctx context.Context,
	rateeID uuid.UUID,
) ([]*domain.Rating, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + ratingColumns + `
		FROM ratings
		WHERE ratee_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, rateeID)
	if err != nil {
		log.Error("failed to list ratings", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var ratings []*domain.Rating
	for rows.Next() {
		rating, err := scanRating(rows)
		if err != nil {
			return nil, MapError(err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return ratings, nil
}

// WithTx implements store.RatingStore.WithTx
func (s *PostgresRatingStore) WithTx(tx *sql.Tx) store.RatingStore {
	return &PostgresRatingStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanRating(row rowScanner) (*domain.Rating, error) {
	var rating domain.Rating
	err := row.Scan(
		&rating.ID,
		&rating.AssignmentID,
		&rating.RaterID,
		&rating.RateeID,
		&rating.Score,
		&rating.Direction,
		&rating.Comment,
		&rating.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// PostgresAggregateStore implements the store.AggregateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAggregateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAggregateStore creates a new PostgreSQL implementation of the
// AggregateStore interface. If logger is nil, a default logger will be used.
func NewPostgresAggregateStore(db store.DBTX, logger *slog.Logger) *PostgresAggregateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAggregateStore{
		db:     db,
		logger: logger.With(slog.String("component", "aggregate_store")),
	}
}

// Ensure PostgresAggregateStore implements store.AggregateStore interface
var _ store.AggregateStore = (*PostgresAggregateStore)(nil)

// Get implements store.AggregateStore.Get
// Users with no aggregate row yet get a zero-valued aggregate.
func (s *PostgresAggregateStore) Get(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.RatingAggregate, error) {
	query := `
		SELECT user_id, average_rating, total_ratings, updated_at
		FROM rating_aggregates
		WHERE user_id = $1
	`
	var aggregate domain.RatingAggregate
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&aggregate.UserID,
		&aggregate.AverageRating,
		&aggregate.TotalRatings,
		&aggregate.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewRatingAggregate(userID), nil
		}
		return nil, MapError(err)
	}
	return &aggregate, nil
}

// Upsert implements store.AggregateStore.Upsert
func (s *PostgresAggregateStore) Upsert(
	ctx context.Context,
	aggregate *domain.RatingAggregate,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	aggregate.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO rating_aggregates (user_id, average_rating, total_ratings, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET average_rating = EXCLUDED.average_rating,
		    total_ratings = EXCLUDED.total_ratings,
		    updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		aggregate.UserID,
		aggregate.AverageRating,
		aggregate.TotalRatings,
		aggregate.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert rating aggregate",
			slog.String("error", err.Error()),
			slog.String("user_id", aggregate.UserID.String()))
		return MapError(err)
	}
	return nil
}

// WithTx implements store.AggregateStore.WithTx
func (s *PostgresAggregateStore) WithTx(tx *sql.Tx) store.AggregateStore {
	return &PostgresAggregateStore{
		db:     tx,
		logger: s.logger,
	}
}
