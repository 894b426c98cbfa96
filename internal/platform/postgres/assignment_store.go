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

// PostgresAssignmentStore implements the store.AssignmentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAssignmentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAssignmentStore creates a new PostgreSQL implementation of the
// AssignmentStore interface. If logger is nil, a default logger will be used.
func NewPostgresAssignmentStore(db store.DBTX, logger *slog.Logger) *PostgresAssignmentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresAssignmentStore{
		db:     db,
		logger: logger.With(slog.String("component", "assignment_store")),
	}
}

// Ensure PostgresAssignmentStore implements store.AssignmentStore interface
var _ store.AssignmentStore = (*PostgresAssignmentStore)(nil)

const assignmentColumns = `id, request_id, provider_id, status, created_at, updated_at`

// Create implements store.AssignmentStore.Create
// A partial unique index on request_id for non-cancelled rows enforces the
// single-active-assignment rule; violations map to store.ErrDuplicateAssignment.
func (s *PostgresAssignmentStore) Create(ctx context.Context, assignment *domain.Assignment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := assignment.Validate(); err != nil {
		log.Warn("assignment validation failed during create",
			slog.String("error", err.Error()),
			slog.String("assignment_id", assignment.ID.String()))
		return err
	}

	query := `
		INSERT INTO assignments (id, request_id, provider_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		assignment.ID,
		assignment.RequestID,
		assignment.ProviderID,
		assignment.Status,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrDuplicateAssignment, err)
		}
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		log.Error("failed to create assignment",
			slog.String("error", err.Error()),
			slog.String("assignment_id", assignment.ID.String()))
		return MapError(err)
	}

	log.Info("assignment created",
		slog.String("assignment_id", assignment.ID.String()),
		slog.String("request_id", assignment.RequestID.String()),
		slog.String("provider_id", assignment.ProviderID.String()))
	return nil
}

// GetByID implements store.AssignmentStore.GetByID
// Returns store.ErrAssignmentNotFound if the assignment does not exist.
func (s *PostgresAssignmentStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Assignment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	assignment, err := scanAssignment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAssignmentNotFound
		}
		log.Error("failed to get assignment",
			slog.String("error", err.Error()),
			slog.String("assignment_id", id.String()))
		return nil, MapError(err)
	}
	return assignment, nil
}

// GetActiveByRequestID implements store.AssignmentStore.GetActiveByRequestID
// Returns store.ErrAssignmentNotFound if the request has no active assignment.
func (s *PostgresAssignmentStore) GetActiveByRequestID(
	ctx context.Context,
	requestID uuid.UUID,
) (*domain.Assignment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE request_id = $1 AND status <> $2
	`
	assignment, err := scanAssignment(
		s.db.QueryRowContext(ctx, query, requestID, domain.AssignmentStatusCancelled),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAssignmentNotFound
		}
		log.Error("failed to get active assignment",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID.String()))
		return nil, MapError(err)
	}
	return assignment, nil
}

// ListByProvider implements store.AssignmentStore.ListByProvider
func (s *PostgresAssignmentStore) ListByProvider(
	ctx context.Context,
	providerID uuid.UUID,
) ([]*domain.Assignment, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE provider_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, providerID)
	if err != nil {
		log.Error("failed to list assignments", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var assignments []*domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, MapError(err)
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return assignments, nil
}

// UpdateStatus implements store.AssignmentStore.UpdateStatus
// Returns store.ErrAssignmentNotFound if the assignment does not exist.
func (s *PostgresAssignmentStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.AssignmentStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE assignments
		SET status = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		log.Error("failed to update assignment status",
			slog.String("error", err.Error()),
			slog.String("assignment_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "assignment"); err != nil {
		return store.ErrAssignmentNotFound
	}

	log.Info("assignment status updated",
		slog.String("assignment_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// AdvanceStatus implements store.AssignmentStore.AdvanceStatus
// The status filter in the WHERE clause makes the update a no-op for any
// caller that lost the race, so only one lifecycle transition commits.
func (s *PostgresAssignmentStore) AdvanceStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to domain.AssignmentStatus,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE assignments
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`
	result, err := s.db.ExecContext(ctx, query, id, to, time.Now().UTC(), from)
	if err != nil {
		log.Error("failed to advance assignment status",
			slog.String("error", err.Error()),
			slog.String("assignment_id", id.String()),
			slog.String("from", string(from)),
			slog.String("to", string(to)))
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// WithTx implements store.AssignmentStore.WithTx
func (s *PostgresAssignmentStore) WithTx(tx *sql.Tx) store.AssignmentStore {
	return &PostgresAssignmentStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := row.Scan(
		&assignment.ID,
		&assignment.RequestID,
		&assignment.ProviderID,
		&assignment.Status,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}
