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

// PostgresRequestStore implements the store.RequestStore interface
// using a PostgreSQL database as the storage backend.
type PostgresRequestStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRequestStore creates a new PostgreSQL implementation of the
// RequestStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresRequestStore(db store.DBTX, logger *slog.Logger) *PostgresRequestStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRequestStore{
		db:     db,
		logger: logger.With(slog.String("component", "request_store")),
	}
}

// Ensure PostgresRequestStore implements store.RequestStore interface
var _ store.RequestStore = (*PostgresRequestStore)(nil)

const requestColumns = `id, requester_id, title, description, offered_amount,
	status, payment_status, created_at, updated_at`

// Create implements store.RequestStore.Create
// Returns store.ErrInvalidEntity if the requester doesn't exist (foreign key violation).
func (s *PostgresRequestStore) Create(ctx context.Context, request *domain.ServiceRequest) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := request.Validate(); err != nil {
		log.Warn("request validation failed during create",
			slog.String("error", err.Error()),
			slog.String("request_id", request.ID.String()))
		return err
	}

	query := `
		INSERT INTO service_requests
			(id, requester_id, title, description, offered_amount,
			 status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		request.ID,
		request.RequesterID,
		request.Title,
		request.Description,
		request.OfferedAmount,
		request.Status,
		request.PaymentStatus,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: requester with ID %s not found",
				store.ErrInvalidEntity, request.RequesterID)
		}
		log.Error("failed to create service request",
			slog.String("error", err.Error()),
			slog.String("request_id", request.ID.String()))
		return MapError(err)
	}

	log.Info("service request created",
		slog.String("request_id", request.ID.String()),
		slog.String("requester_id", request.RequesterID.String()))
	return nil
}

// GetByID implements store.RequestStore.GetByID
// Returns store.ErrRequestNotFound if the request does not exist.
func (s *PostgresRequestStore) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*domain.ServiceRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`
	request, err := scanRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRequestNotFound
		}
		log.Error("failed to get service request",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return nil, MapError(err)
	}
	return request, nil
}

// ListByRequester implements store.RequestStore.ListByRequester
func (s *PostgresRequestStore) ListByRequester(
	ctx context.Context,
	requesterID uuid.UUID,
) ([]*domain.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC
	`
	return s.queryRequests(ctx, query, requesterID)
}

// ListOpen implements store.RequestStore.ListOpen
func (s *PostgresRequestStore) ListOpen(
	ctx context.Context,
	limit int,
) ([]*domain.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return s.queryRequests(ctx, query, domain.RequestStatusPending, limit)
}

// UpdateStatus implements store.RequestStore.UpdateStatus
// Returns store.ErrRequestNotFound if the request does not exist.
func (s *PostgresRequestStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.RequestStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE service_requests
		SET status = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		log.Error("failed to update request status",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "service request"); err != nil {
		return store.ErrRequestNotFound
	}

	log.Info("request status updated",
		slog.String("request_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// SetPaymentStatus implements store.RequestStore.SetPaymentStatus
// Returns store.ErrRequestNotFound if the request does not exist.
func (s *PostgresRequestStore) SetPaymentStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.PaymentStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE service_requests
		SET payment_status = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		log.Error("failed to set request payment status",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()),
			slog.String("payment_status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "service request"); err != nil {
		return store.ErrRequestNotFound
	}
	return nil
}

// ClaimPending implements store.RequestStore.ClaimPending
// The status check in the WHERE clause makes the claim atomic: of several
// concurrent claimers, exactly one sees an affected row.
func (s *PostgresRequestStore) ClaimPending(ctx context.Context, id uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE service_requests
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		id,
		domain.RequestStatusAccepted,
		time.Now().UTC(),
		domain.RequestStatusPending,
	)
	if err != nil {
		log.Error("failed to claim request",
			slog.String("error", err.Error()),
			slog.String("request_id", id.String()))
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

// WithTx implements store.RequestStore.WithTx
func (s *PostgresRequestStore) WithTx(tx *sql.Tx) store.RequestStore {
	return &PostgresRequestStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *PostgresRequestStore) queryRequests(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.ServiceRequest, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query service requests", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var requests []*domain.ServiceRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, MapError(err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return requests, nil
}

func scanRequest(row rowScanner) (*domain.ServiceRequest, error) {
	var request domain.ServiceRequest
	err := row.Scan(
		&request.ID,
		&request.RequesterID,
		&request.Title,
		&request.Description,
		&request.OfferedAmount,
		&request.Status,
		&request.PaymentStatus,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}
