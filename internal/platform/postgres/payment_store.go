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

// PostgresPaymentStore implements the store.PaymentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPaymentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPaymentStore creates a new PostgreSQL implementation of the
// PaymentStore interface. If logger is nil, a default logger will be used.
func NewPostgresPaymentStore(db store.DBTX, logger *slog.Logger) *PostgresPaymentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPaymentStore{
		db:     db,
		logger: logger.With(slog.String("component", "payment_store")),
	}
}

// Ensure PostgresPaymentStore implements store.PaymentStore interface
var _ store.PaymentStore = (*PostgresPaymentStore)(nil)

const paymentColumns = `id, request_id, payer_id, amount, status, created_at, updated_at`

// Create implements store.PaymentStore.Create
// A unique index on request_id enforces one payment record per request;
// violations map to store.ErrDuplicatePayment.
func (s *PostgresPaymentStore) Create(ctx context.Context, payment *domain.Payment) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := payment.Validate(); err != nil {
		log.Warn("payment validation failed during create",
			slog.String("error", err.Error()),
			slog.String("payment_id", payment.ID.String()))
		return err
	}

	query := `
		INSERT INTO payments (id, request_id, payer_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		payment.ID,
		payment.RequestID,
		payment.PayerID,
		payment.Amount,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrDuplicatePayment, err)
		}
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
		log.Error("failed to create payment",
			slog.String("error", err.Error()),
			slog.String("payment_id", payment.ID.String()))
		return MapError(err)
	}

	log.Info("payment record created",
		slog.String("payment_id", payment.ID.String()),
		slog.String("request_id", payment.RequestID.String()),
		slog.String("status", string(payment.Status)))
	return nil
}

// GetByID implements store.PaymentStore.GetByID
// Returns store.ErrPaymentNotFound if the payment does not exist.
func (s *PostgresPaymentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	payment, err := scanPayment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPaymentNotFound
		}
		return nil, MapError(err)
	}
	return payment, nil
}

// GetByRequestID implements store.PaymentStore.GetByRequestID
// Returns store.ErrPaymentNotFound if the request has no payment record.
func (s *PostgresPaymentStore) GetByRequestID(
	ctx context.Context,
	requestID uuid.UUID,
) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE request_id = $1`
	payment, err := scanPayment(s.db.QueryRowContext(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPaymentNotFound
		}
		return nil, MapError(err)
	}
	return payment, nil
}

// UpdateStatusByRequestID implements store.PaymentStore.UpdateStatusByRequestID
// Returns store.ErrPaymentNotFound if the request has no payment record.
func (s *PostgresPaymentStore) UpdateStatusByRequestID(
	ctx context.Context,
	requestID uuid.UUID,
	status domain.PaymentStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE payments
		SET status = $2, updated_at = $3
		WHERE request_id = $1
	`
	result, err := s.db.ExecContext(ctx, query, requestID, status, time.Now().UTC())
	if err != nil {
		log.Error("failed to update payment status",
			slog.String("error", err.Error()),
			slog.String("request_id", requestID.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "payment"); err != nil {
		return store.ErrPaymentNotFound
	}

	log.Info("payment status updated",
		slog.String("request_id", requestID.String()),
		slog.String("status", string(status)))
	return nil
}

// WithTx implements store.PaymentStore.WithTx
func (s *PostgresPaymentStore) WithTx(tx *sql.Tx) store.PaymentStore {
	return &PostgresPaymentStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	err := row.Scan(
		&payment.ID,
		&payment.RequestID,
		&payment.PayerID,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
