package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
)

// PaymentStore defines the interface for payment persistence.
type PaymentStore interface {
	// Create saves a new payment record. Returns ErrDuplicatePayment if a
	// payment already exists for the request.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by its unique ID.
	// Returns ErrPaymentNotFound if the payment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)

	// GetByRequestID retrieves the payment record for the given request.
	// Returns ErrPaymentNotFound if there is none.
	GetByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Payment, error)

	// UpdateStatusByRequestID sets the status of the request's payment
	// record. Returns ErrPaymentNotFound if there is none.
	UpdateStatusByRequestID(
		ctx context.Context,
		requestID uuid.UUID,
		status domain.PaymentStatus,
	) error

	// WithTx returns a PaymentStore bound to the given transaction.
	WithTx(tx *sql.Tx) PaymentStore
}
