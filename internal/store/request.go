package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
)

// RequestStore defines the interface for service request persistence.
type RequestStore interface {
	// Create saves a new service request.
	// Returns a validation error wrapped in ErrInvalidEntity if the
	// requester does not exist.
	Create(ctx context.Context, request *domain.ServiceRequest) error

	// GetByID retrieves a service request by its unique ID.
	// Returns ErrRequestNotFound if the request does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ServiceRequest, error)

	// ListByRequester retrieves all requests created by the given user,
	// most recent first.
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*domain.ServiceRequest, error)

	// ListOpen retrieves pending requests available for claiming, most
	// recent first, up to limit.
	ListOpen(ctx context.Context, limit int) ([]*domain.ServiceRequest, error)

	// UpdateStatus sets the request's status.
	// Returns ErrRequestNotFound if the request does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RequestStatus) error

	// SetPaymentStatus sets the request's payment status.
	// Returns ErrRequestNotFound if the request does not exist.
	SetPaymentStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus) error

	// ClaimPending atomically moves a request from pending to accepted.
	// It reports whether this call won the claim: false means the request
	// was not pending at the time of the update, either because it never
	// existed or because another provider claimed it first.
	ClaimPending(ctx context.Context, id uuid.UUID) (bool, error)

	// WithTx returns a RequestStore bound to the given transaction.
	WithTx(tx *sql.Tx) RequestStore
}
