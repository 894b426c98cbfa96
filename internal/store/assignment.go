package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/domain"
)

// AssignmentStore defines the interface for assignment persistence.
type AssignmentStore interface {
	// Create saves a new assignment. Returns ErrDuplicateAssignment if the
	// request already has an active (non-cancelled) assignment.
	Create(ctx context.Context, assignment *domain.Assignment) error

	// GetByID retrieves an assignment by its unique ID.
	// Returns ErrAssignmentNotFound if the assignment does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)

	// GetActiveByRequestID retrieves the request's active (non-cancelled)
	// assignment. Returns ErrAssignmentNotFound if there is none.
	GetActiveByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Assignment, error)

	// ListByProvider retrieves all assignments held by the given provider,
	// most recent first.
	ListByProvider(ctx context.Context, providerID uuid.UUID) ([]*domain.Assignment, error)

	// UpdateStatus sets the assignment's status.
	// Returns ErrAssignmentNotFound if the assignment does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AssignmentStatus) error

	// AdvanceStatus moves the assignment from the expected status to the
	// target status in a single conditional update. Returns false when the
	// assignment is no longer in the expected status, which decides the
	// winner among concurrent lifecycle calls.
	AdvanceStatus(ctx context.Context, id uuid.UUID, from, to domain.AssignmentStatus) (bool, error)

	// WithTx returns an AssignmentStore bound to the given transaction.
	WithTx(tx *sql.Tx) AssignmentStore
}
