package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or references a row that does not exist. Check the
	// wrapped error for specific details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrUserNotFound indicates that the requested user does not exist in the store.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrRequestNotFound indicates that the requested service request does not exist.
	ErrRequestNotFound = fmt.Errorf("%w: service request", ErrNotFound)

	// ErrAssignmentNotFound indicates that the requested assignment does not exist.
	ErrAssignmentNotFound = fmt.Errorf("%w: assignment", ErrNotFound)

	// ErrRatingNotFound indicates that the requested rating does not exist.
	ErrRatingNotFound = fmt.Errorf("%w: rating", ErrNotFound)

	// ErrPaymentNotFound indicates that the requested payment does not exist.
	ErrPaymentNotFound = fmt.Errorf("%w: payment", ErrNotFound)

	// ErrNotificationNotFound indicates that the requested notification does not exist.
	ErrNotificationNotFound = fmt.Errorf("%w: notification", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrDuplicateAssignment indicates that the request already has an
	// active assignment.
	ErrDuplicateAssignment = fmt.Errorf("%w: active assignment", ErrDuplicate)

	// ErrDuplicateRating indicates that a rating already exists for the
	// (assignment, rater, direction) triple.
	ErrDuplicateRating = fmt.Errorf("%w: rating", ErrDuplicate)

	// ErrDuplicatePayment indicates that a payment record already exists
	// for the request.
	ErrDuplicatePayment = fmt.Errorf("%w: payment", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "service_request", "rating")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
