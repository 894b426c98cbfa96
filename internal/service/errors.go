package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the services. Handlers map these to HTTP
// status codes.
var (
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates that the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates a failed login attempt. Deliberately
	// does not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRequestNotFound indicates that the service request does not exist.
	ErrRequestNotFound = errors.New("service request not found")

	// ErrAssignmentNotFound indicates that the assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrNotRequestOwner indicates that the caller does not own the request.
	ErrNotRequestOwner = errors.New("caller is not the request owner")

	// ErrNotAssignmentProvider indicates that the caller does not hold the
	// assignment.
	ErrNotAssignmentProvider = errors.New("caller is not the assignment provider")

	// ErrRatingNotAllowed indicates that the caller is not a party to the
	// assignment or the direction does not match their role.
	ErrRatingNotAllowed = errors.New("caller may not submit this rating")

	// ErrServiceNotCompleted indicates a rating attempt on an assignment
	// that has not completed.
	ErrServiceNotCompleted = errors.New("assignment is not completed")

	// ErrDuplicateRating indicates a second rating for the same assignment,
	// rater, and direction.
	ErrDuplicateRating = errors.New("rating already submitted")

	// ErrNotificationNotFound indicates that the notification does not exist
	// or belongs to another user.
	ErrNotificationNotFound = errors.New("notification not found")
)

// ServiceError wraps errors from the services with operation context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_request", "claim_request")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError wrapping err. Known sentinel
// errors pass through unchanged so callers can match them with errors.Is.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrUserNotFound,
		ErrEmailTaken,
		ErrInvalidCredentials,
		ErrRequestNotFound,
		ErrAssignmentNotFound,
		ErrNotRequestOwner,
		ErrNotAssignmentProvider,
		ErrRatingNotAllowed,
		ErrServiceNotCompleted,
		ErrDuplicateRating,
		ErrNotificationNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
