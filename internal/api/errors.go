package api

import (
	"errors"
	"net/http"

	"github.com/taskloop/taskloop-api/internal/api/shared"
	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/service"
	"github.com/taskloop/taskloop-api/internal/service/auth"
	"github.com/taskloop/taskloop-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotRequestOwner),
		errors.Is(err, service.ErrNotAssignmentProvider),
		errors.Is(err, service.ErrRatingNotAllowed):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors: the operation collided with existing state
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrDuplicateRating),
		errors.Is(err, service.ErrServiceNotCompleted),
		errors.Is(err, domain.ErrRequestNotClaimable),
		errors.Is(err, domain.ErrRequestAlreadyAssigned),
		errors.Is(err, domain.ErrRequestAlreadyCancelled),
		domain.IsInvalidTransition(err):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, domain.ErrSelfClaim),
		errors.Is(err, domain.ErrSelfRating),
		errors.Is(err, domain.ErrInvalidRatingScore),
		errors.Is(err, domain.ErrInvalidRatingDirection),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, service.ErrNotRequestOwner):
		return "You do not own this request"

	case errors.Is(err, service.ErrNotAssignmentProvider):
		return "You are not the provider for this assignment"

	case errors.Is(err, service.ErrRatingNotAllowed):
		return "You are not a party to this assignment"

	case errors.Is(err, service.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, service.ErrRequestNotFound):
		return "Request not found"

	case errors.Is(err, service.ErrAssignmentNotFound):
		return "Assignment not found"

	case errors.Is(err, service.ErrNotificationNotFound):
		return "Notification not found"

	case errors.Is(err, service.ErrEmailTaken):
		return "Email already registered"

	case errors.Is(err, service.ErrDuplicateRating):
		return "Rating already submitted"

	case errors.Is(err, service.ErrServiceNotCompleted):
		return "Service is not completed yet"

	case errors.Is(err, domain.ErrRequestNotClaimable):
		return "Request is no longer available"

	case errors.Is(err, domain.ErrRequestAlreadyAssigned):
		return "Request already has a provider"

	case errors.Is(err, domain.ErrRequestAlreadyCancelled):
		return "Request is already cancelled"

	case errors.Is(err, domain.ErrSelfClaim):
		return "You cannot claim your own request"

	case errors.Is(err, domain.ErrSelfRating):
		return "You cannot rate yourself"

	case errors.Is(err, domain.ErrInvalidRatingScore):
		return "Rating score must be between 1 and 5"

	case errors.Is(err, domain.ErrInvalidRatingDirection):
		return "Invalid rating direction"

	case domain.IsInvalidTransition(err):
		return "Operation not allowed in the current state"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps an error to a status code and writes the sanitized
// response. When userMessage is empty the mapped safe message is used.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, userMessage, err)
}
