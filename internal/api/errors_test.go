package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/service"
	"github.com/taskloop/taskloop-api/internal/service/auth"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"not owner", service.ErrNotRequestOwner, http.StatusForbidden},
		{"not provider", service.ErrNotAssignmentProvider, http.StatusForbidden},
		{"request missing", service.ErrRequestNotFound, http.StatusNotFound},
		{"email taken", service.ErrEmailTaken, http.StatusConflict},
		{"not claimable", domain.ErrRequestNotClaimable, http.StatusConflict},
		{"duplicate rating", service.ErrDuplicateRating, http.StatusConflict},
		{"self claim", domain.ErrSelfClaim, http.StatusBadRequest},
		{"bad score", domain.ErrInvalidRatingScore, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestMapErrorToStatusCodeWrapped(t *testing.T) {
	err := fmt.Errorf("claim request: %w", domain.ErrRequestNotClaimable)
	assert.Equal(t, http.StatusConflict, MapErrorToStatusCode(err))
}

func TestGetSafeErrorMessage(t *testing.T) {
	assert.Equal(t, "Request not found", GetSafeErrorMessage(service.ErrRequestNotFound))
	assert.Equal(t, "Invalid credentials", GetSafeErrorMessage(service.ErrInvalidCredentials))

	// Unknown errors must not leak their message.
	leaky := errors.New("pq: connection to postgres://app:secret@db failed")
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(leaky))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}
