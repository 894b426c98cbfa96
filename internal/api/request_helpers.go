package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/api/shared"
)

// DecodeJSON decodes the request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	return shared.DecodeJSON(r, v)
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	shared.RespondWithJSON(w, r, status, data)
}

// RespondWithError writes a JSON error response.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	shared.RespondWithError(w, r, status, message)
}

var errMissingUserID = errors.New("user ID not found in request context")

// getUserIDFromContext extracts the authenticated user's UUID from the
// request context. The auth middleware places it there for protected
// routes.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// requireUserID extracts the authenticated user ID or writes a 401.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
			"Authentication required", errMissingUserID)
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID extracts and parses a UUID path parameter. It writes a 400
// response and returns false when the parameter is missing or malformed.
func getPathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, bool) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		RespondWithError(w, r, http.StatusBadRequest, "Missing "+paramName)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid "+paramName)
		return uuid.Nil, false
	}
	return id, true
}

// queryLimit reads the "limit" query parameter, clamped to [1, max].
// Returns def when the parameter is absent or malformed.
func queryLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
