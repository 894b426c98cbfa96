package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/taskloop/taskloop-api/internal/domain"
	"github.com/taskloop/taskloop-api/internal/service"
)

// RatingHandler handles rating and reputation API requests.
type RatingHandler struct {
	ratings   service.RatingService
	validator *validator.Validate
}

// NewRatingHandler creates a new RatingHandler with the given dependencies.
func NewRatingHandler(ratings service.RatingService) *RatingHandler {
	return &RatingHandler{
		ratings:   ratings,
		validator: validator.New(),
	}
}

// Submit handles POST /ratings.
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req SubmitRatingRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	rating, err := h.ratings.SubmitRating(
		r.Context(),
		req.AssignmentID,
		userID,
		req.Score,
		domain.RatingDirection(req.Direction),
		req.Comment,
	)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, rating)
}

// Aggregate handles GET /users/{id}/rating.
func (h *RatingHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	userID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	aggregate, err := h.ratings.GetAggregate(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, aggregate)
}

// ListReceived handles GET /users/{id}/ratings.
func (h *RatingHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	userID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	ratings, err := h.ratings.ListRatingsFor(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, ratings)
}
