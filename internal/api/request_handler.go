package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskloop/taskloop-api/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// RequestHandler handles service request and assignment API requests.
type RequestHandler struct {
	requests  service.RequestService
	validator *validator.Validate
}

// NewRequestHandler creates a new RequestHandler with the given dependencies.
func NewRequestHandler(requests service.RequestService) *RequestHandler {
	return &RequestHandler{
		requests:  requests,
		validator: validator.New(),
	}
}

// Create handles POST /requests.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateRequestRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	request, err := h.requests.CreateRequest(r.Context(), userID, req.Title, req.Description, req.OfferedAmount)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, request)
}

// Get handles GET /requests/{id}.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	requestID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	request, err := h.requests.GetRequest(r.Context(), requestID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, request)
}

// ListOpen handles GET /requests, returning pending requests available
// for claiming.
func (h *RequestHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}

	requests, err := h.requests.ListOpenRequests(r.Context(), queryLimit(r, defaultListLimit, maxListLimit))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, requests)
}

// ListMine handles GET /requests/mine, returning the caller's own requests.
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	requests, err := h.requests.ListRequestsByRequester(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, requests)
}

// Claim handles POST /requests/{id}/claim.
func (h *RequestHandler) Claim(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	requestID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	assignment, err := h.requests.ClaimRequest(r.Context(), requestID, userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusCreated, assignment)
}

// Cancel handles POST /requests/{id}/cancel.
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	requestID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.requests.CancelRequest(r.Context(), requestID, userID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Accept handles POST /assignments/{id}/accept.
func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.requests.AcceptAssignment)
}

// Start handles POST /assignments/{id}/start.
func (h *RequestHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.requests.StartWork)
}

// Complete handles POST /assignments/{id}/complete.
func (h *RequestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.requests.CompleteAssignment)
}

// ListAssignments handles GET /assignments, returning the caller's
// assignments as a provider.
func (h *RequestHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	assignments, err := h.requests.ListAssignmentsByProvider(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	RespondWithJSON(w, r, http.StatusOK, assignments)
}

// advance is the shared shape of the assignment lifecycle endpoints: the
// provider moves their assignment one step forward.
func (h *RequestHandler) advance(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, assignmentID, providerID uuid.UUID) error,
) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	assignmentID, ok := getPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := op(r.Context(), assignmentID, userID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
