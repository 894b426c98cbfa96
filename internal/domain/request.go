package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the lifecycle state of a service request.
type RequestStatus string

// Possible request status values
const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusAccepted   RequestStatus = "accepted"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

// PaymentStatus represents the payment state carried by a service request
// and its payment record. Requests only ever hold unpaid, paid, or
// payment_failed; refunded appears on payment records alone.
type PaymentStatus string

// Possible payment status values
const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "payment_failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Common validation errors for ServiceRequest
var (
	ErrEmptyRequestID          = errors.New("request ID cannot be empty")
	ErrEmptyRequesterID        = errors.New("request requester ID cannot be empty")
	ErrEmptyRequestTitle       = errors.New("request title cannot be empty")
	ErrNegativeOfferedAmount   = errors.New("offered amount cannot be negative")
	ErrInvalidRequestStatus    = errors.New("invalid request status")
	ErrInvalidPaymentStatus    = errors.New("invalid payment status")
	ErrRequestNotClaimable     = errors.New("request can only be claimed while pending")
	ErrSelfClaim               = errors.New("requester cannot claim their own request")
	ErrRequestAlreadyAssigned  = errors.New("request already has an active assignment")
	ErrRequestAlreadyCancelled = errors.New("request is already cancelled")
)

// requestTransitions is the legal transition table for a service request.
// Any (current, target) pair not listed here is rejected.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusAccepted, RequestStatusCancelled},
	RequestStatusAccepted:   {RequestStatusInProgress, RequestStatusCancelled},
	RequestStatusInProgress: {RequestStatusCompleted},
	RequestStatusCompleted:  {},
	RequestStatusCancelled:  {},
}

// ServiceRequest represents a unit of work posted by a requester and
// fulfilled by a provider through an assignment. Status is mutated only
// through Transition; PaymentStatus is mutated only by the payment reactor.
type ServiceRequest struct {
	ID            uuid.UUID     `json:"id"`
	RequesterID   uuid.UUID     `json:"requester_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	OfferedAmount int64         `json:"offered_amount"` // smallest currency unit
	Status        RequestStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewServiceRequest creates a new ServiceRequest in the pending state with
// an unpaid payment status. Returns an error if validation fails.
func NewServiceRequest(
	requesterID uuid.UUID,
	title, description string,
	offeredAmount int64,
) (*ServiceRequest, error) {
	req := &ServiceRequest{
		ID:            uuid.New(),
		RequesterID:   requesterID,
		Title:         title,
		Description:   description,
		OfferedAmount: offeredAmount,
		Status:        RequestStatusPending,
		PaymentStatus: PaymentStatusUnpaid,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks if the ServiceRequest has valid data.
// Returns an error if any field fails validation.
func (r *ServiceRequest) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRequestID
	}

	if r.RequesterID == uuid.Nil {
		return ErrEmptyRequesterID
	}

	if r.Title == "" {
		return ErrEmptyRequestTitle
	}

	if r.OfferedAmount < 0 {
		return ErrNegativeOfferedAmount
	}

	if !isValidRequestStatus(r.Status) {
		return ErrInvalidRequestStatus
	}

	if !isValidRequestPaymentStatus(r.PaymentStatus) {
		return ErrInvalidPaymentStatus
	}

	return nil
}

// CanTransition reports whether the request may move from its current
// status to the target status according to the transition table.
func (r *ServiceRequest) CanTransition(target RequestStatus) bool {
	for _, allowed := range requestTransitions[r.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Transition moves the request to the target status. The transition is
// validated against the legal-transition table; an illegal transition is
// rejected with an InvalidTransitionError naming both states, and the
// request is left unchanged.
func (r *ServiceRequest) Transition(target RequestStatus) error {
	if !isValidRequestStatus(target) {
		return ErrInvalidRequestStatus
	}

	if !r.CanTransition(target) {
		return &InvalidTransitionError{
			Entity: "service request",
			From:   string(r.Status),
			To:     string(target),
		}
	}

	r.Status = target
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// IsTerminal reports whether the request has reached a final state.
func (r *ServiceRequest) IsTerminal() bool {
	return r.Status == RequestStatusCompleted || r.Status == RequestStatusCancelled
}

// isValidRequestStatus checks if the given status is a valid RequestStatus.
func isValidRequestStatus(status RequestStatus) bool {
	switch status {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusInProgress,
		RequestStatusCompleted, RequestStatusCancelled:
		return true
	default:
		return false
	}
}

// isValidRequestPaymentStatus checks the payment status values a request
// row may hold. Refunded lives only on payment records.
func isValidRequestPaymentStatus(status PaymentStatus) bool {
	switch status {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusFailed:
		return true
	default:
		return false
	}
}
