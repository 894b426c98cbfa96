package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AssignmentStatus represents the lifecycle state of a provider assignment.
type AssignmentStatus string

// Possible assignment status values
const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusAccepted   AssignmentStatus = "accepted"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
)

// Common validation errors for Assignment
var (
	ErrEmptyAssignmentID        = errors.New("assignment ID cannot be empty")
	ErrEmptyAssignmentRequestID = errors.New("assignment request ID cannot be empty")
	ErrEmptyProviderID          = errors.New("assignment provider ID cannot be empty")
	ErrInvalidAssignmentStatus  = errors.New("invalid assignment status")
)

// assignmentTransitions mirrors the request table: cancelled is reachable
// from every non-terminal state, completed only through in_progress.
var assignmentTransitions = map[AssignmentStatus][]AssignmentStatus{
	AssignmentStatusAssigned:   {AssignmentStatusAccepted, AssignmentStatusCancelled},
	AssignmentStatusAccepted:   {AssignmentStatusInProgress, AssignmentStatusCancelled},
	AssignmentStatusInProgress: {AssignmentStatusCompleted, AssignmentStatusCancelled},
	AssignmentStatusCompleted:  {},
	AssignmentStatusCancelled:  {},
}

// Assignment records a provider's claim on a service request. There is at
// most one active assignment per request; completion of the assignment
// completes the request itself.
type Assignment struct {
	ID         uuid.UUID        `json:"id"`
	RequestID  uuid.UUID        `json:"request_id"`
	ProviderID uuid.UUID        `json:"provider_id"`
	Status     AssignmentStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewAssignment creates a new Assignment in the assigned state for the
// given request and provider. Returns an error if validation fails.
func NewAssignment(requestID, providerID uuid.UUID) (*Assignment, error) {
	assignment := &Assignment{
		ID:         uuid.New(),
		RequestID:  requestID,
		ProviderID: providerID,
		Status:     AssignmentStatusAssigned,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := assignment.Validate(); err != nil {
		return nil, err
	}

	return assignment, nil
}

// Validate checks if the Assignment has valid data.
// Returns an error if any field fails validation.
func (a *Assignment) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAssignmentID
	}

	if a.RequestID == uuid.Nil {
		return ErrEmptyAssignmentRequestID
	}

	if a.ProviderID == uuid.Nil {
		return ErrEmptyProviderID
	}

	if !isValidAssignmentStatus(a.Status) {
		return ErrInvalidAssignmentStatus
	}

	return nil
}

// CanTransition reports whether the assignment may move from its current
// status to the target status according to the transition table.
func (a *Assignment) CanTransition(target AssignmentStatus) bool {
	for _, allowed := range assignmentTransitions[a.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Transition moves the assignment to the target status, validated against
// the legal-transition table. An illegal transition is rejected with an
// InvalidTransitionError naming both states and leaves the assignment
// unchanged.
func (a *Assignment) Transition(target AssignmentStatus) error {
	if !isValidAssignmentStatus(target) {
		return ErrInvalidAssignmentStatus
	}

	if !a.CanTransition(target) {
		return &InvalidTransitionError{
			Entity: "assignment",
			From:   string(a.Status),
			To:     string(target),
		}
	}

	a.Status = target
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// IsTerminal reports whether the assignment has reached a final state.
func (a *Assignment) IsTerminal() bool {
	return a.Status == AssignmentStatusCompleted || a.Status == AssignmentStatusCancelled
}

// isValidAssignmentStatus checks if the given status is a valid AssignmentStatus.
func isValidAssignmentStatus(status AssignmentStatus) bool {
	switch status {
	case AssignmentStatusAssigned, AssignmentStatusAccepted, AssignmentStatusInProgress,
		AssignmentStatusCompleted, AssignmentStatusCancelled:
		return true
	default:
		return false
	}
}
