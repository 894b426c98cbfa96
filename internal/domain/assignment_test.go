package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewAssignment(t *testing.T) {
	t.Parallel()
	requestID := uuid.New()
	providerID := uuid.New()

	assignment, err := NewAssignment(requestID, providerID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if assignment.Status != AssignmentStatusAssigned {
		t.Errorf("Expected status %s, got %s", AssignmentStatusAssigned, assignment.Status)
	}

	if assignment.RequestID != requestID {
		t.Errorf("Expected request ID %s, got %s", requestID, assignment.RequestID)
	}

	// Test invalid inputs
	if _, err := NewAssignment(uuid.Nil, providerID); err != ErrEmptyAssignmentRequestID {
		t.Errorf("Expected error %v, got %v", ErrEmptyAssignmentRequestID, err)
	}

	if _, err := NewAssignment(requestID, uuid.Nil); err != ErrEmptyProviderID {
		t.Errorf("Expected error %v, got %v", ErrEmptyProviderID, err)
	}
}

func TestAssignmentTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    AssignmentStatus
		to      AssignmentStatus
		allowed bool
	}{
		{"assigned to accepted", AssignmentStatusAssigned, AssignmentStatusAccepted, true},
		{"assigned to cancelled", AssignmentStatusAssigned, AssignmentStatusCancelled, true},
		{"assigned to completed", AssignmentStatusAssigned, AssignmentStatusCompleted, false},
		{"accepted to in_progress", AssignmentStatusAccepted, AssignmentStatusInProgress, true},
		{"accepted to cancelled", AssignmentStatusAccepted, AssignmentStatusCancelled, true},
		{"in_progress to completed", AssignmentStatusInProgress, AssignmentStatusCompleted, true},
		{"in_progress to cancelled", AssignmentStatusInProgress, AssignmentStatusCancelled, true},
		{"completed is terminal", AssignmentStatusCompleted, AssignmentStatusCancelled, false},
		{"cancelled is terminal", AssignmentStatusCancelled, AssignmentStatusAssigned, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assignment := &Assignment{
				ID:         uuid.New(),
				RequestID:  uuid.New(),
				ProviderID: uuid.New(),
				Status:     tc.from,
			}

			err := assignment.Transition(tc.to)

			if tc.allowed && err != nil {
				t.Fatalf("Expected transition %s -> %s to succeed, got %v", tc.from, tc.to, err)
			}
			if !tc.allowed {
				if err == nil {
					t.Fatalf("Expected transition %s -> %s to be rejected", tc.from, tc.to)
				}
				if assignment.Status != tc.from {
					t.Errorf("Expected status to remain %s, got %s", tc.from, assignment.Status)
				}
			}
		})
	}
}

func TestAssignmentIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := map[AssignmentStatus]bool{
		AssignmentStatusAssigned:   false,
		AssignmentStatusAccepted:   false,
		AssignmentStatusInProgress: false,
		AssignmentStatusCompleted:  true,
		AssignmentStatusCancelled:  true,
	}

	for status, want := range terminal {
		a := &Assignment{Status: status}
		if got := a.IsTerminal(); got != want {
			t.Errorf("IsTerminal() for %s = %v, want %v", status, got, want)
		}
	}
}
