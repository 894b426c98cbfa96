package domain

import (
	"errors"
	"fmt"
)

// InvalidTransitionError is returned when a lifecycle operation asks for a
// state change that is not present in the entity's transition table. The
// attempted transition is never applied.
type InvalidTransitionError struct {
	Entity string // "service request" or "assignment"
	From   string // current state
	To     string // requested state
}

// Error implements the error interface for InvalidTransitionError.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot transition from %q to %q", e.Entity, e.From, e.To)
}

// IsInvalidTransition reports whether the error is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
