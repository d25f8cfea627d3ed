/*
errors.go - Error taxonomy for the calculation core

PURPOSE:
  The core distinguishes exactly two failure classes:

  1. Validation errors - invalid or out-of-range input (negative premium,
     zero duration, unknown sub-category, illegal status transition).
     Surfaced before any persistence attempt, never recovered silently.
  2. Persistence failures - generated by store collaborators, not here.
     The core's contract is all-or-nothing: either every derived field is
     computed from validated input, or the attempt aborts before the store.

  A missing operator rate is deliberately NOT an error: resolution falls
  back to the system default table (see rates.go).

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, commission.ErrValidation) {
        // 400, show field + reason
    }
*/
package commission

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel wrapped by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError identifies the offending field of an invalid input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a client-input problem.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
