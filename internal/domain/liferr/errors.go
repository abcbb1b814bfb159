// Package liferr defines the domain error taxonomy shared by every service.
// All values are expected, locally-caught business errors carrying a
// human-readable reason; none of them is a fatal process error.
package liferr

import (
	"errors"
	"fmt"
)

// Sentinel values for errors.Is matching.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrNotEligible         = errors.New("not eligible")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrDuplicateAssignment = errors.New("duplicate assignment")
	ErrValidation          = errors.New("validation error")
)

// NotFound wraps ErrNotFound with the entity kind and identifier.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// InvalidTransition reports a state machine guard violation for the given
// event, naming the statuses involved.
func InvalidTransition(event string, from, to any) error {
	return fmt.Errorf("event %s: %v -> %v: %w", event, from, to, ErrInvalidTransition)
}

// Constraint identifies the first violated eligibility check, in evaluation
// order. The order is fixed and user-facing.
type Constraint string

const (
	ConstraintSpecies     Constraint = "species"
	ConstraintAgeMin      Constraint = "age-min"
	ConstraintAgeMax      Constraint = "age-max"
	ConstraintWeightMin   Constraint = "weight-min"
	ConstraintWeightMax   Constraint = "weight-max"
	ConstraintVaccination Constraint = "vaccination"

	// ConstraintStatus is used by the lifecycle guard when a terminal unit
	// is pushed back into the allocation path.
	ConstraintStatus Constraint = "status"
)

// EligibilityError carries the first violated constraint of an admission
// check so callers can render a precise message.
type EligibilityError struct {
	UnitID     string
	Constraint Constraint
	Detail     string
}

func (e *EligibilityError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unit %s not eligible: %s (%s)", e.UnitID, e.Constraint, e.Detail)
	}
	return fmt.Sprintf("unit %s not eligible: %s", e.UnitID, e.Constraint)
}

func (e *EligibilityError) Unwrap() error { return ErrNotEligible }

// NotEligible builds an EligibilityError.
func NotEligible(unitID string, c Constraint, detail string) error {
	return &EligibilityError{UnitID: unitID, Constraint: c, Detail: detail}
}

// CapacityExceeded wraps ErrCapacityExceeded for a full container.
func CapacityExceeded(kind, id string) error {
	return fmt.Errorf("%s %s has no remaining capacity: %w", kind, id, ErrCapacityExceeded)
}

// DuplicateAssignment reports a unit already active in another container of
// the same kind.
func DuplicateAssignment(unitID, kind string) error {
	return fmt.Errorf("unit %s already active in another %s: %w", unitID, kind, ErrDuplicateAssignment)
}

// Validation wraps ErrValidation with a formatted reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrValidation)...)
}
