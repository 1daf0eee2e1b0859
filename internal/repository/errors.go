package repository

import (
	"errors"
	"fmt"
)

// Unique constraints the pipeline resolves instead of failing.
const (
	ConstraintClinicSlug   = "clinics_slug_key"
	ConstraintCategorySlug = "categories_slug_key"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ConflictError is a unique-constraint violation on a named constraint.
type ConflictError struct {
	Constraint string
	Err        error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unique constraint %q violated: %v", e.Constraint, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err is a unique violation of the given constraint.
// Violations of any other constraint do not match.
func IsConflict(err error, constraint string) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Constraint == constraint
}
