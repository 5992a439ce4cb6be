// Package store persists patients. Every mutation is atomic with respect to
// the email uniqueness rule: two concurrent creates with the same email never
// both succeed.
package store

import (
	"fmt"

	"patientcore/pkg/platform/sentinel"
)

// ErrEmailTaken is returned when a create or update collides with another
// patient's email. It matches sentinel.ErrConflict.
var ErrEmailTaken = fmt.Errorf("email already registered: %w", sentinel.ErrConflict)

// ErrStaleVersion is returned when a concurrent writer modified the row
// between read and write. It matches sentinel.ErrConflict.
var ErrStaleVersion = fmt.Errorf("patient modified concurrently: %w", sentinel.ErrConflict)
