// Package agile implements the planning engine: the sprint lifecycle
// state machine, the kanban board with dense-position ordering and
// advisory WIP limits, epic progress rollup, and the facade that keeps
// the three consistent when work items move or change status.
//
// Every operation either applies fully or leaves state unchanged and
// returns an error wrapping one of the sentinel kinds below.
package agile

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match with errors.Is.
var (
	// ErrValidation means malformed input, rejected before any mutation
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState means an illegal lifecycle transition; the message
	// includes the current state for diagnostics
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound means an unknown sprint/epic/board/column/card id
	ErrNotFound = errors.New("not found")

	// ErrConflict means the operation clashes with current state and is
	// recoverable by re-fetching and retrying
	ErrConflict = errors.New("conflict")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidStatef(current string, format string, args ...any) error {
	return fmt.Errorf("%w: %s (current status: %s)", ErrInvalidState, fmt.Sprintf(format, args...), current)
}

func notFoundf(kind string, id uint) error {
	return fmt.Errorf("%w: %s #%d", ErrNotFound, kind, id)
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
