package txn

import (
	"errors"
	"fmt"
)

// ErrClosed indicates the transaction has already been rolled back.
var ErrClosed = errors.New("transaction already rolled back")

// RollbackActionError reports an undo action that failed during rollback.
// It never stops the rollback; it is collected and returned at the end.
type RollbackActionError struct {
	// Index is the position of the action in registration order (0-based).
	Index int

	// Description is the description given at registration.
	Description string

	// Err is the error returned (or panic recovered) by the action.
	Err error
}

func (e *RollbackActionError) Error() string {
	return fmt.Sprintf("undo #%d (%s): %v", e.Index, e.Description, e.Err)
}

func (e *RollbackActionError) Unwrap() error {
	return e.Err
}
