package blueprint

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid indicates a document that fails validation.
	ErrInvalid = errors.New("invalid blueprint")

	// ErrUnresolvedTenant indicates Build was not given the identifier of a
	// tenant the blueprint uses.
	ErrUnresolvedTenant = errors.New("tenant identifier not resolved")
)

// FieldError locates a validation problem in the document.
type FieldError struct {
	// Field is a dotted path, for example "tenants[1].routers[0].ports[2]".
	Field string

	// Reason describes the problem.
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalid
}
