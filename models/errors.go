package models

import "errors"

// Common error types used throughout topoctl.
// These errors provide semantic meaning and enable consistent error handling
// across the client, the topology builder and the emulator.

var (
	// ErrNotFound indicates the requested resource does not exist.
	// HTTP equivalent: 404 Not Found
	ErrNotFound = errors.New("resource not found")

	// ErrTenantNotFound indicates the requested tenant does not exist.
	// HTTP equivalent: 404 Not Found
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrHostNotFound indicates the requested host does not exist.
	// HTTP equivalent: 404 Not Found
	ErrHostNotFound = errors.New("host not found")

	// ErrMissingParent indicates a payload lacks the identifier of the
	// resource it must be created under.
	ErrMissingParent = errors.New("parent resource identifier is required")

	// ErrUnknownKind indicates a resource kind the API does not know about.
	ErrUnknownKind = errors.New("unknown resource kind")

	// ErrInvalidRequest indicates the request body or parameters are invalid.
	// HTTP equivalent: 400 Bad Request
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConflict indicates the operation conflicts with existing state, for
	// example deleting a resource that still has children.
	// HTTP equivalent: 409 Conflict
	ErrConflict = errors.New("conflict with existing resource")
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	// Error is the error code (e.g., "not_found", "conflict")
	Error string `json:"error"`

	// Message is a human-readable error message
	Message string `json:"message,omitempty"`

	// RequestID is the unique request ID for tracing
	RequestID string `json:"request_id,omitempty"`
}

// CreatedResponse is returned by the controller for every created resource.
type CreatedResponse struct {
	// ID is the identifier assigned by the controller
	ID string `json:"id"`
}
