// Package logging provides structured logging utilities for topoctl.
package logging

// Standard field names for consistent logging across the application.
const (
	// FieldTenant is the name of a tenant.
	FieldTenant = "tenant"

	// FieldTenantID is the controller identifier of a tenant.
	FieldTenantID = "tenant_id"

	// FieldHostID is the identifier of a host.
	FieldHostID = "host_id"

	// FieldKind is the kind of controller resource.
	FieldKind = "kind"

	// FieldResourceID is the identifier assigned by the controller.
	FieldResourceID = "resource_id"

	// FieldResource is a short description of a realized resource.
	FieldResource = "resource"

	// FieldIndex is the position of an entry in the rollback ledger.
	FieldIndex = "index"

	// FieldRequestID is a unique identifier for each HTTP request.
	FieldRequestID = "request_id"

	// FieldDuration is the duration of an operation in milliseconds.
	FieldDuration = "duration_ms"

	// FieldStatusCode is the HTTP status code of a response.
	FieldStatusCode = "status_code"

	// FieldMethod is the HTTP method of a request.
	FieldMethod = "method"

	// FieldPath is the URL path of an HTTP request.
	FieldPath = "path"

	// FieldRemoteAddr is the client's remote address.
	FieldRemoteAddr = "remote_addr"

	// FieldError is the error message or description.
	FieldError = "error"

	// FieldAttempt is the retry attempt number of a request.
	FieldAttempt = "attempt"

	// FieldComponent identifies the component or service generating the log.
	FieldComponent = "component"

	// FieldOperation identifies the specific operation being performed.
	FieldOperation = "operation"
)
