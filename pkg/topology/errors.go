package topology

import (
	"errors"
	"fmt"

	"github.com/yaroslav/topoctl/models"
)

var (
	// ErrAlreadyRealized indicates add was called on an entity that already
	// holds a controller identifier. No remote call is made.
	ErrAlreadyRealized = errors.New("entity already realized")

	// ErrNotRealized indicates a parent or peer has not been realized yet.
	ErrNotRealized = errors.New("referenced entity not realized")

	// ErrMissingChain indicates NAT rules were attached to a port whose
	// router has no inbound or outbound chain.
	ErrMissingChain = errors.New("router has no inbound and outbound chains")

	// ErrInvalidAddress indicates a malformed IPv4 address or prefix.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidLink indicates a link without a port or a peer.
	ErrInvalidLink = errors.New("link requires a port and a peer")

	// ErrEmptyIdentifier indicates the controller accepted a resource but
	// returned no identifier for it.
	ErrEmptyIdentifier = errors.New("controller returned an empty identifier")
)

// RealizationError reports a creation the controller rejected or that
// failed in transport.
type RealizationError struct {
	// Kind is the kind of resource being created.
	Kind models.Kind

	// Payload is the payload that was sent.
	Payload models.Resource

	// Err is the error reported by the API client.
	Err error
}

func (e *RealizationError) Error() string {
	return fmt.Sprintf("failed to realize %s: %v", e.Kind, e.Err)
}

func (e *RealizationError) Unwrap() error {
	return e.Err
}

// ResolutionError reports a tenant or host that could not be resolved.
// Nothing has been created when it is returned.
type ResolutionError struct {
	// Kind is "tenant" or "host".
	Kind string

	// Name is the tenant name or host identifier looked up.
	Name string

	// Err is the underlying cause.
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s %q: %v", e.Kind, e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
