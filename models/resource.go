package models

import "fmt"

// Kind identifies a type of controller resource.
type Kind string

const (
	KindTunnelZone     Kind = "tunnel_zone"
	KindTunnelZoneHost Kind = "tunnel_zone_host"
	KindBridge         Kind = "bridge"
	KindBridgePort     Kind = "bridge_port"
	KindHostBinding    Kind = "host_binding"
	KindChain          Kind = "chain"
	KindRule           Kind = "rule"
	KindRouter         Kind = "router"
	KindRouterPort     Kind = "router_port"
	KindPortLink       Kind = "port_link"
	KindBGP            Kind = "bgp"
	KindAdRoute        Kind = "ad_route"
)

// Kinds lists every resource kind in creation dependency order.
var Kinds = []Kind{
	KindTunnelZone,
	KindTunnelZoneHost,
	KindBridge,
	KindBridgePort,
	KindHostBinding,
	KindChain,
	KindRule,
	KindRouter,
	KindRouterPort,
	KindPortLink,
	KindBGP,
	KindAdRoute,
}

// IsKnownKind reports whether k is one of Kinds.
func IsKnownKind(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Resource is a payload that can be created on the controller.
//
// CollectionPath is the path, relative to the API root, the payload is
// POSTed to. ResourcePath is the canonical path of the resource once the
// controller assigned it the given identifier; it is used for deletion.
type Resource interface {
	Kind() Kind
	CollectionPath() (string, error)
	ResourcePath(id string) string
}

// ResourceRef locates a realized resource on the controller.
type ResourceRef struct {
	// Kind is the resource kind
	Kind Kind `json:"kind"`

	// ID is the identifier assigned by the controller
	ID string `json:"id"`

	// Path is the canonical resource path relative to the API root
	Path string `json:"path"`
}

// String returns a short description suitable for logs.
func (r ResourceRef) String() string {
	return fmt.Sprintf("%s %s", r.Kind, r.ID)
}

// RefFor builds the reference of a created resource.
func RefFor(r Resource, id string) ResourceRef {
	return ResourceRef{
		Kind: r.Kind(),
		ID:   id,
		Path: r.ResourcePath(id),
	}
}

// childPath joins a parent collection and identifier with a sub-collection,
// failing when the parent identifier is missing.
func childPath(parent, parentID, sub string) (string, error) {
	if parentID == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParent, parent)
	}
	return fmt.Sprintf("/%s/%s/%s", parent, parentID, sub), nil
}
