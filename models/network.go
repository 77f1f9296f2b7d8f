package models

import "fmt"

// Tunnel zone types supported by the controller.
const (
	TunnelZoneGRE   = "gre"
	TunnelZoneVXLAN = "vxlan"
)

// Port types understood by the controller.
const (
	PortTypeExteriorBridge = "ExteriorBridge"
	PortTypeInteriorBridge = "InteriorBridge"
	PortTypeExteriorRouter = "ExteriorRouter"
	PortTypeInteriorRouter = "InteriorRouter"
)

// TunnelZone groups hosts that tunnel overlay traffic to each other.
type TunnelZone struct {
	Name string `json:"name" validate:"required,max=255"`
	Type string `json:"type" validate:"required,oneof=gre vxlan"`
}

func (TunnelZone) Kind() Kind { return KindTunnelZone }

func (TunnelZone) CollectionPath() (string, error) { return "/tunnel_zones", nil }

func (TunnelZone) ResourcePath(id string) string { return "/tunnel_zones/" + id }

// TunnelZoneHost is a host membership in a tunnel zone.
// The controller identifies memberships by host ID within the zone.
type TunnelZoneHost struct {
	TunnelZoneID string `json:"tunnelZoneId" validate:"required"`
	HostID       string `json:"hostId" validate:"required"`
	IPAddress    string `json:"ipAddress" validate:"required,ip"`
}

func (TunnelZoneHost) Kind() Kind { return KindTunnelZoneHost }

func (h TunnelZoneHost) CollectionPath() (string, error) {
	return childPath("tunnel_zones", h.TunnelZoneID, "hosts")
}

func (h TunnelZoneHost) ResourcePath(id string) string {
	return fmt.Sprintf("/tunnel_zones/%s/hosts/%s", h.TunnelZoneID, id)
}

// Bridge is a virtual L2 switch.
type Bridge struct {
	Name             string `json:"name" validate:"required,max=255"`
	TenantID         string `json:"tenantId" validate:"required"`
	InboundFilterID  string `json:"inboundFilterId,omitempty"`
	OutboundFilterID string `json:"outboundFilterId,omitempty"`
}

func (Bridge) Kind() Kind { return KindBridge }

func (Bridge) CollectionPath() (string, error) { return "/bridges", nil }

func (Bridge) ResourcePath(id string) string { return "/bridges/" + id }

// BridgePort is a port on a bridge. Exterior ports are bound to host
// interfaces, interior ports are linked to router ports.
type BridgePort struct {
	BridgeID string `json:"deviceId" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=ExteriorBridge InteriorBridge"`
}

func (BridgePort) Kind() Kind { return KindBridgePort }

func (p BridgePort) CollectionPath() (string, error) {
	return childPath("bridges", p.BridgeID, "ports")
}

func (BridgePort) ResourcePath(id string) string { return "/ports/" + id }

// HostBinding binds an exterior port to a network interface on a host.
// The controller identifies bindings by port ID within the host.
type HostBinding struct {
	HostID        string `json:"hostId" validate:"required"`
	PortID        string `json:"portId" validate:"required"`
	InterfaceName string `json:"interfaceName" validate:"required,max=15"`
}

func (HostBinding) Kind() Kind { return KindHostBinding }

func (b HostBinding) CollectionPath() (string, error) {
	return childPath("hosts", b.HostID, "ports")
}

func (b HostBinding) ResourcePath(id string) string {
	return fmt.Sprintf("/hosts/%s/ports/%s", b.HostID, id)
}

// Router is a virtual L3 router.
type Router struct {
	Name             string `json:"name" validate:"required,max=255"`
	TenantID         string `json:"tenantId" validate:"required"`
	InboundFilterID  string `json:"inboundFilterId,omitempty"`
	OutboundFilterID string `json:"outboundFilterId,omitempty"`
}

func (Router) Kind() Kind { return KindRouter }

func (Router) CollectionPath() (string, error) { return "/routers", nil }

func (Router) ResourcePath(id string) string { return "/routers/" + id }

// RouterPort is a port on a router with its own address and subnet.
type RouterPort struct {
	RouterID       string `json:"deviceId" validate:"required"`
	Type           string `json:"type" validate:"required,oneof=ExteriorRouter InteriorRouter"`
	PortAddress    string `json:"portAddress" validate:"required,ipv4"`
	NetworkAddress string `json:"networkAddress" validate:"required,ipv4"`
	NetworkLength  int    `json:"networkLength" validate:"min=0,max=32"`
}

func (RouterPort) Kind() Kind { return KindRouterPort }

func (p RouterPort) CollectionPath() (string, error) {
	return childPath("routers", p.RouterID, "ports")
}

func (RouterPort) ResourcePath(id string) string { return "/ports/" + id }

// PortLink connects two interior ports. The link belongs to PortID.
type PortLink struct {
	PortID string `json:"portId" validate:"required"`
	PeerID string `json:"peerId" validate:"required,nefield=PortID"`
}

func (PortLink) Kind() Kind { return KindPortLink }

func (l PortLink) CollectionPath() (string, error) {
	return childPath("ports", l.PortID, "link")
}

func (l PortLink) ResourcePath(string) string {
	return fmt.Sprintf("/ports/%s/link", l.PortID)
}
