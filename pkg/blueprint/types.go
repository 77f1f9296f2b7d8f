package blueprint

// Blueprint is the root of a topology document.
type Blueprint struct {
	// Provider optionally names the tenant owning the provider router.
	Provider string `yaml:"provider"`

	// Hosts maps a local alias to a physical host.
	Hosts map[string]HostSpec `yaml:"hosts" validate:"dive"`

	TunnelZones []TunnelZoneSpec `yaml:"tunnel_zones" validate:"dive"`
	TenantSpecs []TenantSpec     `yaml:"tenants" validate:"required,min=1,dive"`
}

// HostSpec identifies a host and its tunnel endpoint address.
type HostSpec struct {
	ID      string `yaml:"id" validate:"required"`
	Address string `yaml:"address" validate:"omitempty,ip"`
}

// TunnelZoneSpec is a tunnel zone and its member hosts, by alias.
type TunnelZoneSpec struct {
	Name    string   `yaml:"name" validate:"required,max=255"`
	Type    string   `yaml:"type" validate:"omitempty,oneof=gre vxlan"`
	Members []string `yaml:"members" validate:"dive,required"`
}

// TenantSpec groups the resources owned by one tenant. Chains are created
// first, then bridges, then routers.
type TenantSpec struct {
	Name    string       `yaml:"name" validate:"required"`
	Chains  []string     `yaml:"chains" validate:"dive,required"`
	Bridges []BridgeSpec `yaml:"bridges" validate:"dive"`
	Routers []RouterSpec `yaml:"routers" validate:"dive"`
}

// BridgeSpec is a bridge with host interfaces plugged into it.
type BridgeSpec struct {
	Name       string          `yaml:"name" validate:"required,max=255"`
	Interfaces []InterfaceSpec `yaml:"interfaces" validate:"dive"`
}

// InterfaceSpec is a network interface on a host, by host alias.
type InterfaceSpec struct {
	Host string `yaml:"host" validate:"required"`
	Name string `yaml:"name" validate:"required,max=15"`
}

// RouterSpec is a router, its optional filter chains and its ports.
type RouterSpec struct {
	Name   string     `yaml:"name" validate:"required,max=255"`
	Chains *ChainRefs `yaml:"chains"`
	Ports  []PortSpec `yaml:"ports" validate:"dive"`
}

// ChainRefs names the tenant's chains used as router filters.
type ChainRefs struct {
	In  string `yaml:"in" validate:"required"`
	Out string `yaml:"out" validate:"required"`
}

// PortSpec is a router port in CIDR form, the peer it attaches to, and the
// NAT rules and BGP session configured on it.
type PortSpec struct {
	Address string     `yaml:"address" validate:"required,cidrv4"`
	Peer    PeerSpec   `yaml:"peer"`
	Rules   []RuleSpec `yaml:"rules" validate:"dive"`
	BGP     *BGPSpec   `yaml:"bgp"`
}

// PeerSpec is what a router port attaches to. Exactly one of Bridge,
// Router and Host is set.
//
// Bridge names a bridge of the same tenant. Router is "tenant/router" or a
// router of the same tenant defined earlier; a port at Address with Rules
// is created on it. Host with Interface binds the port to a host interface.
type PeerSpec struct {
	Bridge string `yaml:"bridge"`

	Router  string     `yaml:"router"`
	Address string     `yaml:"address" validate:"required_with=Router,omitempty,cidrv4"`
	Rules   []RuleSpec `yaml:"rules" validate:"dive"`

	Host      string `yaml:"host"`
	Interface string `yaml:"interface" validate:"required_with=Host,omitempty,max=15"`
}

// RuleSpec is one NAT intent: either Masquerade, or FloatIP with FixedIP.
type RuleSpec struct {
	Masquerade string `yaml:"masquerade" validate:"omitempty,ipv4"`
	FloatIP    string `yaml:"float_ip" validate:"omitempty,ipv4"`
	FixedIP    string `yaml:"fixed_ip" validate:"required_with=FloatIP,omitempty,ipv4"`
}

// BGPSpec is a BGP session and the prefixes it advertises.
type BGPSpec struct {
	LocalAS     int      `yaml:"local_as" validate:"required,min=1,max=4294967295"`
	PeerAS      int      `yaml:"peer_as" validate:"required,min=1,max=4294967295"`
	PeerAddress string   `yaml:"peer_address" validate:"required,ipv4"`
	Routes      []string `yaml:"routes" validate:"dive,cidrv4"`
}
