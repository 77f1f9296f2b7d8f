package models

// Rule types used by NAT translation.
const (
	RuleTypeSNAT    = "snat"
	RuleTypeDNAT    = "dnat"
	RuleTypeRevSNAT = "rev_snat"
	RuleTypeRevDNAT = "rev_dnat"
	RuleTypeAccept  = "accept"
	RuleTypeDrop    = "drop"
)

// FlowActionAccept continues processing the packet after translation.
const FlowActionAccept = "accept"

// Chain is an ordered list of filtering and translation rules.
type Chain struct {
	Name     string `json:"name" validate:"required,max=255"`
	TenantID string `json:"tenantId" validate:"required"`
}

func (Chain) Kind() Kind { return KindChain }

func (Chain) CollectionPath() (string, error) { return "/chains", nil }

func (Chain) ResourcePath(id string) string { return "/chains/" + id }

// NatTarget is an address and port range a NAT rule translates to.
type NatTarget struct {
	AddressFrom string `json:"addressFrom" validate:"required,ipv4"`
	AddressTo   string `json:"addressTo" validate:"required,ipv4"`
	PortFrom    int    `json:"portFrom" validate:"min=0,max=65535"`
	PortTo      int    `json:"portTo" validate:"min=0,max=65535,gtefield=PortFrom"`
}

// Rule is one entry in a chain.
type Rule struct {
	ChainID      string      `json:"chainId" validate:"required"`
	Type         string      `json:"type" validate:"required,oneof=snat dnat rev_snat rev_dnat accept drop"`
	FlowAction   string      `json:"flowAction,omitempty" validate:"omitempty,oneof=accept continue return"`
	Position     int         `json:"position,omitempty" validate:"min=0"`
	NwSrcAddress string      `json:"nwSrcAddress,omitempty" validate:"omitempty,ipv4"`
	NwSrcLength  int         `json:"nwSrcLength,omitempty" validate:"min=0,max=32"`
	NwDstAddress string      `json:"nwDstAddress,omitempty" validate:"omitempty,ipv4"`
	NwDstLength  int         `json:"nwDstLength,omitempty" validate:"min=0,max=32"`
	InPorts      []string    `json:"inPorts,omitempty"`
	OutPorts     []string    `json:"outPorts,omitempty"`
	NatTargets   []NatTarget `json:"natTargets,omitempty" validate:"dive"`
}

func (Rule) Kind() Kind { return KindRule }

func (r Rule) CollectionPath() (string, error) {
	return childPath("chains", r.ChainID, "rules")
}

func (Rule) ResourcePath(id string) string { return "/rules/" + id }
