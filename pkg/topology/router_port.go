package topology

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/txn"
)

// RouterPort is a port on a router. Rules are NAT rules installed in the
// router's chains for traffic through this port; BGP is an optional
// session configured on the port.
type RouterPort struct {
	resource

	PortAddress    string
	NetworkAddress string
	NetworkLength  int
	Rules          []Rule
	BGP            *BGP

	peerLink models.ResourceRef
}

func (p *RouterPort) Kind() models.Kind { return models.KindRouterPort }

// NewRouterPort builds a port from an address in CIDR form, for example
// "172.16.0.240/24".
func NewRouterPort(cidr string) (*RouterPort, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil || !prefix.Addr().Is4() {
		return nil, fmt.Errorf("%w: port address %q", ErrInvalidAddress, cidr)
	}
	return &RouterPort{
		PortAddress:    prefix.Addr().String(),
		NetworkAddress: prefix.Masked().Addr().String(),
		NetworkLength:  prefix.Bits(),
	}, nil
}

// LinkedPeerID returns the peer port this port is linked to, if any.
func (p *RouterPort) LinkedPeerID() string {
	return p.peerLink.ID
}

// check validates the port before anything is created for it.
func (p *RouterPort) check(router *Router) error {
	if err := p.claim(models.KindRouterPort, p.PortAddress); err != nil {
		return err
	}
	if _, err := parseIPv4(p.PortAddress); err != nil {
		return err
	}
	if _, err := parseIPv4(p.NetworkAddress); err != nil {
		return err
	}
	if p.NetworkLength < 0 || p.NetworkLength > 32 {
		return fmt.Errorf("%w: network length %d", ErrInvalidAddress, p.NetworkLength)
	}
	if len(p.Rules) > 0 && !router.HasChains() {
		return fmt.Errorf("port %s on router %q: %w", p.PortAddress, router.Name, ErrMissingChain)
	}
	for _, rule := range p.Rules {
		if rule.Realized() {
			return fmt.Errorf("port %s: %w: rule", p.PortAddress, ErrAlreadyRealized)
		}
	}
	if p.BGP != nil {
		for _, route := range p.BGP.AdRoutes {
			if err := route.check(); err != nil {
				return fmt.Errorf("port %s: %w", p.PortAddress, err)
			}
		}
	}
	return nil
}

// add realizes the port on router, then its rules, then its BGP session.
func (p *RouterPort) add(ctx context.Context, api API, tx *txn.Transaction, router *Router, portType string) error {
	if err := requireRealized(router, fmt.Sprintf("router %q", router.Name)); err != nil {
		return err
	}
	if err := p.check(router); err != nil {
		return err
	}

	if err := p.realize(ctx, api, tx, models.RouterPort{
		RouterID:       router.ID(),
		Type:           portType,
		PortAddress:    p.PortAddress,
		NetworkAddress: p.NetworkAddress,
		NetworkLength:  p.NetworkLength,
	}); err != nil {
		return err
	}

	for _, rule := range p.Rules {
		if err := rule.add(ctx, api, tx, router, p); err != nil {
			return err
		}
	}

	if p.BGP != nil {
		if err := p.BGP.add(ctx, api, tx, p); err != nil {
			return err
		}
	}
	return nil
}

// link connects this port to the peer port.
func (p *RouterPort) link(ctx context.Context, api API, tx *txn.Transaction, peerID string) error {
	if err := requireRealized(p, "router port"); err != nil {
		return err
	}
	if p.peerLink.ID != "" {
		return fmt.Errorf("%w: port %s already linked to %s", ErrAlreadyRealized, p.ID(), p.peerLink.ID)
	}
	ref, err := create(ctx, api, tx, models.PortLink{PortID: p.ID(), PeerID: peerID})
	if err != nil {
		return err
	}
	p.peerLink = models.ResourceRef{Kind: ref.Kind, ID: peerID, Path: ref.Path}
	return nil
}

func parseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidAddress, s)
	}
	return addr, nil
}
