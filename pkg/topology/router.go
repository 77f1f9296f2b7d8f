package topology

import (
	"context"
	"fmt"

	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/txn"
)

// Router is a virtual L3 router owned by a tenant. Inbound and Outbound
// are optional filter chains; they must be realized before the router and
// are required for NAT rules on its ports.
type Router struct {
	resource

	Name     string
	TenantID string
	Inbound  *Chain
	Outbound *Chain
}

func (r *Router) Kind() models.Kind { return models.KindRouter }

// HasChains reports whether both filter chains are set.
func (r *Router) HasChains() bool {
	return r.Inbound != nil && r.Outbound != nil
}

// Link pairs a port to create on the router with the peer it attaches to.
type Link struct {
	Port *RouterPort
	Peer Peer
}

// Peer is what a router port attaches to: a *Bridge, a *HostInterface or a
// RouterPeer.
type Peer interface {
	portType() string
	checkPeer() error
	attach(ctx context.Context, api API, tx *txn.Transaction, port *RouterPort) error
}

// RouterPeer attaches a router port to a port created on another,
// already realized router.
type RouterPeer struct {
	Router *Router
	Port   *RouterPort
}

func (p RouterPeer) portType() string { return models.PortTypeInteriorRouter }

func (p RouterPeer) checkPeer() error {
	if p.Router == nil || p.Port == nil {
		return ErrInvalidLink
	}
	if err := requireRealized(p.Router, fmt.Sprintf("peer router %q", p.Router.Name)); err != nil {
		return err
	}
	return p.Port.check(p.Router)
}

func (p RouterPeer) attach(ctx context.Context, api API, tx *txn.Transaction, port *RouterPort) error {
	if err := p.checkPeer(); err != nil {
		return err
	}
	if err := p.Port.add(ctx, api, tx, p.Router, models.PortTypeInteriorRouter); err != nil {
		return err
	}
	return port.link(ctx, api, tx, p.Port.ID())
}

// Add realizes the router with its chains as filters, then each link in
// order: the local port (with its rules and BGP session) followed by the
// attachment to the peer. Ports and peers are checked before anything is
// created.
func (r *Router) Add(ctx context.Context, api API, tx *txn.Transaction, links ...Link) error {
	if err := r.claim(models.KindRouter, r.Name); err != nil {
		return err
	}
	for i, l := range links {
		if l.Port == nil || l.Peer == nil {
			return fmt.Errorf("router %q link %d: %w", r.Name, i, ErrInvalidLink)
		}
		if err := l.Port.check(r); err != nil {
			return fmt.Errorf("router %q link %d: %w", r.Name, i, err)
		}
		if err := l.Peer.checkPeer(); err != nil {
			return fmt.Errorf("router %q link %d peer: %w", r.Name, i, err)
		}
	}

	payload := models.Router{Name: r.Name, TenantID: r.TenantID}
	if r.Inbound != nil {
		if err := requireRealized(r.Inbound, "inbound chain"); err != nil {
			return err
		}
		payload.InboundFilterID = r.Inbound.ID()
	}
	if r.Outbound != nil {
		if err := requireRealized(r.Outbound, "outbound chain"); err != nil {
			return err
		}
		payload.OutboundFilterID = r.Outbound.ID()
	}

	if err := r.realize(ctx, api, tx, payload); err != nil {
		return err
	}

	for _, l := range links {
		if err := l.Port.add(ctx, api, tx, r, l.Peer.portType()); err != nil {
			return err
		}
		if err := l.Peer.attach(ctx, api, tx, l.Port); err != nil {
			return err
		}
	}
	return nil
}
