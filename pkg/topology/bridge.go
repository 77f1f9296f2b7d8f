package topology

import (
	"context"
	"fmt"

	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/txn"
)

// Bridge is a virtual L2 switch owned by a tenant.
type Bridge struct {
	resource

	Name     string
	TenantID string
}

func (b *Bridge) Kind() models.Kind { return models.KindBridge }

// Add realizes the bridge, then for each host interface an exterior bridge
// port bound to that interface.
func (b *Bridge) Add(ctx context.Context, api API, tx *txn.Transaction, ifaces ...*HostInterface) error {
	if err := b.claim(models.KindBridge, b.Name); err != nil {
		return err
	}
	for _, iface := range ifaces {
		if err := iface.check(); err != nil {
			return err
		}
	}

	if err := b.realize(ctx, api, tx, models.Bridge{Name: b.Name, TenantID: b.TenantID}); err != nil {
		return err
	}

	for _, iface := range ifaces {
		port, err := create(ctx, api, tx, models.BridgePort{
			BridgeID: b.ID(),
			Type:     models.PortTypeExteriorBridge,
		})
		if err != nil {
			return err
		}
		if err := iface.bind(ctx, api, tx, port); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) portType() string { return models.PortTypeInteriorRouter }

func (b *Bridge) checkPeer() error {
	if b == nil {
		return ErrInvalidLink
	}
	return requireRealized(b, fmt.Sprintf("bridge %q", b.Name))
}

// attach links a router port to a new interior port on this bridge.
func (b *Bridge) attach(ctx context.Context, api API, tx *txn.Transaction, port *RouterPort) error {
	if err := b.checkPeer(); err != nil {
		return err
	}
	peer, err := create(ctx, api, tx, models.BridgePort{
		BridgeID: b.ID(),
		Type:     models.PortTypeInteriorBridge,
	})
	if err != nil {
		return err
	}
	return port.link(ctx, api, tx, peer.ID)
}

// HostInterface is a network interface on a host, bound to a virtual port.
// As a bridge child it gets its own exterior bridge port; as a router port
// peer it is bound to that router port.
type HostInterface struct {
	resource

	HostID string
	Name   string

	port models.ResourceRef
}

func (h *HostInterface) Kind() models.Kind { return models.KindHostBinding }

// PortID returns the port the interface is bound to, or "" before binding.
func (h *HostInterface) PortID() string {
	if !h.Realized() {
		return ""
	}
	return h.port.ID
}

func (h *HostInterface) check() error {
	return h.claim(models.KindHostBinding, h.HostID+"/"+h.Name)
}

func (h *HostInterface) portType() string { return models.PortTypeExteriorRouter }

func (h *HostInterface) checkPeer() error {
	if h == nil {
		return ErrInvalidLink
	}
	return h.check()
}

func (h *HostInterface) attach(ctx context.Context, api API, tx *txn.Transaction, port *RouterPort) error {
	if err := requireRealized(port, "router port"); err != nil {
		return err
	}
	return h.bind(ctx, api, tx, port.Ref())
}

// bind binds the interface to port. The port is remembered only once the
// binding exists.
func (h *HostInterface) bind(ctx context.Context, api API, tx *txn.Transaction, port models.ResourceRef) error {
	if err := h.check(); err != nil {
		return err
	}
	if err := h.realize(ctx, api, tx, models.HostBinding{
		HostID:        h.HostID,
		PortID:        port.ID,
		InterfaceName: h.Name,
	}); err != nil {
		return err
	}
	h.port = port
	return nil
}
