package topology

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/txn"
)

// TunnelZone is a group of hosts tunnelling overlay traffic to each other.
type TunnelZone struct {
	resource

	Name string
	Type string
}

func (z *TunnelZone) Kind() models.Kind { return models.KindTunnelZone }

// Add realizes the zone, then each host membership in order.
func (z *TunnelZone) Add(ctx context.Context, api API, tx *txn.Transaction, hosts ...*TunnelZoneHost) error {
	if err := z.claim(models.KindTunnelZone, z.Name); err != nil {
		return err
	}
	for _, h := range hosts {
		if err := h.check(); err != nil {
			return err
		}
	}

	zoneType := z.Type
	if zoneType == "" {
		zoneType = models.TunnelZoneGRE
	}
	if err := z.realize(ctx, api, tx, models.TunnelZone{Name: z.Name, Type: zoneType}); err != nil {
		return err
	}

	for _, h := range hosts {
		if err := h.add(ctx, api, tx, z); err != nil {
			return err
		}
	}
	return nil
}

// TunnelZoneHost is a host member of a tunnel zone, reachable at IPAddress.
type TunnelZoneHost struct {
	resource

	HostID    string
	IPAddress string
}

func (h *TunnelZoneHost) Kind() models.Kind { return models.KindTunnelZoneHost }

func (h *TunnelZoneHost) check() error {
	if err := h.claim(models.KindTunnelZoneHost, h.HostID); err != nil {
		return err
	}
	if _, err := netip.ParseAddr(h.IPAddress); err != nil {
		return fmt.Errorf("%w: tunnel zone host %s: %v", ErrInvalidAddress, h.HostID, err)
	}
	return nil
}

func (h *TunnelZoneHost) add(ctx context.Context, api API, tx *txn.Transaction, zone *TunnelZone) error {
	if err := h.check(); err != nil {
		return err
	}
	if err := requireRealized(zone, "tunnel zone"); err != nil {
		return err
	}
	return h.realize(ctx, api, tx, models.TunnelZoneHost{
		TunnelZoneID: zone.ID(),
		HostID:       h.HostID,
		IPAddress:    h.IPAddress,
	})
}
