package topology

import (
	"context"
	"fmt"

	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/txn"
)

// BGP is a BGP session on a router port advertising AdRoutes to the peer.
type BGP struct {
	resource

	LocalAS  int
	PeerAS   int
	PeerAddr string
	AdRoutes []*AdRoute
}

func (b *BGP) Kind() models.Kind { return models.KindBGP }

func (b *BGP) add(ctx context.Context, api API, tx *txn.Transaction, port *RouterPort) error {
	if err := b.claim(models.KindBGP, b.PeerAddr); err != nil {
		return err
	}
	if err := requireRealized(port, "router port"); err != nil {
		return err
	}
	if _, err := parseIPv4(b.PeerAddr); err != nil {
		return fmt.Errorf("bgp peer: %w", err)
	}

	if err := b.realize(ctx, api, tx, models.BGP{
		PortID:   port.ID(),
		LocalAS:  b.LocalAS,
		PeerAS:   b.PeerAS,
		PeerAddr: b.PeerAddr,
	}); err != nil {
		return err
	}

	for _, route := range b.AdRoutes {
		if err := route.add(ctx, api, tx, b); err != nil {
			return err
		}
	}
	return nil
}

// AdRoute is a prefix advertised over a BGP session.
type AdRoute struct {
	resource

	NwPrefix     string
	PrefixLength int
}

func (a *AdRoute) Kind() models.Kind { return models.KindAdRoute }

func (a *AdRoute) add(ctx context.Context, api API, tx *txn.Transaction, bgp *BGP) error {
	if err := a.claim(models.KindAdRoute, a.NwPrefix); err != nil {
		return err
	}
	if err := requireRealized(bgp, "bgp session"); err != nil {
		return err
	}
	if err := a.check(); err != nil {
		return err
	}
	return a.realize(ctx, api, tx, models.AdRoute{
		BGPID:        bgp.ID(),
		NwPrefix:     a.NwPrefix,
		PrefixLength: a.PrefixLength,
	})
}

func (a *AdRoute) check() error {
	if _, err := parseIPv4(a.NwPrefix); err != nil {
		return fmt.Errorf("advertised route: %w", err)
	}
	if a.PrefixLength < 0 || a.PrefixLength > 32 {
		return fmt.Errorf("advertised route %s: %w: prefix length %d", a.NwPrefix, ErrInvalidAddress, a.PrefixLength)
	}
	return nil
}
