package blueprint

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/internal/logging"
	"github.com/yaroslav/topoctl/pkg/topology"
	"github.com/yaroslav/topoctl/pkg/txn"
)

// step is one top-level entity realization.
type step struct {
	name    string
	creates int
	apply   func(ctx context.Context, api topology.API, tx *txn.Transaction) error
}

// Plan is an ordered list of entity realizations built from a blueprint.
// A Plan can be applied once; its entities keep their identifiers.
type Plan struct {
	steps   []step
	routers map[string]*topology.Router
	bridges map[string]*topology.Bridge
}

// Build turns the blueprint into a plan. tenantIDs maps every tenant name
// to its controller identifier.
func (b *Blueprint) Build(tenantIDs map[string]string) (*Plan, error) {
	p := &Plan{
		routers: make(map[string]*topology.Router),
		bridges: make(map[string]*topology.Bridge),
	}

	for _, z := range b.TunnelZones {
		zone := &topology.TunnelZone{Name: z.Name, Type: z.Type}
		members := make([]*topology.TunnelZoneHost, 0, len(z.Members))
		for _, alias := range z.Members {
			h := b.Hosts[alias]
			members = append(members, &topology.TunnelZoneHost{HostID: h.ID, IPAddress: h.Address})
		}
		p.add("tunnel zone "+z.Name, 1+len(members), func(ctx context.Context, api topology.API, tx *txn.Transaction) error {
			return zone.Add(ctx, api, tx, members...)
		})
	}

	for _, t := range b.TenantSpecs {
		tenantID, ok := tenantIDs[t.Name]
		if !ok || tenantID == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnresolvedTenant, t.Name)
		}

		chains := make(map[string]*topology.Chain, len(t.Chains))
		for _, name := range t.Chains {
			chain := &topology.Chain{Name: name, TenantID: tenantID}
			chains[name] = chain
			p.add(fmt.Sprintf("chain %s/%s", t.Name, name), 1, func(ctx context.Context, api topology.API, tx *txn.Transaction) error {
				return chain.Add(ctx, api, tx)
			})
		}

		for _, br := range t.Bridges {
			bridge := &topology.Bridge{Name: br.Name, TenantID: tenantID}
			ifaces := make([]*topology.HostInterface, 0, len(br.Interfaces))
			for _, iface := range br.Interfaces {
				ifaces = append(ifaces, &topology.HostInterface{HostID: b.Hosts[iface.Host].ID, Name: iface.Name})
			}
			p.bridges[t.Name+"/"+br.Name] = bridge
			p.add(fmt.Sprintf("bridge %s/%s", t.Name, br.Name), 1+2*len(ifaces), func(ctx context.Context, api topology.API, tx *txn.Transaction) error {
				return bridge.Add(ctx, api, tx, ifaces...)
			})
		}

		for _, r := range t.Routers {
			router := &topology.Router{Name: r.Name, TenantID: tenantID}
			if r.Chains != nil {
				router.Inbound = chains[r.Chains.In]
				router.Outbound = chains[r.Chains.Out]
			}

			creates := 1
			links := make([]topology.Link, 0, len(r.Ports))
			for _, ps := range r.Ports {
				link, n, err := p.link(b, t.Name, ps)
				if err != nil {
					return nil, fmt.Errorf("router %s/%s port %s: %w", t.Name, r.Name, ps.Address, err)
				}
				links = append(links, link)
				creates += n
			}

			p.routers[t.Name+"/"+r.Name] = router
			p.add(fmt.Sprintf("router %s/%s", t.Name, r.Name), creates, func(ctx context.Context, api topology.API, tx *txn.Transaction) error {
				return router.Add(ctx, api, tx, links...)
			})
		}
	}

	return p, nil
}

// link builds one router port and its peer, and counts the creations.
func (p *Plan) link(b *Blueprint, tenant string, ps PortSpec) (topology.Link, int, error) {
	port, err := newPort(ps.Address, ps.Rules, ps.BGP)
	if err != nil {
		return topology.Link{}, 0, err
	}
	creates := 1 + 2*len(ps.Rules) + bgpCreates(ps.BGP)

	switch {
	case ps.Peer.Bridge != "":
		// Interior bridge port and the link.
		return topology.Link{Port: port, Peer: p.bridges[tenant+"/"+ps.Peer.Bridge]}, creates + 2, nil
	case ps.Peer.Router != "":
		peerPort, err := newPort(ps.Peer.Address, ps.Peer.Rules, nil)
		if err != nil {
			return topology.Link{}, 0, err
		}
		peer := topology.RouterPeer{Router: p.routers[qualify(tenant, ps.Peer.Router)], Port: peerPort}
		// Peer port, its rules and the link.
		return topology.Link{Port: port, Peer: peer}, creates + 1 + 2*len(ps.Peer.Rules) + 1, nil
	default:
		iface := &topology.HostInterface{HostID: b.Hosts[ps.Peer.Host].ID, Name: ps.Peer.Interface}
		return topology.Link{Port: port, Peer: iface}, creates + 1, nil
	}
}

func newPort(cidr string, rules []RuleSpec, bgp *BGPSpec) (*topology.RouterPort, error) {
	port, err := topology.NewRouterPort(cidr)
	if err != nil {
		return nil, err
	}

	for _, r := range rules {
		if r.Masquerade != "" {
			port.Rules = append(port.Rules, &topology.RuleMasq{SnatIP: r.Masquerade})
		} else {
			port.Rules = append(port.Rules, &topology.RuleFloatIP{FloatIP: r.FloatIP, FixedIP: r.FixedIP})
		}
	}

	if bgp != nil {
		session := &topology.BGP{LocalAS: bgp.LocalAS, PeerAS: bgp.PeerAS, PeerAddr: bgp.PeerAddress}
		for _, route := range bgp.Routes {
			prefix, err := netip.ParsePrefix(route)
			if err != nil {
				return nil, fmt.Errorf("%w: advertised route %q", topology.ErrInvalidAddress, route)
			}
			session.AdRoutes = append(session.AdRoutes, &topology.AdRoute{
				NwPrefix:     prefix.Masked().Addr().String(),
				PrefixLength: prefix.Bits(),
			})
		}
		port.BGP = session
	}
	return port, nil
}

func bgpCreates(bgp *BGPSpec) int {
	if bgp == nil {
		return 0
	}
	return 1 + len(bgp.Routes)
}

func (p *Plan) add(name string, creates int, apply func(ctx context.Context, api topology.API, tx *txn.Transaction) error) {
	p.steps = append(p.steps, step{name: name, creates: creates, apply: apply})
}

// Count returns the number of remote creations a complete Apply performs.
func (p *Plan) Count() int {
	n := 0
	for _, s := range p.steps {
		n += s.creates
	}
	return n
}

// Steps returns the names of the top-level realizations in order.
func (p *Plan) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return names
}

// Router returns the router entity named "tenant/router", or nil.
func (p *Plan) Router(ref string) *topology.Router {
	return p.routers[ref]
}

// Apply realizes every step in order and stops at the first error. Every
// resource created up to that point is registered with tx.
func (p *Plan) Apply(ctx context.Context, api topology.API, tx *txn.Transaction) error {
	logger := logging.FromContext(ctx)

	for i, s := range p.steps {
		start := time.Now()
		if err := s.apply(ctx, api, tx); err != nil {
			logger.Error("Step failed",
				zap.String(logging.FieldOperation, s.name),
				zap.Int(logging.FieldIndex, i),
				zap.Error(err))
			return fmt.Errorf("%s: %w", s.name, err)
		}
		logger.Info("Step applied",
			zap.String(logging.FieldOperation, s.name),
			zap.Int("resources", s.creates),
			zap.Int64(logging.FieldDuration, time.Since(start).Milliseconds()))
	}
	return nil
}
