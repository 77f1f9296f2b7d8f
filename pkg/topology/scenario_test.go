package topology

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/txn"
)

var (
	scenarioHosts     = []string{"00000000-0000-0000-0000-000000000001", "00000000-0000-0000-0000-000000000002", "00000000-0000-0000-0000-000000000003"}
	scenarioAddresses = []string{"10.0.0.8", "10.0.0.9", "10.0.0.10"}
)

func mustPort(t *testing.T, cidr string) *RouterPort {
	t.Helper()
	port, err := NewRouterPort(cidr)
	require.NoError(t, err)
	return port
}

// buildMultiTenantNAT builds two tenants behind a provider router doing
// masquerade and floating IPs, with two BGP uplinks.
func buildMultiTenantNAT(t *testing.T, ctx context.Context, api API, tx *txn.Transaction) error {
	t.Helper()

	zone := &TunnelZone{Name: "zone0", Type: models.TunnelZoneGRE}
	var members []*TunnelZoneHost
	for i, h := range scenarioHosts {
		members = append(members, &TunnelZoneHost{HostID: h, IPAddress: scenarioAddresses[i]})
	}
	if err := zone.Add(ctx, api, tx, members...); err != nil {
		return err
	}

	bridge0 := &Bridge{Name: "bridge0", TenantID: "tenant0-id"}
	var veths []*HostInterface
	for _, h := range scenarioHosts {
		veths = append(veths, &HostInterface{HostID: h, Name: "veth0"})
	}
	if err := bridge0.Add(ctx, api, tx, veths...); err != nil {
		return err
	}

	in0 := &Chain{Name: "in", TenantID: "tenant0-id"}
	out0 := &Chain{Name: "out", TenantID: "tenant0-id"}
	for _, c := range []*Chain{in0, out0} {
		if err := c.Add(ctx, api, tx); err != nil {
			return err
		}
	}
	router0 := &Router{Name: "router0", TenantID: "tenant0-id", Inbound: in0, Outbound: out0}
	if err := router0.Add(ctx, api, tx, Link{Port: mustPort(t, "172.16.0.240/24"), Peer: bridge0}); err != nil {
		return err
	}

	in1 := &Chain{Name: "in", TenantID: "tenant1-id"}
	out1 := &Chain{Name: "out", TenantID: "tenant1-id"}
	for _, c := range []*Chain{in1, out1} {
		if err := c.Add(ctx, api, tx); err != nil {
			return err
		}
	}
	bridge1 := &Bridge{Name: "bridge0", TenantID: "tenant1-id"}
	if err := bridge1.Add(ctx, api, tx,
		&HostInterface{HostID: scenarioHosts[1], Name: "veth1"},
		&HostInterface{HostID: scenarioHosts[1], Name: "veth2"},
	); err != nil {
		return err
	}
	router1 := &Router{Name: "router0", TenantID: "tenant1-id", Inbound: in1, Outbound: out1}
	if err := router1.Add(ctx, api, tx, Link{Port: mustPort(t, "172.16.0.240/24"), Peer: bridge1}); err != nil {
		return err
	}

	uplink0 := mustPort(t, "169.254.255.2/30")
	uplink0.Rules = []Rule{
		&RuleMasq{SnatIP: "100.0.0.1"},
		&RuleFloatIP{FloatIP: "100.0.0.2", FixedIP: "172.16.0.2"},
		&RuleFloatIP{FloatIP: "100.0.0.3", FixedIP: "172.16.0.3"},
	}
	uplink1 := mustPort(t, "169.254.255.2/30")
	uplink1.Rules = []Rule{
		&RuleMasq{SnatIP: "100.0.1.1"},
		&RuleFloatIP{FloatIP: "100.0.1.2", FixedIP: "172.16.0.2"},
	}

	bgp0 := mustPort(t, "10.1.0.1/16")
	bgp0.BGP = &BGP{LocalAS: 64513, PeerAS: 64512, PeerAddr: "10.1.0.240",
		AdRoutes: []*AdRoute{{NwPrefix: "100.0.0.0", PrefixLength: 16}}}
	bgp1 := mustPort(t, "10.2.0.1/16")
	bgp1.BGP = &BGP{LocalAS: 64514, PeerAS: 64512, PeerAddr: "10.2.0.240",
		AdRoutes: []*AdRoute{{NwPrefix: "100.0.0.0", PrefixLength: 16}}}

	provider := &Router{Name: "router0", TenantID: "provider-id"}
	return provider.Add(ctx, api, tx,
		Link{Port: mustPort(t, "169.254.255.1/30"), Peer: RouterPeer{Router: router0, Port: uplink0}},
		Link{Port: mustPort(t, "169.254.255.1/30"), Peer: RouterPeer{Router: router1, Port: uplink1}},
		Link{Port: bgp0, Peer: &HostInterface{HostID: scenarioHosts[0], Name: "eth1"}},
		Link{Port: bgp1, Peer: &HostInterface{HostID: scenarioHosts[1], Name: "eth1"}},
	)
}

func kindsOf(refs []models.ResourceRef) []models.Kind {
	kinds := make([]models.Kind, len(refs))
	for i, ref := range refs {
		kinds[i] = ref.Kind
	}
	return kinds
}

func TestScenario_MultiTenantNAT(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	tx := txn.New(nil)

	require.NoError(t, buildMultiTenantNAT(t, ctx, api, tx))

	created := api.created()
	require.Len(t, created, 53)
	assert.Equal(t, 53, tx.Len())

	counts := make(map[models.Kind]int)
	for _, ref := range created {
		counts[ref.Kind]++
	}
	assert.Equal(t, map[models.Kind]int{
		models.KindTunnelZone:     1,
		models.KindTunnelZoneHost: 3,
		models.KindBridge:         2,
		models.KindBridgePort:     7,
		models.KindHostBinding:    7,
		models.KindChain:          4,
		models.KindRouter:         3,
		models.KindRouterPort:     8,
		models.KindPortLink:       4,
		models.KindRule:           10,
		models.KindBGP:            2,
		models.KindAdRoute:        2,
	}, counts)

	// Provider link to tenant0: local port, tenant uplink, its six rules, link.
	assert.Equal(t, []models.Kind{
		models.KindRouter,
		models.KindRouterPort,
		models.KindRouterPort,
		models.KindRule, models.KindRule, models.KindRule,
		models.KindRule, models.KindRule, models.KindRule,
		models.KindPortLink,
	}, kindsOf(created[28:38]))

	// Rules land in tenant0's chains.
	rules := api.payloads(models.KindRule)
	for _, r := range rules[:6] {
		chainID := r.(models.Rule).ChainID
		assert.Contains(t, []string{"chain-1", "chain-2"}, chainID)
	}
	for _, r := range rules[6:] {
		chainID := r.(models.Rule).ChainID
		assert.Contains(t, []string{"chain-3", "chain-4"}, chainID)
	}

	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, reversed(created), api.deleted())
	assert.Empty(t, api.live)
}

func TestScenario_FailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.failNth(models.KindBGP, 2)
	tx := txn.New(nil)

	err := buildMultiTenantNAT(t, ctx, api, tx)

	var realizationErr *RealizationError
	require.ErrorAs(t, err, &realizationErr)
	assert.Equal(t, models.KindBGP, realizationErr.Kind)

	created := api.created()
	// Everything up to and including the second BGP port.
	assert.Len(t, created, 50)
	assert.Equal(t, len(created), tx.Len())

	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, reversed(created), api.deleted())
	assert.Empty(t, api.live)
	assert.Equal(t, txn.StateRolledBack, tx.State())
}
