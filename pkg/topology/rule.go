package topology

import (
	"context"
	"fmt"

	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/txn"
)

// Rule is a NAT intent attached to a router port. It expands into one or
// more controller rules placed in the router's inbound and outbound chains.
type Rule interface {
	// Expand maps the intent to controller rules for the given chains and
	// port. It has no side effects.
	Expand(inChainID, outChainID, portID string) ([]models.Rule, error)

	// Realized reports whether the expanded rules were created.
	Realized() bool

	add(ctx context.Context, api API, tx *txn.Transaction, router *Router, port *RouterPort) error
}

// ruleSet holds the references of the rules an intent expanded into.
type ruleSet struct {
	refs []models.ResourceRef
}

func (s *ruleSet) Realized() bool { return len(s.refs) > 0 }

// IDs returns the identifiers of the created rules in creation order.
func (s *ruleSet) IDs() []string {
	ids := make([]string, len(s.refs))
	for i, ref := range s.refs {
		ids[i] = ref.ID
	}
	return ids
}

func (s *ruleSet) createRules(ctx context.Context, api API, tx *txn.Transaction, r Rule, router *Router, port *RouterPort) error {
	if s.Realized() {
		return fmt.Errorf("%w: rule on port %s", ErrAlreadyRealized, port.ID())
	}
	if !router.HasChains() {
		return fmt.Errorf("router %q: %w", router.Name, ErrMissingChain)
	}
	if err := requireRealized(router.Inbound, "inbound chain"); err != nil {
		return err
	}
	if err := requireRealized(router.Outbound, "outbound chain"); err != nil {
		return err
	}
	if err := requireRealized(port, "router port"); err != nil {
		return err
	}

	rules, err := r.Expand(router.Inbound.ID(), router.Outbound.ID(), port.ID())
	if err != nil {
		return err
	}
	for _, rule := range rules {
		ref, err := create(ctx, api, tx, rule)
		if err != nil {
			return err
		}
		s.refs = append(s.refs, ref)
	}
	return nil
}

// RuleMasq masquerades traffic leaving through the port behind SnatIP.
type RuleMasq struct {
	ruleSet

	SnatIP string
}

// Expand returns a source NAT rule for outgoing traffic and the matching
// reverse rule for replies.
func (m *RuleMasq) Expand(inChainID, outChainID, portID string) ([]models.Rule, error) {
	snat, err := parseIPv4(m.SnatIP)
	if err != nil {
		return nil, fmt.Errorf("masquerade: %w", err)
	}
	addr := snat.String()

	return []models.Rule{
		{
			ChainID:    outChainID,
			Type:       models.RuleTypeSNAT,
			FlowAction: models.FlowActionAccept,
			OutPorts:   []string{portID},
			NatTargets: []models.NatTarget{{
				AddressFrom: addr,
				AddressTo:   addr,
				PortFrom:    1,
				PortTo:      65535,
			}},
		},
		{
			ChainID:      inChainID,
			Type:         models.RuleTypeRevSNAT,
			FlowAction:   models.FlowActionAccept,
			InPorts:      []string{portID},
			NwDstAddress: addr,
			NwDstLength:  32,
		},
	}, nil
}

func (m *RuleMasq) add(ctx context.Context, api API, tx *txn.Transaction, router *Router, port *RouterPort) error {
	return m.createRules(ctx, api, tx, m, router, port)
}

// RuleFloatIP maps the public FloatIP to the private FixedIP behind the port.
type RuleFloatIP struct {
	ruleSet

	FloatIP string
	FixedIP string
}

// Expand returns a destination NAT rule for incoming traffic to the
// floating address and a source NAT rule for traffic from the fixed
// address.
func (f *RuleFloatIP) Expand(inChainID, outChainID, portID string) ([]models.Rule, error) {
	float, err := parseIPv4(f.FloatIP)
	if err != nil {
		return nil, fmt.Errorf("floating ip: %w", err)
	}
	fixed, err := parseIPv4(f.FixedIP)
	if err != nil {
		return nil, fmt.Errorf("fixed ip: %w", err)
	}

	return []models.Rule{
		{
			ChainID:      inChainID,
			Type:         models.RuleTypeDNAT,
			FlowAction:   models.FlowActionAccept,
			InPorts:      []string{portID},
			NwDstAddress: float.String(),
			NwDstLength:  32,
			NatTargets: []models.NatTarget{{
				AddressFrom: fixed.String(),
				AddressTo:   fixed.String(),
			}},
		},
		{
			ChainID:      outChainID,
			Type:         models.RuleTypeSNAT,
			FlowAction:   models.FlowActionAccept,
			OutPorts:     []string{portID},
			NwSrcAddress: fixed.String(),
			NwSrcLength:  32,
			NatTargets: []models.NatTarget{{
				AddressFrom: float.String(),
				AddressTo:   float.String(),
			}},
		},
	}, nil
}

func (f *RuleFloatIP) add(ctx context.Context, api API, tx *txn.Transaction, router *Router, port *RouterPort) error {
	return f.createRules(ctx, api, tx, f, router, port)
}
