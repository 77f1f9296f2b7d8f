package topology

import (
	"context"

	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/txn"
)

// Chain is a rule chain. Routers reference chains as inbound and outbound
// filters; NAT rules are appended to them.
type Chain struct {
	resource

	Name     string
	TenantID string
}

func (c *Chain) Kind() models.Kind { return models.KindChain }

// Add realizes the chain. Chains have no children.
func (c *Chain) Add(ctx context.Context, api API, tx *txn.Transaction) error {
	if err := c.claim(models.KindChain, c.Name); err != nil {
		return err
	}
	return c.realize(ctx, api, tx, models.Chain{Name: c.Name, TenantID: c.TenantID})
}
