package runner

import (
	"context"
	"fmt"

	"github.com/yaroslav/topoctl/internal/logging"
	"github.com/yaroslav/topoctl/pkg/blueprint"
	"github.com/yaroslav/topoctl/pkg/topology"
)

// Report describes what applying a blueprint would do.
type Report struct {
	// TenantIDs maps tenant names to controller identifiers.
	TenantIDs map[string]string

	// DeadHosts lists hosts whose agent is not alive.
	DeadHosts []string

	// Steps names the top-level realizations in order.
	Steps []string

	// Resources is the number of creations a complete apply performs.
	Resources int
}

// Check loads the blueprint and resolves everything it references without
// creating anything.
func (r *Runner) Check(ctx context.Context, path string) (*Report, error) {
	bp, err := blueprint.Load(path)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithComponent(logging.WithLogger(ctx, r.logger), "check")

	tenantIDs, err := topology.ResolveTenants(ctx, r.ctrl, bp.Tenants())
	if err != nil {
		return nil, err
	}
	hosts, err := topology.ResolveHosts(ctx, r.ctrl, bp.HostIDs())
	if err != nil {
		return nil, err
	}

	plan, err := bp.Build(tenantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to plan: %w", err)
	}

	report := &Report{
		TenantIDs: tenantIDs,
		Steps:     plan.Steps(),
		Resources: plan.Count(),
	}
	for _, id := range bp.HostIDs() {
		if !hosts[id].Alive {
			report.DeadHosts = append(report.DeadHosts, id)
		}
	}
	return report, nil
}
