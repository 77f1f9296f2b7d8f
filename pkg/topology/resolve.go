package topology

import (
	"context"

	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/internal/logging"
	"github.com/yaroslav/topoctl/models"
)

// ResolveTenants maps each tenant name to its identifier. The first name
// that cannot be resolved aborts with a *ResolutionError.
func ResolveTenants(ctx context.Context, dir Directory, names []string) (map[string]string, error) {
	ids := make(map[string]string, len(names))
	for _, name := range names {
		if _, ok := ids[name]; ok {
			continue
		}
		tenant, err := dir.Tenant(ctx, name)
		if err != nil {
			return nil, &ResolutionError{Kind: "tenant", Name: name, Err: err}
		}
		if tenant == nil {
			return nil, &ResolutionError{Kind: "tenant", Name: name, Err: models.ErrTenantNotFound}
		}
		logging.FromContext(ctx).Debug("Resolved tenant",
			zap.String(logging.FieldTenant, name),
			zap.String(logging.FieldTenantID, tenant.ID))
		ids[name] = tenant.ID
	}
	return ids, nil
}

// ResolveHosts checks that every host identifier is known to the
// controller and returns the host handles keyed by identifier.
func ResolveHosts(ctx context.Context, dir Directory, ids []string) (map[string]*models.Host, error) {
	hosts := make(map[string]*models.Host, len(ids))
	for _, id := range ids {
		if _, ok := hosts[id]; ok {
			continue
		}
		host, err := dir.Host(ctx, id)
		if err != nil {
			return nil, &ResolutionError{Kind: "host", Name: id, Err: err}
		}
		if host == nil {
			return nil, &ResolutionError{Kind: "host", Name: id, Err: models.ErrHostNotFound}
		}
		if !host.Alive {
			logging.FromContext(ctx).Warn("Host agent is not alive",
				zap.String(logging.FieldHostID, id))
		}
		hosts[id] = host
	}
	return hosts, nil
}
