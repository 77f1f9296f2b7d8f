package runner

import (
	"context"

	"github.com/yaroslav/topoctl/internal/metrics"
	"github.com/yaroslav/topoctl/models"
	"github.com/yaroslav/topoctl/pkg/topology"
)

// instrumentedAPI counts creations and undo deletions.
type instrumentedAPI struct {
	api topology.API
}

func (a *instrumentedAPI) Create(ctx context.Context, r models.Resource) (models.ResourceRef, error) {
	ref, err := a.api.Create(ctx, r)
	if err == nil {
		metrics.ResourcesCreated.WithLabelValues(string(r.Kind())).Inc()
	}
	return ref, err
}

func (a *instrumentedAPI) Delete(ctx context.Context, ref models.ResourceRef) error {
	err := a.api.Delete(ctx, ref)
	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.ResourcesRolledBack.WithLabelValues(status).Inc()
	return err
}
