package topology

import (
	"context"

	"github.com/yaroslav/topoctl/models"
)

// API creates and deletes resources on the controller.
//
// Create returns the reference of the created resource. Delete removes the
// resource a reference points at. Implementations report controller
// rejections and transport failures as errors; timeouts and retries are
// their concern.
type API interface {
	Create(ctx context.Context, r models.Resource) (models.ResourceRef, error)
	Delete(ctx context.Context, ref models.ResourceRef) error
}

// Directory looks up tenants and hosts referenced by a topology.
// A nil handle with a nil error means the name is unknown.
type Directory interface {
	Tenant(ctx context.Context, name string) (*models.Tenant, error)
	Host(ctx context.Context, id string) (*models.Host, error)
}
