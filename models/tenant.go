package models

// Tenant represents an organization owning virtual network resources.
// Tenants are managed outside the controller (by the identity service);
// the controller only exposes them for lookup by name.
type Tenant struct {
	// ID is the unique identifier of the tenant
	ID string `json:"id"`

	// Name is the human-readable tenant name (e.g., "tenant0")
	Name string `json:"name"`
}

// Host represents a physical machine running the controller's agent.
// Hosts register themselves; the builder only looks them up by ID.
type Host struct {
	// ID is the host UUID written by the agent on first start
	ID string `json:"id"`

	// Name is the host name reported by the agent
	Name string `json:"name"`

	// Alive indicates whether the agent is currently connected
	Alive bool `json:"alive"`
}

// TenantListResponse represents the response for a tenant lookup.
type TenantListResponse struct {
	// Tenants is the list of tenants matching the query
	Tenants []Tenant `json:"tenants"`
}
