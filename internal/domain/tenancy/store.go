package tenancy

import (
	"context"

	"github.com/google/uuid"
)

// Store persists tenants and memberships. Lookups that find nothing return
// an apperr NotFound error.
type Store interface {
	CreateTenant(ctx context.Context, t *Tenant) error
	// CreateTenantWithOwner inserts t and owner in one transaction. A taken
	// name is an apperr Conflict.
	CreateTenantWithOwner(ctx context.Context, t *Tenant, owner *Membership) error
	GetTenantByName(ctx context.Context, name string) (*Tenant, error)
	UpsertMembership(ctx context.Context, m *Membership) error
	ListMemberships(ctx context.Context, userID string) ([]Membership, error)
	// ListMembers returns the memberships of one tenant ordered by user id.
	ListMembers(ctx context.Context, tenantID uuid.UUID) ([]Membership, error)
}

// NewID is swapped in tests that need deterministic tenant ids.
var NewID = uuid.New
