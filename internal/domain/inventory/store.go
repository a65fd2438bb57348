package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence port of the ledger. It only ever inserts
// movements; there is no update or delete.
type Store interface {
	// Atomically runs fn against a Store bound to a single serializable
	// transaction. Nested calls reuse the outer transaction.
	Atomically(ctx context.Context, fn func(Store) error) error

	// ItemRef returns apperr NotFound when the item is not in the tenant.
	ItemRef(ctx context.Context, tenantID uuid.UUID, itemID int64) (*ItemRef, error)
	// ItemRefs lists the tenant's items ordered by name.
	ItemRefs(ctx context.Context, tenantID uuid.UUID) ([]ItemRef, error)

	// Append inserts m and sets m.ID.
	Append(ctx context.Context, m *Movement) error
	// ItemMovements returns the item's log in insertion order, limited to
	// effective dates <= asOf when asOf is set.
	ItemMovements(ctx context.Context, tenantID uuid.UUID, itemID int64, asOf *time.Time) ([]Movement, error)
	// TenantMovements returns the whole log of the tenant.
	TenantMovements(ctx context.Context, tenantID uuid.UUID) ([]Movement, error)
	// ListMovements orders by effective date desc, then id desc.
	ListMovements(ctx context.Context, tenantID uuid.UUID, f MovementFilter) ([]MovementView, error)
}

// Notifier delivers human-readable stock alerts.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
