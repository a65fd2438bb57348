package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence port of the catalog. Every method is scoped by
// tenant; rows belonging to other tenants behave as if they did not exist.
//
// CreateItem/UpdateItem report a duplicate sku as apperr Conflict, UpdateItem
// and the Get/Delete methods report a missing row as apperr NotFound, and
// DeleteItem reports referencing movements as apperr Conflict.
type Store interface {
	CreateItem(ctx context.Context, it *Item) error
	UpdateItem(ctx context.Context, it *Item) error
	GetItem(ctx context.Context, tenantID uuid.UUID, id int64) (*Item, error)
	DeleteItem(ctx context.Context, tenantID uuid.UUID, id int64) error
	ListItems(ctx context.Context, tenantID uuid.UUID) ([]Item, error)

	CreateSupplier(ctx context.Context, s *Supplier) error
	UpdateSupplier(ctx context.Context, s *Supplier) error
	GetSupplier(ctx context.Context, tenantID uuid.UUID, id int64) (*Supplier, error)
	DeleteSupplier(ctx context.Context, tenantID uuid.UUID, id int64) error
	ListSuppliers(ctx context.Context, tenantID uuid.UUID) ([]Supplier, error)
}
