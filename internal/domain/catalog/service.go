package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
)

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

func authorize(scope tenancy.Scope, a tenancy.Action) error {
	if !scope.Can(a) {
		return apperr.Forbidden("role %q may not %s", scope.Role, a)
	}
	return nil
}

/* Items */

// UpsertItem creates the item when in.ID is zero, otherwise updates it in
// place. The sku must be unique within the tenant.
func (s *Service) UpsertItem(ctx context.Context, scope tenancy.Scope, in ItemInput) (*Item, error) {
	if err := authorize(scope, tenancy.ActWriteCatalog); err != nil {
		return nil, err
	}
	it := Item{
		ID:                in.ID,
		TenantID:          scope.TenantID,
		SKU:               strings.TrimSpace(in.SKU),
		Name:              strings.TrimSpace(in.Name),
		Unit:              strings.TrimSpace(in.Unit),
		Cost:              in.Cost,
		Price:             in.Price,
		MinStock:          in.MinStock,
		Category:          strings.TrimSpace(in.Category),
		DefaultSupplierID: in.DefaultSupplierID,
	}
	if it.Unit == "" {
		it.Unit = DefaultUnit
	}
	if err := validateItem(&it); err != nil {
		return nil, err
	}

	if it.DefaultSupplierID != nil {
		if _, err := s.store.GetSupplier(ctx, scope.TenantID, *it.DefaultSupplierID); err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.Wrap(apperr.KindValidation, err, "unknown default supplier %d", *it.DefaultSupplierID)
			}
			return nil, err
		}
	}

	now := s.now().UTC()
	it.UpdatedAt = now
	if it.ID == 0 {
		it.CreatedAt = now
		if err := s.store.CreateItem(ctx, &it); err != nil {
			return nil, err
		}
		s.log.Debug("item created", "tenant_id", it.TenantID, "item_id", it.ID, "sku", it.SKU)
		return &it, nil
	}
	if err := s.store.UpdateItem(ctx, &it); err != nil {
		return nil, err
	}
	s.log.Debug("item updated", "tenant_id", it.TenantID, "item_id", it.ID, "sku", it.SKU)
	return &it, nil
}

func validateItem(it *Item) error {
	if it.ID < 0 {
		return apperr.Validation("invalid item id %d", it.ID)
	}
	if it.SKU == "" {
		return apperr.Validation("sku is required")
	}
	if it.Name == "" {
		return apperr.Validation("name is required")
	}
	if it.Cost.IsNegative() {
		return apperr.Validation("cost cannot be negative")
	}
	if it.Price.IsNegative() {
		return apperr.Validation("price cannot be negative")
	}
	if it.MinStock.IsNegative() {
		return apperr.Validation("min stock cannot be negative")
	}
	return nil
}

func (s *Service) GetItem(ctx context.Context, scope tenancy.Scope, id int64) (*Item, error) {
	if err := authorize(scope, tenancy.ActRead); err != nil {
		return nil, err
	}
	return s.store.GetItem(ctx, scope.TenantID, id)
}

// DeleteItem removes the item. Items that still have movements cannot be
// deleted; the ledger keeps referring to them.
func (s *Service) DeleteItem(ctx context.Context, scope tenancy.Scope, id int64) error {
	if err := authorize(scope, tenancy.ActDeleteCatalog); err != nil {
		return err
	}
	if err := s.store.DeleteItem(ctx, scope.TenantID, id); err != nil {
		return err
	}
	s.log.Info("item deleted", "tenant_id", scope.TenantID, "item_id", id)
	return nil
}

// ListItems returns all items of the tenant ordered by name.
func (s *Service) ListItems(ctx context.Context, scope tenancy.Scope) ([]Item, error) {
	if err := authorize(scope, tenancy.ActRead); err != nil {
		return nil, err
	}
	return s.store.ListItems(ctx, scope.TenantID)
}

/* Suppliers */

// UpsertSupplier creates the supplier when in.ID is zero, otherwise updates
// it in place. Only the name is required.
func (s *Service) UpsertSupplier(ctx context.Context, scope tenancy.Scope, in SupplierInput) (*Supplier, error) {
	if err := authorize(scope, tenancy.ActWriteCatalog); err != nil {
		return nil, err
	}
	sp := Supplier{
		ID:       in.ID,
		TenantID: scope.TenantID,
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Phone:    strings.TrimSpace(in.Phone),
		Address:  strings.TrimSpace(in.Address),
	}
	if sp.ID < 0 {
		return nil, apperr.Validation("invalid supplier id %d", sp.ID)
	}
	if sp.Name == "" {
		return nil, apperr.Validation("supplier name is required")
	}

	now := s.now().UTC()
	sp.UpdatedAt = now
	if sp.ID == 0 {
		sp.CreatedAt = now
		if err := s.store.CreateSupplier(ctx, &sp); err != nil {
			return nil, err
		}
		s.log.Debug("supplier created", "tenant_id", sp.TenantID, "supplier_id", sp.ID, "name", sp.Name)
		return &sp, nil
	}
	if err := s.store.UpdateSupplier(ctx, &sp); err != nil {
		return nil, err
	}
	s.log.Debug("supplier updated", "tenant_id", sp.TenantID, "supplier_id", sp.ID, "name", sp.Name)
	return &sp, nil
}

// DeleteSupplier removes the supplier. Items pointing at it keep their
// default_supplier_id; readers treat it as unknown.
func (s *Service) DeleteSupplier(ctx context.Context, scope tenancy.Scope, id int64) error {
	if err := authorize(scope, tenancy.ActDeleteCatalog); err != nil {
		return err
	}
	if err := s.store.DeleteSupplier(ctx, scope.TenantID, id); err != nil {
		return err
	}
	s.log.Info("supplier deleted", "tenant_id", scope.TenantID, "supplier_id", id)
	return nil
}

func (s *Service) ListSuppliers(ctx context.Context, scope tenancy.Scope) ([]Supplier, error) {
	if err := authorize(scope, tenancy.ActRead); err != nil {
		return nil, err
	}
	return s.store.ListSuppliers(ctx, scope.TenantID)
}
