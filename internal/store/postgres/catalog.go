package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/catalog"
)

type CatalogStore struct{ pool *pgxpool.Pool }

const itemColumns = `id, tenant_id, sku, name, unit, cost, price, min_stock, category,
	default_supplier_id, created_at, updated_at`

func scanItem(row pgx.Row) (*catalog.Item, error) {
	var it catalog.Item
	if err := row.Scan(
		&it.ID,
		&it.TenantID,
		&it.SKU,
		&it.Name,
		&it.Unit,
		&it.Cost,
		&it.Price,
		&it.MinStock,
		&it.Category,
		&it.DefaultSupplierID,
		&it.CreatedAt,
		&it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return &it, nil
}

const supplierColumns = `id, tenant_id, name, email, phone, address, created_at, updated_at`

func scanSupplier(row pgx.Row) (*catalog.Supplier, error) {
	var sp catalog.Supplier
	if err := row.Scan(&sp.ID, &sp.TenantID, &sp.Name, &sp.Email, &sp.Phone, &sp.Address, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
		return nil, err
	}
	sp.CreatedAt = sp.CreatedAt.UTC()
	sp.UpdatedAt = sp.UpdatedAt.UTC()
	return &sp, nil
}

/* Items */

func (s *CatalogStore) CreateItem(ctx context.Context, it *catalog.Item) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO items (tenant_id, sku, name, unit, cost, price, min_stock, category,
			default_supplier_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id
	`, it.TenantID, it.SKU, it.Name, it.Unit, it.Cost, it.Price, it.MinStock, it.Category,
		it.DefaultSupplierID, it.CreatedAt, it.UpdatedAt).Scan(&it.ID)
	if isUnique(err) {
		return apperr.Conflict("sku %q already exists", it.SKU)
	}
	return translate("create item", err)
}

// UpdateItem relies on items_tenant_sku_key: a row never collides with
// itself, so only a foreign sku raises the unique violation.
func (s *CatalogStore) UpdateItem(ctx context.Context, it *catalog.Item) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE items SET
			sku=$3, name=$4, unit=$5, cost=$6, price=$7, min_stock=$8, category=$9,
			default_supplier_id=$10, updated_at=$11
		WHERE id=$1 AND tenant_id=$2
		RETURNING created_at
	`, it.ID, it.TenantID, it.SKU, it.Name, it.Unit, it.Cost, it.Price, it.MinStock, it.Category,
		it.DefaultSupplierID, it.UpdatedAt).Scan(&it.CreatedAt)
	switch {
	case isUnique(err):
		return apperr.Conflict("sku %q already exists", it.SKU)
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.NotFound("item %d not found", it.ID)
	case err != nil:
		return translate("update item", err)
	}
	it.CreatedAt = it.CreatedAt.UTC()
	return nil
}

func (s *CatalogStore) GetItem(ctx context.Context, tenantID uuid.UUID, id int64) (*catalog.Item, error) {
	it, err := scanItem(s.pool.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM items WHERE id=$1 AND tenant_id=$2
	`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("item %d not found", id)
	}
	if err != nil {
		return nil, translate("get item", err)
	}
	return it, nil
}

// DeleteItem refuses while movements reference the item; the RESTRICT
// foreign key backs the check up.
func (s *CatalogStore) DeleteItem(ctx context.Context, tenantID uuid.UUID, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return translate("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var refs int
	if err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM movements WHERE item_id=$1 AND tenant_id=$2
	`, id, tenantID).Scan(&refs); err != nil {
		return translate("count movements", err)
	}
	if refs > 0 {
		return apperr.Conflict("item %d has %d movements and cannot be deleted", id, refs)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM items WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	if isForeignKey(err) {
		return apperr.Conflict("item %d has movements and cannot be deleted", id)
	}
	if err != nil {
		return translate("delete item", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("item %d not found", id)
	}
	return translate("commit", tx.Commit(ctx))
}

func (s *CatalogStore) ListItems(ctx context.Context, tenantID uuid.UUID) ([]catalog.Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+itemColumns+` FROM items WHERE tenant_id=$1 ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, translate("list items", err)
	}
	defer rows.Close()

	out := []catalog.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, translate("scan item", err)
		}
		out = append(out, *it)
	}
	return out, translate("list items", rows.Err())
}

/* Suppliers */

func (s *CatalogStore) CreateSupplier(ctx context.Context, sp *catalog.Supplier) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (tenant_id, name, email, phone, address, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, sp.TenantID, sp.Name, sp.Email, sp.Phone, sp.Address, sp.CreatedAt, sp.UpdatedAt).Scan(&sp.ID)
	return translate("create supplier", err)
}

func (s *CatalogStore) UpdateSupplier(ctx context.Context, sp *catalog.Supplier) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE suppliers SET name=$3, email=$4, phone=$5, address=$6, updated_at=$7
		WHERE id=$1 AND tenant_id=$2
		RETURNING created_at
	`, sp.ID, sp.TenantID, sp.Name, sp.Email, sp.Phone, sp.Address, sp.UpdatedAt).Scan(&sp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("supplier %d not found", sp.ID)
	}
	if err != nil {
		return translate("update supplier", err)
	}
	sp.CreatedAt = sp.CreatedAt.UTC()
	return nil
}

func (s *CatalogStore) GetSupplier(ctx context.Context, tenantID uuid.UUID, id int64) (*catalog.Supplier, error) {
	sp, err := scanSupplier(s.pool.QueryRow(ctx, `
		SELECT `+supplierColumns+` FROM suppliers WHERE id=$1 AND tenant_id=$2
	`, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("supplier %d not found", id)
	}
	if err != nil {
		return nil, translate("get supplier", err)
	}
	return sp, nil
}

// DeleteSupplier leaves items.default_supplier_id untouched.
func (s *CatalogStore) DeleteSupplier(ctx context.Context, tenantID uuid.UUID, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM suppliers WHERE id=$1 AND tenant_id=$2`, id, tenantID)
	if err != nil {
		return translate("delete supplier", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("supplier %d not found", id)
	}
	return nil
}

func (s *CatalogStore) ListSuppliers(ctx context.Context, tenantID uuid.UUID) ([]catalog.Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+supplierColumns+` FROM suppliers WHERE tenant_id=$1 ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, translate("list suppliers", err)
	}
	defer rows.Close()

	out := []catalog.Supplier{}
	for rows.Next() {
		sp, err := scanSupplier(rows)
		if err != nil {
			return nil, translate("scan supplier", err)
		}
		out = append(out, *sp)
	}
	return out, translate("list suppliers", rows.Err())
}
