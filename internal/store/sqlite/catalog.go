package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/catalog"
)

type CatalogStore struct{ db *sqlx.DB }

type itemRow struct {
	ID                int64           `db:"id"`
	TenantID          uuid.UUID       `db:"tenant_id"`
	SKU               string          `db:"sku"`
	Name              string          `db:"name"`
	Unit              string          `db:"unit"`
	Cost              decimal.Decimal `db:"cost"`
	Price             decimal.Decimal `db:"price"`
	MinStock          decimal.Decimal `db:"min_stock"`
	Category          string          `db:"category"`
	DefaultSupplierID sql.NullInt64   `db:"default_supplier_id"`
	CreatedAt         stamp           `db:"created_at"`
	UpdatedAt         stamp           `db:"updated_at"`
}

func (r itemRow) item() catalog.Item {
	it := catalog.Item{
		ID:        r.ID,
		TenantID:  r.TenantID,
		SKU:       r.SKU,
		Name:      r.Name,
		Unit:      r.Unit,
		Cost:      r.Cost,
		Price:     r.Price,
		MinStock:  r.MinStock,
		Category:  r.Category,
		CreatedAt: r.CreatedAt.Time(),
		UpdatedAt: r.UpdatedAt.Time(),
	}
	if r.DefaultSupplierID.Valid {
		id := r.DefaultSupplierID.Int64
		it.DefaultSupplierID = &id
	}
	return it
}

type supplierRow struct {
	ID        int64     `db:"id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Address   string    `db:"address"`
	CreatedAt stamp     `db:"created_at"`
	UpdatedAt stamp     `db:"updated_at"`
}

func (r supplierRow) supplier() catalog.Supplier {
	return catalog.Supplier{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Address:   r.Address,
		CreatedAt: r.CreatedAt.Time(),
		UpdatedAt: r.UpdatedAt.Time(),
	}
}

const itemColumns = `id, tenant_id, sku, name, unit, cost, price, min_stock, category,
	default_supplier_id, created_at, updated_at`

const supplierColumns = `id, tenant_id, name, email, phone, address, created_at, updated_at`

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

/* Items */

// skuTaken reports whether another item of the tenant (id != exceptID)
// already uses sku. The UNIQUE constraint stays the final word.
func skuTaken(ctx context.Context, q querier, tenantID uuid.UUID, sku string, exceptID int64) (bool, error) {
	var n int
	err := q.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM items WHERE tenant_id = ? AND sku = ? AND id <> ?
	`, tenantID, sku, exceptID)
	return n > 0, translate("check sku", err)
}

func (s *CatalogStore) CreateItem(ctx context.Context, it *catalog.Item) error {
	taken, err := skuTaken(ctx, s.db, it.TenantID, it.SKU, 0)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("sku %q already exists", it.SKU)
	}

	err = s.db.GetContext(ctx, &it.ID, `
		INSERT INTO items (tenant_id, sku, name, unit, cost, price, min_stock, category,
			default_supplier_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, it.TenantID, it.SKU, it.Name, it.Unit, it.Cost, it.Price, it.MinStock, it.Category,
		nullID(it.DefaultSupplierID), stamp(it.CreatedAt), stamp(it.UpdatedAt))
	if isUnique(err) {
		return apperr.Conflict("sku %q already exists", it.SKU)
	}
	return translate("create item", err)
}

func (s *CatalogStore) UpdateItem(ctx context.Context, it *catalog.Item) error {
	taken, err := skuTaken(ctx, s.db, it.TenantID, it.SKU, it.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("sku %q already exists", it.SKU)
	}

	var created stamp
	err = s.db.GetContext(ctx, &created, `
		UPDATE items SET
			sku = ?, name = ?, unit = ?, cost = ?, price = ?, min_stock = ?, category = ?,
			default_supplier_id = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
		RETURNING created_at
	`, it.SKU, it.Name, it.Unit, it.Cost, it.Price, it.MinStock, it.Category,
		nullID(it.DefaultSupplierID), stamp(it.UpdatedAt), it.ID, it.TenantID)
	switch {
	case isUnique(err):
		return apperr.Conflict("sku %q already exists", it.SKU)
	case err == sql.ErrNoRows:
		return apperr.NotFound("item %d not found", it.ID)
	case err != nil:
		return translate("update item", err)
	}
	it.CreatedAt = created.Time()
	return nil
}

func (s *CatalogStore) GetItem(ctx context.Context, tenantID uuid.UUID, id int64) (*catalog.Item, error) {
	var r itemRow
	err := s.db.GetContext(ctx, &r, `SELECT `+itemColumns+` FROM items WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("item %d not found", id)
	}
	if err != nil {
		return nil, translate("get item", err)
	}
	it := r.item()
	return &it, nil
}

// DeleteItem refuses while movements reference the item.
func (s *CatalogStore) DeleteItem(ctx context.Context, tenantID uuid.UUID, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	var refs int
	if err := tx.GetContext(ctx, &refs, `SELECT COUNT(*) FROM movements WHERE item_id = ? AND tenant_id = ?`, id, tenantID); err != nil {
		return translate("count movements", err)
	}
	if refs > 0 {
		return apperr.Conflict("item %d has %d movements and cannot be deleted", id, refs)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return translate("delete item", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("item %d not found", id)
	}
	return translate("commit", tx.Commit())
}

func (s *CatalogStore) ListItems(ctx context.Context, tenantID uuid.UUID) ([]catalog.Item, error) {
	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+itemColumns+` FROM items WHERE tenant_id = ? ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, translate("list items", err)
	}
	out := make([]catalog.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.item())
	}
	return out, nil
}

/* Suppliers */

func (s *CatalogStore) CreateSupplier(ctx context.Context, sp *catalog.Supplier) error {
	err := s.db.GetContext(ctx, &sp.ID, `
		INSERT INTO suppliers (tenant_id, name, email, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, sp.TenantID, sp.Name, sp.Email, sp.Phone, sp.Address, stamp(sp.CreatedAt), stamp(sp.UpdatedAt))
	return translate("create supplier", err)
}

func (s *CatalogStore) UpdateSupplier(ctx context.Context, sp *catalog.Supplier) error {
	var created stamp
	err := s.db.GetContext(ctx, &created, `
		UPDATE suppliers SET name = ?, email = ?, phone = ?, address = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
		RETURNING created_at
	`, sp.Name, sp.Email, sp.Phone, sp.Address, stamp(sp.UpdatedAt), sp.ID, sp.TenantID)
	if err == sql.ErrNoRows {
		return apperr.NotFound("supplier %d not found", sp.ID)
	}
	if err != nil {
		return translate("update supplier", err)
	}
	sp.CreatedAt = created.Time()
	return nil
}

func (s *CatalogStore) GetSupplier(ctx context.Context, tenantID uuid.UUID, id int64) (*catalog.Supplier, error) {
	var r supplierRow
	err := s.db.GetContext(ctx, &r, `SELECT `+supplierColumns+` FROM suppliers WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("supplier %d not found", id)
	}
	if err != nil {
		return nil, translate("get supplier", err)
	}
	sp := r.supplier()
	return &sp, nil
}

// DeleteSupplier leaves items.default_supplier_id untouched.
func (s *CatalogStore) DeleteSupplier(ctx context.Context, tenantID uuid.UUID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return translate("delete supplier", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("supplier %d not found", id)
	}
	return nil
}

func (s *CatalogStore) ListSuppliers(ctx context.Context, tenantID uuid.UUID) ([]catalog.Supplier, error) {
	var rows []supplierRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+supplierColumns+` FROM suppliers WHERE tenant_id = ? ORDER BY name, id
	`, tenantID)
	if err != nil {
		return nil, translate("list suppliers", err)
	}
	out := make([]catalog.Supplier, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.supplier())
	}
	return out, nil
}
