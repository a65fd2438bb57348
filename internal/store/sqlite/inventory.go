package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/inventory"
)

// InventoryStore keeps the movement log. q is the database itself or, inside
// Atomically, the open transaction.
type InventoryStore struct {
	db   *sqlx.DB
	q    querier
	inTx bool
}

// Atomically relies on _txlock=immediate: the write lock is taken at BEGIN,
// which serializes concurrent read-fold-append sequences.
func (s *InventoryStore) Atomically(ctx context.Context, fn func(inventory.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&InventoryStore{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}
	return translate("commit", tx.Commit())
}

type itemRefRow struct {
	ID       int64           `db:"id"`
	SKU      string          `db:"sku"`
	Name     string          `db:"name"`
	Unit     string          `db:"unit"`
	MinStock decimal.Decimal `db:"min_stock"`
	Category string          `db:"category"`
	Supplier sql.NullString  `db:"supplier"`
}

func (r itemRefRow) ref() inventory.ItemRef {
	return inventory.ItemRef{
		ID:       r.ID,
		SKU:      r.SKU,
		Name:     r.Name,
		Unit:     r.Unit,
		MinStock: r.MinStock,
		Category: r.Category,
		Supplier: r.Supplier.String,
	}
}

const itemRefQuery = `
	SELECT i.id, i.sku, i.name, i.unit, i.min_stock, i.category, s.name AS supplier
	FROM items i
	LEFT JOIN suppliers s ON s.id = i.default_supplier_id AND s.tenant_id = i.tenant_id
	WHERE i.tenant_id = ?`

func (s *InventoryStore) ItemRef(ctx context.Context, tenantID uuid.UUID, itemID int64) (*inventory.ItemRef, error) {
	var r itemRefRow
	err := s.q.GetContext(ctx, &r, itemRefQuery+` AND i.id = ?`, tenantID, itemID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("item %d not found", itemID)
	}
	if err != nil {
		return nil, translate("get item", err)
	}
	ref := r.ref()
	return &ref, nil
}

func (s *InventoryStore) ItemRefs(ctx context.Context, tenantID uuid.UUID) ([]inventory.ItemRef, error) {
	var rows []itemRefRow
	if err := s.q.SelectContext(ctx, &rows, itemRefQuery+` ORDER BY i.name, i.id`, tenantID); err != nil {
		return nil, translate("list items", err)
	}
	out := make([]inventory.ItemRef, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ref())
	}
	return out, nil
}

type movementRow struct {
	ID          int64               `db:"id"`
	TenantID    uuid.UUID           `db:"tenant_id"`
	ItemID      int64               `db:"item_id"`
	Kind        string              `db:"kind"`
	Qty         decimal.Decimal     `db:"qty"`
	UnitCost    decimal.NullDecimal `db:"unit_cost"`
	Ref         string              `db:"ref"`
	Note        string              `db:"note"`
	FromLoc     string              `db:"from_location"`
	ToLoc       string              `db:"to_location"`
	EffectiveAt stamp               `db:"effective_at"`
	CreatedAt   stamp               `db:"created_at"`
	CreatedBy   string              `db:"created_by"`
}

func (r movementRow) movement() inventory.Movement {
	return inventory.Movement{
		ID:          r.ID,
		TenantID:    r.TenantID,
		ItemID:      r.ItemID,
		Kind:        inventory.Kind(r.Kind),
		Qty:         r.Qty,
		UnitCost:    r.UnitCost,
		Ref:         r.Ref,
		Note:        r.Note,
		FromLoc:     r.FromLoc,
		ToLoc:       r.ToLoc,
		EffectiveAt: r.EffectiveAt.Time(),
		CreatedAt:   r.CreatedAt.Time(),
		CreatedBy:   r.CreatedBy,
	}
}

const movementColumns = `m.id, m.tenant_id, m.item_id, m.kind, m.qty, m.unit_cost, m.ref, m.note,
	m.from_location, m.to_location, m.effective_at, m.created_at, m.created_by`

func (s *InventoryStore) Append(ctx context.Context, m *inventory.Movement) error {
	err := s.q.GetContext(ctx, &m.ID, `
		INSERT INTO movements (tenant_id, item_id, kind, qty, unit_cost, ref, note,
			from_location, to_location, effective_at, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`, m.TenantID, m.ItemID, string(m.Kind), m.Qty, m.UnitCost, m.Ref, m.Note,
		m.FromLoc, m.ToLoc, stamp(m.EffectiveAt), stamp(m.CreatedAt), m.CreatedBy)
	return translate("append movement", err)
}

func (s *InventoryStore) selectMovements(ctx context.Context, query string, args ...any) ([]inventory.Movement, error) {
	var rows []movementRow
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate("read movements", err)
	}
	out := make([]inventory.Movement, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.movement())
	}
	return out, nil
}

func (s *InventoryStore) ItemMovements(ctx context.Context, tenantID uuid.UUID, itemID int64, asOf *time.Time) ([]inventory.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements m WHERE m.tenant_id = ? AND m.item_id = ?`
	args := []any{tenantID, itemID}
	if asOf != nil {
		query += ` AND m.effective_at <= ?`
		args = append(args, stamp(*asOf))
	}
	return s.selectMovements(ctx, query+` ORDER BY m.id`, args...)
}

func (s *InventoryStore) TenantMovements(ctx context.Context, tenantID uuid.UUID) ([]inventory.Movement, error) {
	return s.selectMovements(ctx, `
		SELECT `+movementColumns+` FROM movements m WHERE m.tenant_id = ? ORDER BY m.id
	`, tenantID)
}

type movementViewRow struct {
	movementRow
	SKU      string `db:"sku"`
	ItemName string `db:"item_name"`
	Unit     string `db:"unit"`
}

func (s *InventoryStore) ListMovements(ctx context.Context, tenantID uuid.UUID, f inventory.MovementFilter) ([]inventory.MovementView, error) {
	var (
		where = []string{"m.tenant_id = ?"}
		args  = []any{tenantID}
	)
	if f.ItemID != 0 {
		where = append(where, "m.item_id = ?")
		args = append(args, f.ItemID)
	}
	if f.Kind != "" {
		where = append(where, "m.kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.From != nil {
		where = append(where, "m.effective_at >= ?")
		args = append(args, stamp(*f.From))
	}
	if f.To != nil {
		where = append(where, "m.effective_at <= ?")
		args = append(args, stamp(*f.To))
	}

	query := `
		SELECT ` + movementColumns + `, i.sku, i.name AS item_name, i.unit
		FROM movements m
		JOIN items i ON i.id = m.item_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY m.effective_at DESC, m.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	var rows []movementViewRow
	if err := s.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, translate("list movements", err)
	}
	out := make([]inventory.MovementView, 0, len(rows))
	for _, r := range rows {
		out = append(out, inventory.MovementView{
			Movement: r.movement(),
			SKU:      r.SKU,
			ItemName: r.ItemName,
			Unit:     r.Unit,
		})
	}
	return out, nil
}
