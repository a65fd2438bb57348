package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/inventory"
)

// InventoryStore keeps the movement log. q is the pool or, inside
// Atomically, the open transaction.
type InventoryStore struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// Atomically runs fn in a SERIALIZABLE transaction. A serialization
// failure surfaces as apperr Conflict.
func (s *InventoryStore) Atomically(ctx context.Context, fn func(inventory.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return translate("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&InventoryStore{pool: s.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	return translate("commit", tx.Commit(ctx))
}

const itemRefQuery = `
	SELECT i.id, i.sku, i.name, i.unit, i.min_stock, i.category, COALESCE(s.name,'')
	FROM items i
	LEFT JOIN suppliers s ON s.id = i.default_supplier_id AND s.tenant_id = i.tenant_id
	WHERE i.tenant_id = $1`

func scanItemRef(row pgx.Row) (inventory.ItemRef, error) {
	var r inventory.ItemRef
	err := row.Scan(&r.ID, &r.SKU, &r.Name, &r.Unit, &r.MinStock, &r.Category, &r.Supplier)
	return r, err
}

func (s *InventoryStore) ItemRef(ctx context.Context, tenantID uuid.UUID, itemID int64) (*inventory.ItemRef, error) {
	r, err := scanItemRef(s.q.QueryRow(ctx, itemRefQuery+` AND i.id = $2`, tenantID, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("item %d not found", itemID)
	}
	if err != nil {
		return nil, translate("get item", err)
	}
	return &r, nil
}

func (s *InventoryStore) ItemRefs(ctx context.Context, tenantID uuid.UUID) ([]inventory.ItemRef, error) {
	rows, err := s.q.Query(ctx, itemRefQuery+` ORDER BY i.name, i.id`, tenantID)
	if err != nil {
		return nil, translate("list items", err)
	}
	defer rows.Close()

	out := []inventory.ItemRef{}
	for rows.Next() {
		r, err := scanItemRef(rows)
		if err != nil {
			return nil, translate("scan item", err)
		}
		out = append(out, r)
	}
	return out, translate("list items", rows.Err())
}

const movementColumns = `m.id, m.tenant_id, m.item_id, m.kind, m.qty, m.unit_cost, m.ref, m.note,
	m.from_location, m.to_location, m.effective_at, m.created_at, m.created_by`

// movementDest lists scan targets in movementColumns order.
func movementDest(m *inventory.Movement) []any {
	return []any{
		&m.ID,
		&m.TenantID,
		&m.ItemID,
		&m.Kind,
		&m.Qty,
		&m.UnitCost,
		&m.Ref,
		&m.Note,
		&m.FromLoc,
		&m.ToLoc,
		&m.EffectiveAt,
		&m.CreatedAt,
		&m.CreatedBy,
	}
}

func normalize(m *inventory.Movement) {
	m.EffectiveAt = m.EffectiveAt.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
}

func (s *InventoryStore) Append(ctx context.Context, m *inventory.Movement) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO movements (tenant_id, item_id, kind, qty, unit_cost, ref, note,
			from_location, to_location, effective_at, created_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id
	`, m.TenantID, m.ItemID, string(m.Kind), m.Qty, m.UnitCost, m.Ref, m.Note,
		m.FromLoc, m.ToLoc, m.EffectiveAt, m.CreatedAt, m.CreatedBy).Scan(&m.ID)
	return translate("append movement", err)
}

func (s *InventoryStore) selectMovements(ctx context.Context, query string, args ...any) ([]inventory.Movement, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("read movements", err)
	}
	defer rows.Close()

	out := []inventory.Movement{}
	for rows.Next() {
		var m inventory.Movement
		if err := rows.Scan(movementDest(&m)...); err != nil {
			return nil, translate("scan movement", err)
		}
		normalize(&m)
		out = append(out, m)
	}
	return out, translate("read movements", rows.Err())
}

func (s *InventoryStore) ItemMovements(ctx context.Context, tenantID uuid.UUID, itemID int64, asOf *time.Time) ([]inventory.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements m WHERE m.tenant_id = $1 AND m.item_id = $2`
	args := []any{tenantID, itemID}
	if asOf != nil {
		query += ` AND m.effective_at <= $3`
		args = append(args, *asOf)
	}
	return s.selectMovements(ctx, query+` ORDER BY m.id`, args...)
}

func (s *InventoryStore) TenantMovements(ctx context.Context, tenantID uuid.UUID) ([]inventory.Movement, error) {
	return s.selectMovements(ctx, `
		SELECT `+movementColumns+` FROM movements m WHERE m.tenant_id = $1 ORDER BY m.id
	`, tenantID)
}

func (s *InventoryStore) ListMovements(ctx context.Context, tenantID uuid.UUID, f inventory.MovementFilter) ([]inventory.MovementView, error) {
	var (
		where = []string{"m.tenant_id = $1"}
		args  = []any{tenantID}
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ItemID != 0 {
		add("m.item_id = $%d", f.ItemID)
	}
	if f.Kind != "" {
		add("m.kind = $%d", string(f.Kind))
	}
	if f.From != nil {
		add("m.effective_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("m.effective_at <= $%d", *f.To)
	}

	query := `
		SELECT ` + movementColumns + `, i.sku, i.name, i.unit
		FROM movements m
		JOIN items i ON i.id = m.item_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY m.effective_at DESC, m.id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("list movements", err)
	}
	defer rows.Close()

	out := []inventory.MovementView{}
	for rows.Next() {
		var v inventory.MovementView
		dest := append(movementDest(&v.Movement), &v.SKU, &v.ItemName, &v.Unit)
		if err := rows.Scan(dest...); err != nil {
			return nil, translate("scan movement", err)
		}
		normalize(&v.Movement)
		out = append(out, v)
	}
	return out, translate("list movements", rows.Err())
}
