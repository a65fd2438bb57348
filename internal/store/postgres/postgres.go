// Package postgres implements the catalog, ledger and tenancy stores on
// PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/catalog"
	"github.com/Spok95/stock-ledger/internal/domain/inventory"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
)

func pgCode(err error) string {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

func isUnique(err error) bool { return pgCode(err) == codeUniqueViolation }

func isForeignKey(err error) bool { return pgCode(err) == codeForeignKeyViolation }

// translate maps driver errors onto the apperr taxonomy.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.NotFound("%s: not found", op)
	case isUnique(err):
		return apperr.Wrap(apperr.KindConflict, err, "%s: duplicate", op)
	case isForeignKey(err):
		return apperr.Wrap(apperr.KindConflict, err, "%s: still referenced", op)
	case pgCode(err) == codeSerializationFailure:
		return apperr.Wrap(apperr.KindConflict, err, "%s: concurrent update, try again", op)
	}
	return apperr.Persistence(op, err)
}

var (
	_ tenancy.Store   = (*TenancyStore)(nil)
	_ catalog.Store   = (*CatalogStore)(nil)
	_ inventory.Store = (*InventoryStore)(nil)
)

type Stores struct {
	Pool      *pgxpool.Pool
	Tenancy   *TenancyStore
	Catalog   *CatalogStore
	Inventory *InventoryStore
}

func New(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Pool:      pool,
		Tenancy:   &TenancyStore{pool: pool},
		Catalog:   &CatalogStore{pool: pool},
		Inventory: &InventoryStore{pool: pool, q: pool},
	}
}
