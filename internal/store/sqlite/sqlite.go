// Package sqlite implements the catalog, ledger and tenancy stores on an
// embedded single-file SQLite database through sqlx.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Spok95/stock-ledger/internal/apperr"
	"github.com/Spok95/stock-ledger/internal/domain/catalog"
	"github.com/Spok95/stock-ledger/internal/domain/inventory"
	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
)

// querier is satisfied by both *sqlx.DB and *sqlx.Tx.
type querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

const stampLayout = "2006-01-02T15:04:05.000000000Z"

// stamp stores a time as fixed-width UTC text, so string order is time order.
type stamp time.Time

func (s stamp) Value() (driver.Value, error) {
	return time.Time(s).UTC().Format(stampLayout), nil
}

func (s *stamp) Scan(v any) error {
	var str string
	switch x := v.(type) {
	case string:
		str = x
	case []byte:
		str = string(x)
	case time.Time:
		*s = stamp(x.UTC())
		return nil
	default:
		return fmt.Errorf("stamp: unsupported type %T", v)
	}
	t, err := time.Parse(stampLayout, str)
	if err != nil {
		return err
	}
	*s = stamp(t)
	return nil
}

func (s stamp) Time() time.Time { return time.Time(s) }

func sqliteCode(err error) int {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isUnique(err error) bool {
	c := sqliteCode(err)
	return c == sqlite3.SQLITE_CONSTRAINT_UNIQUE || c == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKey(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// translate maps driver errors onto the apperr taxonomy.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound("%s: not found", op)
	case isUnique(err):
		return apperr.Wrap(apperr.KindConflict, err, "%s: duplicate", op)
	case isForeignKey(err):
		return apperr.Wrap(apperr.KindConflict, err, "%s: still referenced", op)
	}
	return apperr.Persistence(op, err)
}

var (
	_ tenancy.Store   = (*TenancyStore)(nil)
	_ catalog.Store   = (*CatalogStore)(nil)
	_ inventory.Store = (*InventoryStore)(nil)
)

// Stores bundles the three stores over one database handle.
type Stores struct {
	DB        *sqlx.DB
	Tenancy   *TenancyStore
	Catalog   *CatalogStore
	Inventory *InventoryStore
}

func New(db *sqlx.DB) *Stores {
	return &Stores{
		DB:        db,
		Tenancy:   &TenancyStore{db: db},
		Catalog:   &CatalogStore{db: db},
		Inventory: &InventoryStore{db: db, q: db},
	}
}
