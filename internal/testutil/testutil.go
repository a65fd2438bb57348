// Package testutil opens migrated throwaway stores for tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/stock-ledger/internal/domain/tenancy"
	"github.com/Spok95/stock-ledger/internal/infra/db"
	"github.com/Spok95/stock-ledger/internal/store/postgres"
	"github.com/Spok95/stock-ledger/internal/store/sqlite"
)

// PostgresDSNEnv points tests at a scratch PostgreSQL database.
const PostgresDSNEnv = "APP_TEST_POSTGRES_DSN"

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SQLite returns stores over a fresh, migrated database file in t's temp
// directory. The handle is closed on cleanup.
func SQLite(t testing.TB) *sqlite.Stores {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	require.NoError(t, db.MigrateSQLite(context.Background(), path, Logger()))
	d, err := db.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return sqlite.New(d)
}

// Postgres migrates the database named by APP_TEST_POSTGRES_DSN and returns
// stores over it. It skips t when the variable is unset. Rows are left in
// place, so callers work inside tenants from UniqueName.
func Postgres(t testing.TB) *postgres.Stores {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	ctx := context.Background()
	require.NoError(t, db.MigratePostgres(ctx, dsn, Logger()))
	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return postgres.New(pool)
}

// UniqueName returns prefix with a random suffix.
func UniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// Tenant creates a tenant named name and returns a scope for it with role.
func Tenant(t testing.TB, st *sqlite.Stores, name string, role tenancy.Role) tenancy.Scope {
	t.Helper()
	return TenantIn(t, st.Tenancy, name, role)
}

// TenantIn is Tenant over any tenancy store.
func TenantIn(t testing.TB, store tenancy.Store, name string, role tenancy.Role) tenancy.Scope {
	t.Helper()
	svc := tenancy.NewService(store, Logger())
	ten, err := svc.EnsureTenant(context.Background(), name)
	require.NoError(t, err)
	return tenancy.Scope{TenantID: ten.ID, UserID: name + "-user", Role: role}
}
