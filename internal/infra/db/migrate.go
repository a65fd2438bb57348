package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/Spok95/stock-ledger/migrations"
)

// MigratePostgres applies the postgres migrations through a short-lived
// database/sql handle.
func MigratePostgres(ctx context.Context, dsn string, log *slog.Logger) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return migrate(ctx, sqlDB, goose.DialectPostgres, "postgres", log)
}

// MigrateSQLite applies the sqlite migrations to the file at path. It uses
// its own handle: goose pins a connection while the store handle has one.
func MigrateSQLite(ctx context.Context, path string, log *slog.Logger) error {
	sqlDB, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return migrate(ctx, sqlDB, goose.DialectSQLite3, "sqlite", log)
}

func migrate(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect, dir string, log *slog.Logger) error {
	fsys, err := migrations.For(dir)
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	res, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", dir, err)
	}
	for _, r := range res {
		log.Info("migration applied", "source", r.Source.Path, "duration", r.Duration)
	}
	return nil
}
