package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/gallerykeeper/internal/dbx"
	pgmigrations "github.com/dmitrijs2005/gallerykeeper/internal/ledger/migrations/postgres"
	litemigrations "github.com/dmitrijs2005/gallerykeeper/internal/ledger/migrations/sqlite"
)

// Backend is an open ledger database plus the repository constructor for
// its dialect. NewRepository accepts a dbx.DBTX so the same repository
// code runs against the pool or inside a transaction.
type Backend struct {
	DB            *sql.DB
	NewRepository func(db dbx.DBTX) Repository
}

// Open connects to the ledger selected by the DSN scheme, runs the
// embedded migrations, and returns the backend. postgres:// and
// postgresql:// DSNs use the pgx driver; anything else is treated as a
// SQLite path or URI.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return openPostgres(ctx, dsn)
	}
	return openSQLite(ctx, dsn)
}

func openPostgres(ctx context.Context, dsn string) (*Backend, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres ledger: %w", err)
	}

	goose.SetBaseFS(pgmigrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("migrate postgres ledger: %w", err)
	}

	return &Backend{
		DB:            db,
		NewRepository: func(h dbx.DBTX) Repository { return NewPostgresRepository(h) },
	}, nil
}

func openSQLite(ctx context.Context, dsn string) (*Backend, error) {
	// FK enforcement is off by default in SQLite and the reference table
	// depends on it.
	if !strings.Contains(dsn, "_pragma") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite ledger: %w", err)
	}
	// A single writer avoids SQLITE_BUSY storms under concurrent traversals.
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(litemigrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("migrate sqlite ledger: %w", err)
	}

	return &Backend{
		DB:            db,
		NewRepository: func(h dbx.DBTX) Repository { return NewSQLiteRepository(h) },
	}, nil
}
