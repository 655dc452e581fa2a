package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // SQLite driver

	"piscinemarket/scraper/internal/config"
)

// Store groups the two catalog tables of one backend.
type Store struct {
	Subcategories Table[SubcategoryRow]
	Products      Table[ProductRow]

	closers []func() error
}

// Close releases database handles. It is a no-op for CSV storage.
func (s *Store) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	switch cfg.Backend {
	case config.BackendCSV:
		return &Store{
			Subcategories: NewCSVTable[SubcategoryRow](cfg.OutputDir, cfg.SubcategoriesTable),
			Products:      NewCSVTable[ProductRow](cfg.OutputDir, cfg.ProductsTable),
		}, nil

	case config.BackendSQLite:
		path := cfg.SQLitePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.OutputDir, path)
		}
		db, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return newSQLStore(db, SQLite, cfg, db.Close)

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		db := stdlib.OpenDBFromPool(pool)
		return newSQLStore(db, Postgres, cfg, func() error {
			err := db.Close()
			pool.Close()
			return err
		})

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
}

func newSQLStore(db *sql.DB, dialect Dialect, cfg config.StorageConfig, closer func() error) (*Store, error) {
	subcategories, err := NewSQLSubcategoryTable(db, dialect, cfg.SubcategoriesTable)
	if err != nil {
		_ = closer()
		return nil, err
	}
	products, err := NewSQLProductTable(db, dialect, cfg.ProductsTable)
	if err != nil {
		_ = closer()
		return nil, err
	}

	return &Store{
		Subcategories: subcategories,
		Products:      products,
		closers:       []func() error{closer},
	}, nil
}

// OpenSQLite opens or creates the database file at path.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer, one run.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	return db, nil
}
