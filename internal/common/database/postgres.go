// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"restaurant-agent/internal/common/config"

	_ "github.com/lib/pq"
)

var ErrCatalogTablesMissing = errors.New("CATALOG_TABLES_MISSING")

const catalogTablesQuery = `SELECT to_regclass('restaurants') IS NOT NULL AND to_regclass('cuisines') IS NOT NULL`

// CatalogDB is the relational store holding the restaurants and cuisines tables.
type CatalogDB struct {
	DB *sql.DB
}

func OpenCatalogDB(cfg config.PostgresConfig) (*CatalogDB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// The catalog is read once at startup.
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxIdleTime(time.Minute)

	return &CatalogDB{DB: db}, nil
}

// Ping checks connectivity and that both catalog tables exist.
func (c *CatalogDB) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}

	var present bool
	if err := c.DB.QueryRowContext(ctx, catalogTablesQuery).Scan(&present); err != nil {
		return fmt.Errorf("inspect catalog tables: %w", err)
	}
	if !present {
		return fmt.Errorf("%w: restaurants and cuisines are required", ErrCatalogTablesMissing)
	}
	return nil
}

func (c *CatalogDB) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
