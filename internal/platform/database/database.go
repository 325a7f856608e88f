package database

import (
	"context"
	"database/sql"
	"fmt"

	// registers the "pgx" database/sql driver
	_ "github.com/jackc/pgx/v5/stdlib"

	"qualityaudit/internal/platform/config"
)

// Open connects to PostgreSQL through the pgx stdlib driver and verifies the
// connection. Returns nil if the URL is empty (database not configured).
func Open(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}
