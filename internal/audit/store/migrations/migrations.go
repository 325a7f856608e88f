// Package migrations holds the PostgreSQL schema of the quality audit stores.
package migrations

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Every statement is idempotent, so it is safe
// to run on each start.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Tables lists the tables in dependency order, children first.
var Tables = []string{"lock_event_outbox", "lock_history", "evaluations", "contracts", "quality_audits"}
