package tx

import (
	"context"
	"database/sql"
	"fmt"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Querier is the subset of *sql.DB and *sql.Tx that stores use.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Pick returns the transaction carried by ctx, or db when there is none.
func Pick(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}

// Run executes fn inside a transaction and commits when fn succeeds. A
// transaction already carried by ctx is reused and left for its owner to
// commit.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
