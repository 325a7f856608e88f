package lock

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dErrors "qualityaudit/pkg/domain-errors"
	txcontext "qualityaudit/pkg/platform/tx"
)

// Postgres serializes commands with a transaction-scoped advisory lock.
// fn runs inside that transaction, carried in ctx, so stores that honor
// pkg/platform/tx commit or roll back together with the command. The lock is
// released when the transaction ends.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgres(db *sql.DB, timeout time.Duration) *Postgres {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Postgres{db: db, timeout: timeout}
}

func (l *Postgres) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	return txcontext.Run(ctx, l.db, func(ctx context.Context) error {
		q := txcontext.Pick(ctx, l.db)
		if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			if ctx.Err() != nil {
				return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "lock "+key+" not acquired")
			}
			return fmt.Errorf("acquire advisory lock %s: %w", key, err)
		}
		return fn(ctx)
	})
}
