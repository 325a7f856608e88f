//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	Container testcontainers.Container
	URL       string
	DB        *sql.DB
}

func startPostgres() (*PostgresContainer, error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("qualityaudit"),
		tcpostgres.WithUsername("qualityaudit"),
		tcpostgres.WithPassword("qualityaudit"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("run postgres: %w", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("postgres connection string: %w", err)
	}

	db, err := sql.Open("pgx", url)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresContainer{Container: container, URL: url, DB: db}, nil
}

// TruncateTables empties the given tables. Pass them in dependency order.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(tables, ", ")+" CASCADE")
	return err
}
