package contract

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	txcontext "qualityaudit/pkg/platform/tx"
)

// PostgresStore persists contracts in the contracts table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, c *models.Contract) error {
	_, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO contracts (id, client_id, supervisor_id, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active
	`, uuid.UUID(c.ID), uuid.UUID(c.ClientID), uuid.UUID(c.SupervisorID), c.Active)
	if err != nil {
		return fmt.Errorf("save contract: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasActiveContract(ctx context.Context, clientID id.ClientID, supervisorID id.SupervisorID) (bool, error) {
	var exists bool
	err := txcontext.Pick(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM contracts
			WHERE client_id = $1 AND supervisor_id = $2 AND active
		)
	`, uuid.UUID(clientID), uuid.UUID(supervisorID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active contract: %w", err)
	}
	return exists, nil
}
