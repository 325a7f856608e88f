package lockhistory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	txcontext "qualityaudit/pkg/platform/tx"
)

// PostgresStore persists lock history rows in the lock_history table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts entry unless its event id is already recorded.
func (s *PostgresStore) Append(ctx context.Context, entry models.LockHistoryEntry) (bool, error) {
	res, err := txcontext.Pick(ctx, s.db).ExecContext(ctx, `
		INSERT INTO lock_history (event_id, evaluation_id, action, occurred_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
	`, uuid.UUID(entry.EventID), uuid.UUID(entry.EvaluationID), string(entry.Action), entry.OccurredAt)
	if err != nil {
		return false, fmt.Errorf("append lock history: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append lock history: %w", err)
	}
	return rows == 1, nil
}

func (s *PostgresStore) FindByEvaluationID(ctx context.Context, evaluationID id.EvaluationID) ([]models.LockHistoryEntry, error) {
	rows, err := txcontext.Pick(ctx, s.db).QueryContext(ctx, `
		SELECT event_id, evaluation_id, action, occurred_at
		FROM lock_history
		WHERE evaluation_id = $1
		ORDER BY occurred_at, id
	`, uuid.UUID(evaluationID))
	if err != nil {
		return nil, fmt.Errorf("query lock history: %w", err)
	}
	defer rows.Close()

	var history []models.LockHistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lock history: %w", err)
	}
	return history, nil
}

func scanEntry(rows *sql.Rows) (models.LockHistoryEntry, error) {
	var (
		eventID, evaluationID uuid.UUID
		action                string
		occurredAt            time.Time
	)
	if err := rows.Scan(&eventID, &evaluationID, &action, &occurredAt); err != nil {
		return models.LockHistoryEntry{}, fmt.Errorf("scan lock history: %w", err)
	}
	return models.LockHistoryEntry{
		EventID:      id.EventID(eventID),
		EvaluationID: id.EvaluationID(evaluationID),
		Action:       models.LockAction(action),
		OccurredAt:   occurredAt.UTC(),
	}, nil
}
