package qualityaudit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	"qualityaudit/pkg/platform/sentinel"
	txcontext "qualityaudit/pkg/platform/tx"
)

// PostgresStore persists audits across the quality_audits and evaluations
// tables. Evaluations keep their insertion order in the position column.
// Writes join the transaction carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const evaluationColumns = `
	id, client_id, standard_id, manager_id, rating, audit_date, expiration_date,
	suspended_at, withdrawn_at, replaced_by, watchers`

const upsertEvaluation = `
	INSERT INTO evaluations (
		id, client_id, standard_id, manager_id, rating, audit_date, expiration_date,
		suspended_at, withdrawn_at, replaced_by, watchers, position
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, %s)
	ON CONFLICT (id) DO UPDATE SET
		manager_id = EXCLUDED.manager_id,
		suspended_at = EXCLUDED.suspended_at,
		withdrawn_at = EXCLUDED.withdrawn_at,
		replaced_by = EXCLUDED.replaced_by,
		watchers = EXCLUDED.watchers
`

// Save writes the audit row, upserts every evaluation and appends the pending
// lock events to the outbox, all in one transaction. Report fields are
// immutable and never rewritten.
func (s *PostgresStore) Save(ctx context.Context, audit *models.QualityAudit) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		q := txcontext.Pick(ctx, s.db)
		if err := ensureAudit(ctx, q, audit.ClientID(), audit.StandardID()); err != nil {
			return err
		}
		query := fmt.Sprintf(upsertEvaluation, "$12")
		for position, evaluation := range audit.Evaluations() {
			args := append(evaluationArgs(evaluation.State()), position)
			if _, err := q.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("upsert evaluation %s: %w", evaluation.ID(), translate(err))
			}
		}
		for _, entry := range models.NewOutboxEntries(audit.PendingEvents()) {
			_, err := q.ExecContext(ctx, `
				INSERT INTO lock_event_outbox (event_id, evaluation_id, action, occurred_at)
				VALUES ($1, $2, $3, $4)`,
				uuid.UUID(entry.EventID),
				uuid.UUID(entry.Event.EvaluationID()),
				string(entry.Event.Action()),
				entry.Event.OccurredAt(),
			)
			if err != nil {
				return fmt.Errorf("append lock event to outbox: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) FindFor(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (*models.QualityAudit, error) {
	q := txcontext.Pick(ctx, s.db)

	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM quality_audits WHERE client_id = $1 AND standard_id = $2)`,
		uuid.UUID(clientID), uuid.UUID(standardID),
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("find audit: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}

	rows, err := q.QueryContext(ctx, `SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE client_id = $1 AND standard_id = $2
		ORDER BY position`,
		uuid.UUID(clientID), uuid.UUID(standardID),
	)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var evaluations []*models.Evaluation
	for rows.Next() {
		evaluation, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, evaluation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return models.RestoreQualityAudit(clientID, standardID, evaluations), nil
}

// Outbox adapts the store to the relay's outbox.
func (s *PostgresStore) Outbox() *PostgresOutbox {
	return &PostgresOutbox{db: s.db}
}

// PostgresOutbox reads and acknowledges rows of lock_event_outbox. Delivered
// rows are kept with their delivery time.
type PostgresOutbox struct {
	db *sql.DB
}

// Pending returns up to limit undelivered entries in insertion order. A
// non-positive limit returns them all.
func (o *PostgresOutbox) Pending(ctx context.Context, limit int) ([]models.OutboxEntry, error) {
	rows, err := txcontext.Pick(ctx, o.db).QueryContext(ctx, `
		SELECT event_id, evaluation_id, action, occurred_at
		FROM lock_event_outbox
		WHERE delivered_at IS NULL
		ORDER BY seq
		LIMIT $1`, sql.NullInt64{Int64: int64(limit), Valid: limit > 0})
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []models.OutboxEntry
	for rows.Next() {
		var (
			eventID, evaluationID uuid.UUID
			action                string
			occurredAt            time.Time
		)
		if err := rows.Scan(&eventID, &evaluationID, &action, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		event, ok := models.NewLockEvent(models.LockAction(action), id.EvaluationID(evaluationID), occurredAt.UTC())
		if !ok {
			return nil, fmt.Errorf("outbox entry %s: unknown action %q", eventID, action)
		}
		entries = append(entries, models.OutboxEntry{EventID: id.EventID(eventID), Event: event})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return entries, nil
}

func (o *PostgresOutbox) MarkDelivered(ctx context.Context, eventIDs []id.EventID) error {
	if len(eventIDs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(eventIDs))
	for _, eventID := range eventIDs {
		ids = append(ids, eventID.String())
	}
	_, err := txcontext.Pick(ctx, o.db).ExecContext(ctx,
		`UPDATE lock_event_outbox SET delivered_at = now() WHERE event_id = ANY($1::uuid[]) AND delivered_at IS NULL`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("mark outbox delivered: %w", err)
	}
	return nil
}

// Evaluations adapts the store to EvaluationRepository.
func (s *PostgresStore) Evaluations() *PostgresEvaluations {
	return &PostgresEvaluations{store: s}
}

// PostgresEvaluations is the EvaluationRepository view of a PostgresStore.
type PostgresEvaluations struct {
	store *PostgresStore
}

// Save upserts a single evaluation. A new one is appended after the audit's
// last position.
func (e *PostgresEvaluations) Save(ctx context.Context, evaluation *models.Evaluation) error {
	db := e.store.db
	return txcontext.Run(ctx, db, func(ctx context.Context) error {
		q := txcontext.Pick(ctx, db)
		if err := ensureAudit(ctx, q, evaluation.OwnerID(), evaluation.StandardID()); err != nil {
			return err
		}
		query := fmt.Sprintf(upsertEvaluation,
			"(SELECT COALESCE(MAX(position) + 1, 0) FROM evaluations WHERE client_id = $2 AND standard_id = $3)")
		if _, err := q.ExecContext(ctx, query, evaluationArgs(evaluation.State())...); err != nil {
			return fmt.Errorf("upsert evaluation %s: %w", evaluation.ID(), translate(err))
		}
		return nil
	})
}

func (e *PostgresEvaluations) FindByID(ctx context.Context, evaluationID id.EvaluationID) (*models.Evaluation, error) {
	row := txcontext.Pick(ctx, e.store.db).QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`,
		uuid.UUID(evaluationID),
	)
	evaluation, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return evaluation, err
}

// FindMostRecentFor orders by audit date; ties keep the earlier position.
func (e *PostgresEvaluations) FindMostRecentFor(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (*models.Evaluation, error) {
	row := txcontext.Pick(ctx, e.store.db).QueryRowContext(ctx, `SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE client_id = $1 AND standard_id = $2
		ORDER BY audit_date DESC, position ASC
		LIMIT 1`,
		uuid.UUID(clientID), uuid.UUID(standardID),
	)
	evaluation, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return evaluation, err
}

func ensureAudit(ctx context.Context, q txcontext.Querier, clientID id.ClientID, standardID id.StandardID) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO quality_audits (client_id, standard_id)
		VALUES ($1, $2)
		ON CONFLICT (client_id, standard_id) DO UPDATE SET updated_at = now()
	`, uuid.UUID(clientID), uuid.UUID(standardID))
	if err != nil {
		return fmt.Errorf("upsert audit: %w", translate(err))
	}
	return nil
}

func evaluationArgs(st models.EvaluationState) []any {
	var suspendedAt, withdrawnAt *time.Time
	if st.Suspension != nil {
		suspendedAt = &st.Suspension.SuspendedAt
	}
	if st.Withdrawal != nil {
		withdrawnAt = &st.Withdrawal.WithdrawnAt
	}
	var replacedBy *uuid.UUID
	if st.ReplacedBy != nil {
		u := uuid.UUID(*st.ReplacedBy)
		replacedBy = &u
	}
	watchers := make([]string, 0, len(st.Watchers))
	for _, w := range st.Watchers {
		watchers = append(watchers, encodeWatcher(w))
	}
	return []any{
		uuid.UUID(st.ID),
		uuid.UUID(st.OwnerID),
		uuid.UUID(st.StandardID),
		uuid.UUID(st.ManagerID),
		st.Report.Rating().String(),
		st.Report.AuditDate(),
		st.Report.ExpirationDate(),
		suspendedAt,
		withdrawnAt,
		replacedBy,
		pq.Array(watchers),
	}
}

type evaluationRow interface {
	Scan(dest ...any) error
}

func scanEvaluation(row evaluationRow) (*models.Evaluation, error) {
	var (
		evaluationID, clientID, standardID, managerID uuid.UUID
		rating                                        string
		auditDate, expirationDate                     time.Time
		suspendedAt, withdrawnAt                      sql.NullTime
		replacedBy                                    uuid.NullUUID
		watchers                                      []string
	)
	err := row.Scan(
		&evaluationID, &clientID, &standardID, &managerID, &rating, &auditDate, &expirationDate,
		&suspendedAt, &withdrawnAt, &replacedBy, pq.Array(&watchers),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan evaluation: %w", err)
	}

	parsedRating, err := models.ParseRating(rating)
	if err != nil {
		return nil, fmt.Errorf("evaluation %s: %w", evaluationID, err)
	}
	state := models.EvaluationState{
		ID:         id.EvaluationID(evaluationID),
		OwnerID:    id.ClientID(clientID),
		ManagerID:  id.SupervisorID(managerID),
		StandardID: id.StandardID(standardID),
		Report:     models.RestoreEvaluationReport(parsedRating, auditDate.UTC(), expirationDate.UTC(), id.StandardID(standardID)),
	}
	if suspendedAt.Valid {
		state.Suspension = &models.Suspension{SuspendedAt: suspendedAt.Time.UTC()}
	}
	if withdrawnAt.Valid {
		state.Withdrawal = &models.Withdrawal{WithdrawnAt: withdrawnAt.Time.UTC()}
	}
	if replacedBy.Valid {
		by := id.EvaluationID(replacedBy.UUID)
		state.ReplacedBy = &by
	}
	for _, raw := range watchers {
		w, err := decodeWatcher(raw)
		if err != nil {
			return nil, fmt.Errorf("evaluation %s: %w", evaluationID, err)
		}
		state.Watchers = append(state.Watchers, w)
	}
	return models.RestoreEvaluation(state), nil
}

// Watchers are stored as "kind:uuid" so one text array keeps both parts.
func encodeWatcher(w models.WatcherID) string {
	return string(w.Kind()) + ":" + w.String()
}

func decodeWatcher(raw string) (models.WatcherID, error) {
	kind, rawID, ok := strings.Cut(raw, ":")
	if !ok {
		return models.WatcherID{}, fmt.Errorf("malformed watcher %q", raw)
	}
	return models.ParseWatcherID(kind, rawID)
}

// translate maps unique and serialization failures to sentinel.ErrConflict.
func translate(err error) error {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		switch pgErr.SQLState() {
		case "23505", "40001":
			return errors.Join(sentinel.ErrConflict, err)
		}
	}
	return err
}
