// Package projection maintains the lock history read model: one row per
// suspend, unlock or withdraw applied to an evaluation.
package projection

import (
	"context"
	"log/slog"

	auditmetrics "qualityaudit/internal/audit/metrics"
	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
)

// Store persists lock history rows. Append reports false when the event id
// was already recorded.
type Store interface {
	Append(ctx context.Context, entry models.LockHistoryEntry) (bool, error)
	FindByEvaluationID(ctx context.Context, evaluationID id.EvaluationID) ([]models.LockHistoryEntry, error)
}

// Projector turns lock events into lock history rows. Handling is
// idempotent per event id, so redelivered events are harmless.
type Projector struct {
	store   Store
	logger  *slog.Logger
	metrics *auditmetrics.Metrics
}

type Option func(*Projector)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Projector) {
		p.logger = logger
	}
}

func WithMetrics(m *auditmetrics.Metrics) Option {
	return func(p *Projector) {
		p.metrics = m
	}
}

func New(store Store, opts ...Option) *Projector {
	p := &Projector{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// Handle records one event.
func (p *Projector) Handle(ctx context.Context, eventID id.EventID, event models.Event) error {
	entry, err := models.NewLockHistoryEntry(eventID, event)
	if err != nil {
		return err
	}
	inserted, err := p.store.Append(ctx, entry)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append lock history")
	}
	if !inserted {
		p.logger.DebugContext(ctx, "lock event already projected",
			"event_id", eventID.String(),
			"evaluation_id", entry.EvaluationID.String(),
		)
		return nil
	}
	if p.metrics != nil {
		p.metrics.IncrementProjected(string(entry.Action))
	}
	p.logger.InfoContext(ctx, "lock event projected",
		"event_id", eventID.String(),
		"evaluation_id", entry.EvaluationID.String(),
		"action", string(entry.Action),
	)
	return nil
}

// Publish projects outbox entries in order under their event ids. It lets
// the projector serve directly as the relay's sink.
func (p *Projector) Publish(ctx context.Context, entries []models.OutboxEntry) error {
	for _, e := range entries {
		if err := p.Handle(ctx, e.EventID, e.Event); err != nil {
			return err
		}
	}
	return nil
}

// History returns the lock history of an evaluation, oldest first.
func (p *Projector) History(ctx context.Context, evaluationID id.EvaluationID) ([]models.LockHistoryEntry, error) {
	history, err := p.store.FindByEvaluationID(ctx, evaluationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read lock history")
	}
	return history, nil
}
