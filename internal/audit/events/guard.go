package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"qualityaudit/internal/audit/models"
	"qualityaudit/pkg/platform/circuit"
	"qualityaudit/pkg/platform/sentinel"
)

// Publisher is anything that accepts a batch of outbox entries.
type Publisher interface {
	Publish(ctx context.Context, entries []models.OutboxEntry) error
}

// GuardedPublisher fails fast with sentinel.ErrUnavailable while the broker
// keeps failing, instead of blocking every command on produce timeouts.
type GuardedPublisher struct {
	next    Publisher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedPublisher(next Publisher, breaker *circuit.Breaker, logger *slog.Logger) *GuardedPublisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GuardedPublisher{next: next, breaker: breaker, logger: logger}
}

func (g *GuardedPublisher) Publish(ctx context.Context, entries []models.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if !g.breaker.Allow() {
		return fmt.Errorf("publish lock events: circuit %s open: %w", g.breaker.Name(), sentinel.ErrUnavailable)
	}

	err := g.next.Publish(ctx, entries)
	if err != nil {
		// Cancellation belongs to the caller, not the broker.
		if errors.Is(err, context.Canceled) {
			return err
		}
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "event publisher circuit opened", "circuit", g.breaker.Name(), "error", err)
		}
		return errors.Join(sentinel.ErrUnavailable, err)
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "event publisher circuit closed", "circuit", g.breaker.Name())
	}
	return nil
}
