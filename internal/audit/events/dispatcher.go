package events

import (
	"context"
	"fmt"

	"qualityaudit/internal/audit/models"
	"qualityaudit/pkg/platform/sentinel"
)

// Dispatcher is an in-process event sink backed by a buffered channel. Run
// drains it into a Handler on its own goroutine, so commands do not wait for
// the projection.
type Dispatcher struct {
	inbox   chan models.OutboxEntry
	handler Handler
}

func NewDispatcher(handler Handler, buffer int) *Dispatcher {
	return &Dispatcher{inbox: make(chan models.OutboxEntry, buffer), handler: handler}
}

// Publish enqueues the batch in order without blocking. When the buffer is
// full it reports sentinel.ErrUnavailable; entries already enqueued are
// delivered again later and dropped by the handler as duplicates.
func (d *Dispatcher) Publish(ctx context.Context, entries []models.OutboxEntry) error {
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case d.inbox <- e:
		default:
			return fmt.Errorf("dispatch queue full, %d of %d lock events queued: %w", i, len(entries), sentinel.ErrUnavailable)
		}
	}
	return nil
}

// Run hands queued events to the handler until ctx is cancelled or the
// handler fails.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-d.inbox:
			if err := d.handler.Handle(ctx, e.EventID, e.Event); err != nil {
				return err
			}
		}
	}
}
