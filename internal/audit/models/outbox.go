package models

import (
	id "qualityaudit/pkg/domain"
)

// OutboxEntry is a lock event stored with the aggregate save that produced
// it, waiting to be relayed. EventID stays the same across redeliveries.
type OutboxEntry struct {
	EventID id.EventID
	Event   Event
}

// NewOutboxEntries assigns a fresh event id to each event, keeping the order.
func NewOutboxEntries(events []Event) []OutboxEntry {
	entries := make([]OutboxEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, OutboxEntry{EventID: id.NewEventID(), Event: e})
	}
	return entries
}
