package models

import (
	"time"

	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
)

// LockHistoryEntry is one row of the lock history projection. EventID is the
// idempotency key: an event delivered twice is recorded once.
type LockHistoryEntry struct {
	EventID      id.EventID
	EvaluationID id.EvaluationID
	Action       LockAction
	OccurredAt   time.Time
}

// NewLockHistoryEntry projects a lock event into a history row.
func NewLockHistoryEntry(eventID id.EventID, e Event) (LockHistoryEntry, error) {
	if eventID.IsNil() {
		return LockHistoryEntry{}, dErrors.New(dErrors.CodeInvalidInput, "event id is required")
	}
	if e == nil || !e.Action().IsValid() {
		return LockHistoryEntry{}, dErrors.New(dErrors.CodeInvalidInput, "unsupported lock event")
	}
	return LockHistoryEntry{
		EventID:      eventID,
		EvaluationID: e.EvaluationID(),
		Action:       e.Action(),
		OccurredAt:   e.OccurredAt(),
	}, nil
}
