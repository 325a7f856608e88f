package models

import (
	"time"

	id "qualityaudit/pkg/domain"
)

// LockAction names a lock transition as recorded in the lock history.
type LockAction string

const (
	LockActionSuspended LockAction = "suspended"
	LockActionUnlocked  LockAction = "unlocked"
	LockActionWithdrawn LockAction = "withdrawn"
)

func (a LockAction) IsValid() bool {
	switch a {
	case LockActionSuspended, LockActionUnlocked, LockActionWithdrawn:
		return true
	}
	return false
}

// Event is a domain event queued by QualityAudit lock transitions.
type Event interface {
	EvaluationID() id.EvaluationID
	OccurredAt() time.Time
	Action() LockAction
}

// EvaluationSuspended is queued when the current evaluation is suspended.
type EvaluationSuspended struct {
	Evaluation  id.EvaluationID
	SuspendedAt time.Time
}

func (e EvaluationSuspended) EvaluationID() id.EvaluationID { return e.Evaluation }
func (e EvaluationSuspended) OccurredAt() time.Time { return e.SuspendedAt }
func (e EvaluationSuspended) Action() LockAction { return LockActionSuspended }

// EvaluationUnlocked is queued when a suspension is lifted.
type EvaluationUnlocked struct {
	Evaluation id.EvaluationID
	UnlockedAt time.Time
}

func (e EvaluationUnlocked) EvaluationID() id.EvaluationID { return e.Evaluation }
func (e EvaluationUnlocked) OccurredAt() time.Time { return e.UnlockedAt }
func (e EvaluationUnlocked) Action() LockAction { return LockActionUnlocked }

// EvaluationWithdrawn is queued when the current evaluation is withdrawn.
type EvaluationWithdrawn struct {
	Evaluation  id.EvaluationID
	WithdrawnAt time.Time
}

func (e EvaluationWithdrawn) EvaluationID() id.EvaluationID { return e.Evaluation }
func (e EvaluationWithdrawn) OccurredAt() time.Time { return e.WithdrawnAt }
func (e EvaluationWithdrawn) Action() LockAction { return LockActionWithdrawn }

// NewLockEvent rebuilds the event matching action, for decoders that only
// carry the flat fields.
func NewLockEvent(action LockAction, evaluationID id.EvaluationID, at time.Time) (Event, bool) {
	switch action {
	case LockActionSuspended:
		return EvaluationSuspended{Evaluation: evaluationID, SuspendedAt: at}, true
	case LockActionUnlocked:
		return EvaluationUnlocked{Evaluation: evaluationID, UnlockedAt: at}, true
	case LockActionWithdrawn:
		return EvaluationWithdrawn{Evaluation: evaluationID, WithdrawnAt: at}, true
	}
	return nil, false
}
