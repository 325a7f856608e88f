// Package events moves lock events from the services to the lock history
// projector, either over Kafka or through an in-process channel.
package events

import (
	"encoding/json"
	"time"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
)

// Envelope types on the wire.
const (
	TypeEvaluationSuspended = "evaluation.suspended"
	TypeEvaluationUnlocked  = "evaluation.unlocked"
	TypeEvaluationWithdrawn = "evaluation.withdrawn"
)

var typeByAction = map[models.LockAction]string{
	models.LockActionSuspended: TypeEvaluationSuspended,
	models.LockActionUnlocked:  TypeEvaluationUnlocked,
	models.LockActionWithdrawn: TypeEvaluationWithdrawn,
}

var actionByType = map[string]models.LockAction{
	TypeEvaluationSuspended: models.LockActionSuspended,
	TypeEvaluationUnlocked:  models.LockActionUnlocked,
	TypeEvaluationWithdrawn: models.LockActionWithdrawn,
}

// Envelope is the JSON form of a lock event.
type Envelope struct {
	EventID      string    `json:"event_id"`
	Type         string    `json:"type"`
	EvaluationID string    `json:"evaluation_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Encode wraps event in an envelope carrying eventID.
func Encode(eventID id.EventID, event models.Event) ([]byte, error) {
	eventType, ok := typeByAction[event.Action()]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported lock action: "+string(event.Action()))
	}
	return json.Marshal(Envelope{
		EventID:      eventID.String(),
		Type:         eventType,
		EvaluationID: event.EvaluationID().String(),
		OccurredAt:   event.OccurredAt().UTC(),
	})
}

// Decode parses an envelope back into its event id and event. Any malformed
// field yields a CodeInvalidInput error.
func Decode(data []byte) (id.EventID, models.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return id.EventID{}, nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed lock event envelope")
	}
	eventID, err := id.ParseEventID(env.EventID)
	if err != nil {
		return id.EventID{}, nil, err
	}
	evaluationID, err := id.ParseEvaluationID(env.EvaluationID)
	if err != nil {
		return id.EventID{}, nil, err
	}
	if env.OccurredAt.IsZero() {
		return id.EventID{}, nil, dErrors.New(dErrors.CodeInvalidInput, "occurred_at is required")
	}
	action, ok := actionByType[env.Type]
	if !ok {
		return id.EventID{}, nil, dErrors.New(dErrors.CodeInvalidInput, "unknown lock event type: "+env.Type)
	}
	event, _ := models.NewLockEvent(action, evaluationID, env.OccurredAt.UTC())
	return eventID, event, nil
}
