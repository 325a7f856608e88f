package service

import (
	"context"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// ContractRepository answers whether a client and a supervisor are bound by
// an active contract.
type ContractRepository interface {
	HasActiveContract(ctx context.Context, clientID id.ClientID, supervisorID id.SupervisorID) (bool, error)
}

// QualityAuditRepository loads and saves whole aggregates. Save writes the
// audit's pending events to the outbox atomically with its evaluations.
// FindFor returns sentinel.ErrNotFound when the pair has no audit yet.
type QualityAuditRepository interface {
	Save(ctx context.Context, audit *models.QualityAudit) error
	FindFor(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (*models.QualityAudit, error)
}

// EvaluationRepository reads single evaluations. Lookups return
// sentinel.ErrNotFound when nothing matches.
type EvaluationRepository interface {
	Save(ctx context.Context, evaluation *models.Evaluation) error
	FindByID(ctx context.Context, evaluationID id.EvaluationID) (*models.Evaluation, error)
	FindMostRecentFor(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (*models.Evaluation, error)
}

// EventRelay delivers outbox entries to the event sink. Commands flush once
// their save has committed; entries left behind are retried by the relay.
type EventRelay interface {
	Flush(ctx context.Context) (int, error)
}

// KeyLocker runs fn while holding an exclusive lock on key. Commands on one
// audit run under its key so that load, mutate and save never interleave.
type KeyLocker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
