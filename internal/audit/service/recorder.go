package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
)

const commandRecordEvaluation = "record_evaluation"

// AuditRecorder records evaluations for a client against a standard.
type AuditRecorder struct {
	contracts ContractRepository
	audits    QualityAuditRepository
	cfg       *serviceConfig
}

func NewAuditRecorder(contracts ContractRepository, audits QualityAuditRepository, opts ...Option) *AuditRecorder {
	return &AuditRecorder{
		contracts: contracts,
		audits:    audits,
		cfg:       newConfig(opts),
	}
}

// RecordEvaluation checks the contract and the supervisor's authority, then
// records the evaluation on the (client, standard) audit, creating the audit
// on first use.
//
// Errors:
//   - models.ErrNoActiveContract, models.ErrSupervisorNotAuthorized (CodeForbidden)
//   - models.ErrAuditDateInFuture, models.ErrExpirationTooEarly,
//     models.ErrCannotAuditTooSoon (CodeInvariantViolation)
func (r *AuditRecorder) RecordEvaluation(
	ctx context.Context,
	client models.Client,
	supervisor models.Supervisor,
	standard models.Standard,
	rating models.Rating,
	auditDate time.Time,
	expirationDate time.Time,
) (evaluation *models.Evaluation, err error) {
	ctx, span := r.cfg.startSpan(ctx, "AuditRecorder.RecordEvaluation", client.ID, standard.ID)
	defer func() { r.cfg.finish(ctx, span, commandRecordEvaluation, err) }()

	if !rating.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid rating: "+rating.String())
	}
	if err := r.cfg.hasActiveContract(ctx, r.contracts, client.ID, supervisor.ID); err != nil {
		return nil, err
	}
	if !supervisor.HasAuthorityFor(standard.ID) {
		return nil, fmt.Errorf("%w: supervisor %s, standard %s", models.ErrSupervisorNotAuthorized, supervisor.ID, standard.Name)
	}

	var replaced bool
	err = r.cfg.locker.WithLock(ctx, auditKey(client.ID, standard.ID), func(ctx context.Context) error {
		audit, err := r.findOrCreate(ctx, client.ID, standard.ID)
		if err != nil {
			return err
		}

		evaluation, err = audit.RecordEvaluation(supervisor.ID, rating, auditDate, expirationDate, r.cfg.clock)
		if err != nil {
			return err
		}
		replaced = replacedBy(audit, evaluation.ID())

		return saveAudit(ctx, r.audits, audit)
	})
	if err != nil {
		return nil, err
	}

	if r.cfg.metrics != nil {
		r.cfg.metrics.IncrementRecorded(rating.String())
		if replaced {
			r.cfg.metrics.IncrementReplaced()
		}
	}
	r.cfg.logger.InfoContext(ctx, "evaluation recorded",
		"evaluation_id", evaluation.ID().String(),
		"client_id", client.ID.String(),
		"standard_id", standard.ID.String(),
		"supervisor_id", supervisor.ID.String(),
		"rating", rating.String(),
		"replaced_prior", replaced,
	)
	return evaluation, nil
}

func (r *AuditRecorder) findOrCreate(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (*models.QualityAudit, error) {
	audit, err := r.cfg.loadAudit(ctx, r.audits, clientID, standardID)
	if errors.Is(err, models.ErrAuditNotFound) {
		return models.NewQualityAudit(clientID, standardID), nil
	}
	return audit, err
}

// replacedBy reports whether recording evaluationID superseded a prior one.
func replacedBy(audit *models.QualityAudit, evaluationID id.EvaluationID) bool {
	for _, e := range audit.Evaluations() {
		if by, ok := e.ReplacedBy(); ok && by == evaluationID {
			return true
		}
	}
	return false
}
