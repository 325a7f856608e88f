package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	dErrors "qualityaudit/pkg/domain-errors"
	"qualityaudit/pkg/platform/sentinel"
)

// EvaluationFinder serves read-only lookups.
type EvaluationFinder struct {
	evaluations EvaluationRepository
	audits      QualityAuditRepository
	cfg         *serviceConfig
}

func NewEvaluationFinder(evaluations EvaluationRepository, audits QualityAuditRepository, opts ...Option) *EvaluationFinder {
	return &EvaluationFinder{
		evaluations: evaluations,
		audits:      audits,
		cfg:         newConfig(opts),
	}
}

func (f *EvaluationFinder) Evaluation(ctx context.Context, evaluationID id.EvaluationID) (*models.Evaluation, error) {
	ctx, span := f.cfg.tracer.Start(ctx, "EvaluationFinder.Evaluation",
		trace.WithAttributes(attribute.String("evaluation_id", evaluationID.String())))
	defer span.End()

	evaluation, err := f.evaluations.FindByID(ctx, evaluationID)
	if err != nil {
		return nil, wrapLookupErr(err, "evaluation not found", "failed to load evaluation")
	}
	return evaluation, nil
}

// MostRecent returns the evaluation with the latest audit date for the pair.
func (f *EvaluationFinder) MostRecent(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (*models.Evaluation, error) {
	ctx, span := f.cfg.startSpan(ctx, "EvaluationFinder.MostRecent", clientID, standardID)
	defer span.End()

	evaluation, err := f.evaluations.FindMostRecentFor(ctx, clientID, standardID)
	if err != nil {
		return nil, wrapLookupErr(err, "no evaluation found for client and standard", "failed to load evaluation")
	}
	return evaluation, nil
}

// Audit returns the whole aggregate with its history in insertion order.
func (f *EvaluationFinder) Audit(ctx context.Context, clientID id.ClientID, standardID id.StandardID) (*models.QualityAudit, error) {
	ctx, span := f.cfg.startSpan(ctx, "EvaluationFinder.Audit", clientID, standardID)
	defer span.End()

	return f.cfg.loadAudit(ctx, f.audits, clientID, standardID)
}

func wrapLookupErr(err error, notFound, internal string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}
