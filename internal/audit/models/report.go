package models

import (
	"time"

	id "qualityaudit/pkg/domain"
	"qualityaudit/pkg/platform/clock"
)

// MinimumValidityDays is the shortest allowed span between an audit and the
// expiration of its report.
const MinimumValidityDays = 180

// EvaluationReport is the immutable outcome of a single audit.
//
// Invariants (checked at creation only):
//   - auditDate is not after the clock's current instant
//   - expirationDate is at least MinimumValidityDays calendar days after auditDate
type EvaluationReport struct {
	rating         Rating
	auditDate      time.Time
	expirationDate time.Time
	standardID     id.StandardID
}

// NewEvaluationReport validates and builds a report. An audit dated exactly
// now, or expiring exactly 180 days later, is accepted.
func NewEvaluationReport(
	rating Rating,
	auditDate time.Time,
	expirationDate time.Time,
	standardID id.StandardID,
	clk clock.Clock,
) (EvaluationReport, error) {
	if auditDate.After(clk.Now()) {
		return EvaluationReport{}, ErrAuditDateInFuture
	}
	minimum := auditDate.AddDate(0, 0, MinimumValidityDays)
	if expirationDate.Before(minimum) {
		return EvaluationReport{}, ErrExpirationTooEarly
	}
	return EvaluationReport{
		rating:         rating,
		auditDate:      auditDate,
		expirationDate: expirationDate,
		standardID:     standardID,
	}, nil
}

// RestoreEvaluationReport rebuilds a persisted report without re-validating
// it against the current time.
func RestoreEvaluationReport(rating Rating, auditDate, expirationDate time.Time, standardID id.StandardID) EvaluationReport {
	return EvaluationReport{
		rating:         rating,
		auditDate:      auditDate,
		expirationDate: expirationDate,
		standardID:     standardID,
	}
}

func (r EvaluationReport) Rating() Rating { return r.rating }
func (r EvaluationReport) AuditDate() time.Time { return r.auditDate }
func (r EvaluationReport) ExpirationDate() time.Time { return r.expirationDate }
func (r EvaluationReport) StandardID() id.StandardID { return r.standardID }
