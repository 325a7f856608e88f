package qualityaudit_test

import (
	"time"

	"qualityaudit/internal/audit/models"
	id "qualityaudit/pkg/domain"
	"qualityaudit/pkg/platform/clock"
	"qualityaudit/pkg/testutil"
)

var testClock = clock.Fixed{At: testutil.MustDate("2025-06-01")}

// populatedAudit returns an audit holding a replaced positive, a suspended
// positive that replaced it and one client watcher on the current evaluation.
func populatedAudit(supervisorID id.SupervisorID) (*models.QualityAudit, id.ClientID) {
	audit := models.NewQualityAudit(id.NewClientID(), id.NewStandardID())
	mustRecord(audit, supervisorID, "2024-01-01", "2025-01-01")
	mustRecord(audit, supervisorID, "2024-07-01", "2026-01-01")

	watcher := id.NewClientID()
	current, err := audit.Current()
	if err != nil {
		panic(err)
	}
	if err := current.AddWatcher(models.ClientWatcher(watcher)); err != nil {
		panic(err)
	}
	if err := audit.SuspendCurrent(testClock); err != nil {
		panic(err)
	}
	audit.PopEvents()
	return audit, watcher
}

func mustRecord(audit *models.QualityAudit, supervisorID id.SupervisorID, auditDate, expirationDate string) *models.Evaluation {
	evaluation, err := audit.RecordEvaluation(
		supervisorID,
		models.RatingPositive,
		testutil.MustDate(auditDate),
		testutil.MustDate(expirationDate),
		testClock,
	)
	if err != nil {
		panic(err)
	}
	return evaluation
}

func dates(e *models.Evaluation) (time.Time, time.Time) {
	return e.Report().AuditDate(), e.Report().ExpirationDate()
}

// pendingSuspension returns an audit whose current evaluation was just
// suspended, with the suspend event still pending.
func pendingSuspension() *models.QualityAudit {
	audit := models.NewQualityAudit(id.NewClientID(), id.NewStandardID())
	mustRecord(audit, id.NewSupervisorID(), "2024-07-01", "2026-01-01")
	if err := audit.SuspendCurrent(testClock); err != nil {
		panic(err)
	}
	return audit
}
