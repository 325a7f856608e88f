package models

import (
	"slices"
	"time"

	id "qualityaudit/pkg/domain"
	"qualityaudit/pkg/platform/clock"
)

const (
	// PositiveEvaluationDelayDays is the minimum gap after a positive evaluation.
	PositiveEvaluationDelayDays = 180
	// NegativeEvaluationDelayDays is the minimum gap after a negative evaluation.
	NegativeEvaluationDelayDays = 30
)

// QualityAudit is the aggregate root for every evaluation of one client
// against one standard.
//
// Invariants:
//   - every evaluation shares the audit's client and standard
//   - a new evaluation respects the cadence gap after the most recent one
//     (by audit date): 180 days after a positive, 30 days after a negative
//   - recording a positive evaluation supersedes the positive evaluation that
//     is still active on the new audit date
//   - lock transitions act on the current evaluation, the one appended last
//
// # Two selection rules
//
// "Current" is insertion order and drives locking and watcher commands.
// "Most recent" is the maximum audit date and drives the cadence check.
// They differ when evaluations are recorded out of chronological order, and
// they must stay separate.
//
// Every command validates before it mutates, so a rejected command leaves the
// aggregate untouched.
type QualityAudit struct {
	clientID    id.ClientID
	standardID  id.StandardID
	evaluations []*Evaluation
	events      []Event
}

func NewQualityAudit(clientID id.ClientID, standardID id.StandardID) *QualityAudit {
	return &QualityAudit{clientID: clientID, standardID: standardID}
}

// RestoreQualityAudit rebuilds a persisted audit with its evaluations in
// insertion order. The pending event queue starts empty.
func RestoreQualityAudit(clientID id.ClientID, standardID id.StandardID, evaluations []*Evaluation) *QualityAudit {
	return &QualityAudit{
		clientID:    clientID,
		standardID:  standardID,
		evaluations: slices.Clone(evaluations),
	}
}

func (a *QualityAudit) ClientID() id.ClientID { return a.clientID }
func (a *QualityAudit) StandardID() id.StandardID { return a.standardID }

// Evaluations returns the history in insertion order.
func (a *QualityAudit) Evaluations() []*Evaluation {
	return slices.Clone(a.evaluations)
}

// RecordEvaluation appends a new evaluation performed by supervisorID.
// Cadence is checked first, then the report invariants. No event is queued.
func (a *QualityAudit) RecordEvaluation(
	supervisorID id.SupervisorID,
	rating Rating,
	auditDate time.Time,
	expirationDate time.Time,
	clk clock.Clock,
) (*Evaluation, error) {
	if err := a.validateCadence(auditDate); err != nil {
		return nil, err
	}

	report, err := NewEvaluationReport(rating, auditDate, expirationDate, a.standardID, clk)
	if err != nil {
		return nil, err
	}

	evaluation := recordEvaluation(id.NewEvaluationID(), a.clientID, supervisorID, a.standardID, report)

	if rating.IsPositive() {
		if prior := a.findActivePositiveOn(auditDate); prior != nil {
			prior.markAsReplaced(evaluation.id)
		}
	}

	a.evaluations = append(a.evaluations, evaluation)
	return evaluation, nil
}

func (a *QualityAudit) validateCadence(auditDate time.Time) error {
	reference := a.mostRecent()
	if reference == nil {
		return nil
	}

	required, kind := NegativeEvaluationDelayDays, AfterNegative
	if reference.report.rating.IsPositive() {
		required, kind = PositiveEvaluationDelayDays, AfterPositive
	}

	passed := DaysBetween(reference.report.auditDate, auditDate)
	if passed < required {
		return &AuditTooSoonError{Kind: kind, RequiredDays: required, PassedDays: passed}
	}
	return nil
}

// DaysBetween counts whole calendar days between two instants regardless of
// their order. Both are read as wall-clock time in to's location, so a DST
// change in between does not shorten the count and a reference loaded back
// in UTC is measured in the caller's zone.
func DaysBetween(from, to time.Time) int {
	d := wallClock(to).Sub(wallClock(from.In(to.Location())))
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// mostRecent picks the evaluation with the latest audit date. Ties keep the
// earlier-appended evaluation.
func (a *QualityAudit) mostRecent() *Evaluation {
	var latest *Evaluation
	for _, e := range a.evaluations {
		if latest == nil || e.report.auditDate.After(latest.report.auditDate) {
			latest = e
		}
	}
	return latest
}

func (a *QualityAudit) findActivePositiveOn(date time.Time) *Evaluation {
	for _, e := range a.evaluations {
		if e.report.rating.IsPositive() && e.IsActiveOn(date) {
			return e
		}
	}
	return nil
}

// Current returns the last-appended evaluation.
func (a *QualityAudit) Current() (*Evaluation, error) {
	if len(a.evaluations) == 0 {
		return nil, ErrNoEvaluations
	}
	return a.evaluations[len(a.evaluations)-1], nil
}

// MostRecent returns the evaluation with the latest audit date.
func (a *QualityAudit) MostRecent() (*Evaluation, bool) {
	latest := a.mostRecent()
	return latest, latest != nil
}

func (a *QualityAudit) SuspendCurrent(clk clock.Clock) error {
	current, err := a.Current()
	if err != nil {
		return err
	}
	now := clk.Now()
	if err := current.suspend(now, clk); err != nil {
		return err
	}
	a.recordEvent(EvaluationSuspended{Evaluation: current.id, SuspendedAt: now})
	return nil
}

func (a *QualityAudit) UnlockCurrent(clk clock.Clock) error {
	current, err := a.Current()
	if err != nil {
		return err
	}
	if err := current.unlock(); err != nil {
		return err
	}
	a.recordEvent(EvaluationUnlocked{Evaluation: current.id, UnlockedAt: clk.Now()})
	return nil
}

func (a *QualityAudit) WithdrawCurrent(clk clock.Clock) error {
	current, err := a.Current()
	if err != nil {
		return err
	}
	now := clk.Now()
	if err := current.withdraw(now, clk); err != nil {
		return err
	}
	a.recordEvent(EvaluationWithdrawn{Evaluation: current.id, WithdrawnAt: now})
	return nil
}

// PendingEvents returns the queued events without draining them, so a store
// can write them in the same save as the evaluations.
func (a *QualityAudit) PendingEvents() []Event {
	return slices.Clone(a.events)
}

// PopEvents drains the pending events. A second call returns nothing until a
// new transition is recorded.
func (a *QualityAudit) PopEvents() []Event {
	events := a.events
	a.events = nil
	return events
}

func (a *QualityAudit) recordEvent(e Event) {
	a.events = append(a.events, e)
}
