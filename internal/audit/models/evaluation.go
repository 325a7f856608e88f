package models

import (
	"slices"
	"time"

	id "qualityaudit/pkg/domain"
	"qualityaudit/pkg/platform/clock"
)

// Suspension records when an evaluation was temporarily locked.
type Suspension struct {
	SuspendedAt time.Time
}

// Withdrawal records when an evaluation was permanently locked.
type Withdrawal struct {
	WithdrawnAt time.Time
}

// Evaluation is one recorded audit outcome inside a QualityAudit.
//
// Invariants:
//   - report, owner and standard never change after recording
//   - the owner and the current manager never appear among the watchers
//   - withdrawal is terminal: a withdrawn evaluation is never suspended again
//     and cannot be unlocked
//   - evaluations are never deleted; replaced and locked ones stay as history
type Evaluation struct {
	id         id.EvaluationID
	ownerID    id.ClientID
	managerID  id.SupervisorID
	standardID id.StandardID
	report     EvaluationReport
	suspension *Suspension
	withdrawal *Withdrawal
	replacedBy *id.EvaluationID
	watchers   []WatcherID
}

func recordEvaluation(
	evaluationID id.EvaluationID,
	ownerID id.ClientID,
	managerID id.SupervisorID,
	standardID id.StandardID,
	report EvaluationReport,
) *Evaluation {
	return &Evaluation{
		id:         evaluationID,
		ownerID:    ownerID,
		managerID:  managerID,
		standardID: standardID,
		report:     report,
	}
}

// EvaluationState is the flat persisted form of an Evaluation.
type EvaluationState struct {
	ID         id.EvaluationID
	OwnerID    id.ClientID
	ManagerID  id.SupervisorID
	StandardID id.StandardID
	Report     EvaluationReport
	Suspension *Suspension
	Withdrawal *Withdrawal
	ReplacedBy *id.EvaluationID
	Watchers   []WatcherID
}

// RestoreEvaluation rebuilds a persisted evaluation. Stores use it; domain
// code records evaluations through QualityAudit.RecordEvaluation.
func RestoreEvaluation(s EvaluationState) *Evaluation {
	return &Evaluation{
		id:         s.ID,
		ownerID:    s.OwnerID,
		managerID:  s.ManagerID,
		standardID: s.StandardID,
		report:     s.Report,
		suspension: s.Suspension,
		withdrawal: s.Withdrawal,
		replacedBy: s.ReplacedBy,
		watchers:   slices.Clone(s.Watchers),
	}
}

// State returns a copy of the evaluation in its persisted form.
func (e *Evaluation) State() EvaluationState {
	return EvaluationState{
		ID:         e.id,
		OwnerID:    e.ownerID,
		ManagerID:  e.managerID,
		StandardID: e.standardID,
		Report:     e.report,
		Suspension: e.suspension,
		Withdrawal: e.withdrawal,
		ReplacedBy: e.replacedBy,
		Watchers:   slices.Clone(e.watchers),
	}
}

func (e *Evaluation) ID() id.EvaluationID { return e.id }
func (e *Evaluation) OwnerID() id.ClientID { return e.ownerID }
func (e *Evaluation) ManagerID() id.SupervisorID { return e.managerID }
func (e *Evaluation) StandardID() id.StandardID { return e.standardID }
func (e *Evaluation) Report() EvaluationReport { return e.report }
func (e *Evaluation) Suspension() *Suspension { return e.suspension }
func (e *Evaluation) Withdrawal() *Withdrawal { return e.withdrawal }
func (e *Evaluation) Watchers() []WatcherID { return slices.Clone(e.watchers) }

// ReplacedBy returns the evaluation that superseded this one, if any.
func (e *Evaluation) ReplacedBy() (id.EvaluationID, bool) {
	if e.replacedBy == nil {
		return id.EvaluationID{}, false
	}
	return *e.replacedBy, true
}

func (e *Evaluation) IsExpired(clk clock.Clock) bool {
	return e.IsExpiredOn(clk.Now())
}

// IsExpiredOn is strict: the expiration instant itself is still valid.
func (e *Evaluation) IsExpiredOn(date time.Time) bool {
	return date.After(e.report.expirationDate)
}

func (e *Evaluation) IsSuspended() bool { return e.suspension != nil }
func (e *Evaluation) IsWithdrawn() bool { return e.withdrawal != nil }
func (e *Evaluation) IsLocked() bool { return e.IsSuspended() || e.IsWithdrawn() }
func (e *Evaluation) IsReplaced() bool { return e.replacedBy != nil }

func (e *Evaluation) IsActive(clk clock.Clock) bool {
	return e.IsActiveOn(clk.Now())
}

func (e *Evaluation) IsActiveOn(date time.Time) bool {
	return !e.IsExpiredOn(date) && !e.IsReplaced() && !e.IsLocked()
}

func (e *Evaluation) markAsReplaced(by id.EvaluationID) {
	e.replacedBy = &by
}

// CanSuspend checks the suspension preconditions in their documented order.
func (e *Evaluation) CanSuspend(clk clock.Clock) error {
	if e.IsExpired(clk) {
		return ErrCannotLockExpired
	}
	if e.IsSuspended() {
		return ErrAlreadySuspended
	}
	if e.IsWithdrawn() {
		return ErrCannotSuspendWithdrawn
	}
	return nil
}

func (e *Evaluation) suspend(at time.Time, clk clock.Clock) error {
	if err := e.CanSuspend(clk); err != nil {
		return err
	}
	e.suspension = &Suspension{SuspendedAt: at}
	return nil
}

func (e *Evaluation) CanUnlock() error {
	if !e.IsSuspended() {
		return ErrCannotUnlock
	}
	return nil
}

func (e *Evaluation) unlock() error {
	if err := e.CanUnlock(); err != nil {
		return err
	}
	e.suspension = nil
	return nil
}

func (e *Evaluation) CanWithdraw(clk clock.Clock) error {
	if e.IsExpired(clk) {
		return ErrCannotLockExpired
	}
	if e.IsWithdrawn() {
		return ErrAlreadyWithdrawn
	}
	return nil
}

// withdraw clears any suspension so that a withdrawn evaluation has a single
// lock state and cannot be unlocked afterwards.
func (e *Evaluation) withdraw(at time.Time, clk clock.Clock) error {
	if err := e.CanWithdraw(clk); err != nil {
		return err
	}
	e.suspension = nil
	e.withdrawal = &Withdrawal{WithdrawnAt: at}
	return nil
}

// ChangeManager hands the evaluation to another supervisor. A new manager
// who was watching is dropped from the watchers.
func (e *Evaluation) ChangeManager(managerID id.SupervisorID) {
	e.managerID = managerID
	e.RemoveWatcher(SupervisorWatcher(managerID))
}

// AddWatcher registers interest in the evaluation. Adding an existing watcher
// is a no-op.
func (e *Evaluation) AddWatcher(watcher WatcherID) error {
	if clientID, ok := watcher.ClientID(); ok && clientID == e.ownerID {
		return ErrOwnerCannotBeWatcher
	}
	if supervisorID, ok := watcher.SupervisorID(); ok && supervisorID == e.managerID {
		return ErrManagerCannotBeWatcher
	}
	if slices.Contains(e.watchers, watcher) {
		return nil
	}
	e.watchers = append(e.watchers, watcher)
	return nil
}

// RemoveWatcher drops every entry equal to watcher. Absent watchers are ignored.
func (e *Evaluation) RemoveWatcher(watcher WatcherID) {
	e.watchers = slices.DeleteFunc(e.watchers, func(w WatcherID) bool {
		return w == watcher
	})
}
