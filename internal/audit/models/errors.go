package models

import (
	"fmt"

	dErrors "qualityaudit/pkg/domain-errors"
)

// Rule violations. Each is a distinct value so callers can use errors.Is, and
// each carries a code so transports can map it without knowing the domain.
var (
	ErrNoActiveContract        = dErrors.New(dErrors.CodeForbidden, "no active contract between client and supervisor")
	ErrSupervisorNotAuthorized = dErrors.New(dErrors.CodeForbidden, "supervisor is not authorized for standard")

	ErrAuditDateInFuture  = dErrors.New(dErrors.CodeInvariantViolation, "audit date cannot be in the future")
	ErrExpirationTooEarly = dErrors.New(dErrors.CodeInvariantViolation, "expiration date must be at least 180 days from audit date")
	ErrCannotAuditTooSoon = dErrors.New(dErrors.CodeInvariantViolation, "cannot audit too soon after prior evaluation")

	ErrAlreadySuspended       = dErrors.New(dErrors.CodeConflict, "evaluation is already suspended")
	ErrAlreadyWithdrawn       = dErrors.New(dErrors.CodeConflict, "evaluation is already withdrawn")
	ErrCannotSuspendWithdrawn = dErrors.New(dErrors.CodeConflict, "cannot suspend withdrawn evaluation")
	ErrCannotUnlock           = dErrors.New(dErrors.CodeConflict, "cannot unlock: evaluation is not suspended")
	ErrCannotLockExpired      = dErrors.New(dErrors.CodeConflict, "cannot lock expired evaluation")

	ErrOwnerCannotBeWatcher   = dErrors.New(dErrors.CodeConflict, "owner cannot be added as watcher")
	ErrManagerCannotBeWatcher = dErrors.New(dErrors.CodeConflict, "manager cannot be added as watcher")

	// ErrNoEvaluations means a lock or watcher command reached an audit with an
	// empty history. That is an integration bug, not a rejected command.
	ErrNoEvaluations = dErrors.New(dErrors.CodeInternal, "no evaluations exist")
	ErrAuditNotFound = dErrors.New(dErrors.CodeNotFound, "no audit found for client and standard")
)

// CadenceKind names which rating of the reference evaluation set the minimum gap.
type CadenceKind string

const (
	AfterPositive CadenceKind = "after_positive"
	AfterNegative CadenceKind = "after_negative"
)

// AuditTooSoonError reports a cadence violation. It matches
// ErrCannotAuditTooSoon under errors.Is and carries its code.
type AuditTooSoonError struct {
	Kind         CadenceKind
	RequiredDays int
	PassedDays   int
}

func (e *AuditTooSoonError) Error() string {
	prior := "positive"
	if e.Kind == AfterNegative {
		prior = "negative"
	}
	return fmt.Sprintf("cannot audit within %d days of prior %s evaluation (required: %d days, passed: %d days)",
		e.RequiredDays, prior, e.RequiredDays, e.PassedDays)
}

func (e *AuditTooSoonError) Unwrap() error {
	return ErrCannotAuditTooSoon
}
