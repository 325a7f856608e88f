package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, lockers and transports
// return these (optionally wrapped) so services can translate them into
// domain errors:
//   - ErrNotFound: the record does not exist in the store
//   - ErrConflict: a concurrent writer changed the record first
//   - ErrLockHeld: another process holds the key lock
//   - ErrUnavailable: the backing service cannot be reached
//
// Rule violations belong in pkg/domain-errors, not here.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrLockHeld    = errors.New("lock held")
	ErrUnavailable = errors.New("unavailable")
)
