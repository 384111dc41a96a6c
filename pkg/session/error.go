package session

import "errors"

var (
	// ErrInvalidState is returned for violations of the Begin/EndLockable
	// state machine or the lock-count invariants (spec §4.6, §7
	// LockProtocol).
	ErrInvalidState = errors.New("session: invalid lock state")
	// ErrNotFound is returned by Read when the key has no entry.
	ErrNotFound = errors.New("session: key not found")
	// ErrRecordUnavailable is returned when a record refuses an operation
	// (e.g. ConcurrentReader on a sealed record, ConcurrentDeleter
	// declining to delete).
	ErrRecordUnavailable = errors.New("session: record unavailable")
	// ErrCancelled is returned by async point operations whose context was
	// cancelled before the underlying work completed (spec §5
	// Cancellation).
	ErrCancelled = errors.New("session: operation cancelled")
)
