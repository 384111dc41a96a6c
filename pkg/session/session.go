// Package session implements the Lockable Session Core of spec §4.6: a
// per-session façade enforcing two-phase locking discipline over sorted key
// arrays, counting exclusive/shared holds, and routing point operations
// through the functions pipeline under epoch protection.
package session

import (
	"sync"

	"boulder/internal/epoch"
	"boulder/internal/locktable"
	"boulder/pkg/functions"
	"boulder/pkg/store"
)

// lockState is the Idle/Acquired state machine of spec §4.6.
type lockState int

const (
	stateIdle lockState = iota
	stateAcquired
)

// Keyed pairs a domain key with the lock code the caller derived for it.
// LockCode derivation (hashing the domain key down to a lock-table bucket
// selector) is the caller's responsibility, the same way spec §3 treats
// LockCode as a property attached to a key rather than computed by the
// session itself.
type Keyed[K comparable] struct {
	Key      K
	LockCode uint64
}

// Session is the Lockable Session Core. K and V are the store's key and
// value types; F is the concrete user Functions implementation, carried as
// a type parameter per spec Design Note §9.
type Session[K comparable, V any, F functions.Functions[K, V]] struct {
	table *locktable.Table
	store *store.Store[K, V]
	token *epoch.Token
	fns   *functions.Adapter[K, V, F]

	// mu protects only the lock-state machine fields below; a Session is
	// owned by one logical task at a time, but guarding these fields costs
	// nothing and protects against accidental misuse from a second
	// goroutine (spec §5: "the two-phase locking state machine is not
	// thread-safe within a session" — this mutex does not change that
	// contract, it only turns a data race into a predictable error).
	mu                sync.Mutex
	state             lockState
	exclusiveLockCount uint64
	sharedLockCount    uint64

	commit epoch.Watermark

	pending   sync.WaitGroup
	pendingMu sync.Mutex
	futures   []*future
}

// Option configures a Session at construction time.
type Option[K comparable, V any, F functions.Functions[K, V]] func(*Session[K, V, F])

// WithLockTable overrides the default-sized lock table.
func WithLockTable[K comparable, V any, F functions.Functions[K, V]](t *locktable.Table) Option[K, V, F] {
	return func(s *Session[K, V, F]) { s.table = t }
}

// WithStore overrides the default empty store, e.g. to share one store
// across several sessions.
func WithStore[K comparable, V any, F functions.Functions[K, V]](st *store.Store[K, V]) Option[K, V, F] {
	return func(s *Session[K, V, F]) { s.store = st }
}

// New constructs a Session wrapping the user's Functions implementation.
func New[K comparable, V any, F functions.Functions[K, V]](fns F, opts ...Option[K, V, F]) *Session[K, V, F] {
	s := &Session[K, V, F]{
		token: epoch.NewToken(),
		table: locktable.New(0),
		store: store.New[K, V](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fns = functions.New[K, V](fns, s, s.assertHeld)
	return s
}

// RecordCommit implements functions.CommitRecorder: the
// CheckpointCompletionCallback adapter hook records the latest commit point
// here (spec §4.7), via the same monotonic_update primitive (internal/epoch
// Watermark.Advance) spec §5's watermark advancement uses, rather than a
// hand-rolled compare-under-mutex.
func (s *Session[K, V, F]) RecordCommit(point functions.CommitPoint) {
	s.commit.Advance(point.SeqNum)
}

// LastCommitPoint returns the most recent commit point recorded via
// RecordCommit.
func (s *Session[K, V, F]) LastCommitPoint() functions.CommitPoint {
	return functions.CommitPoint{SeqNum: s.commit.Load()}
}

// assertHeld backs functions.LockAssertion: in lockable mode, ephemeral
// acquire/release are no-ops that assert the key is already held (spec
// §4.7).
func (s *Session[K, V, F]) assertHeld(lockCode uint64, exclusive bool) bool {
	if exclusive {
		return s.table.IsLockedExclusive(lockCode)
	}
	return s.table.IsLocked(lockCode)
}

// BeginLockable transitions Idle -> Acquired. It is an error to call it
// twice without an intervening EndLockable.
func (s *Session[K, V, F]) BeginLockable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateIdle {
		return ErrInvalidState
	}
	s.state = stateAcquired
	return nil
}

// EndLockable transitions Acquired -> Idle. It fails with ErrInvalidState
// if called outside Acquired, or if either lock counter is still nonzero
// (spec §4.6: "EndLockable in a state with non-zero lock counts fails with
// InvalidState").
func (s *Session[K, V, F]) EndLockable() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateAcquired {
		return ErrInvalidState
	}
	if s.exclusiveLockCount != 0 || s.sharedLockCount != 0 {
		return ErrInvalidState
	}
	s.state = stateIdle
	return nil
}

// ExclusiveLockCount returns the current count of held exclusive bucket
// locks.
func (s *Session[K, V, F]) ExclusiveLockCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exclusiveLockCount
}

// SharedLockCount returns the current count of held shared bucket locks.
func (s *Session[K, V, F]) SharedLockCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sharedLockCount
}

// Refresh renews the session's epoch protection without performing any
// operation, the periodic heartbeat FASTER-family stores expect a
// long-lived thread to issue between point operations.
func (s *Session[K, V, F]) Refresh() error {
	guard, err := s.token.ResumeThread()
	if err != nil {
		return err
	}
	guard.SuspendThread()
	return nil
}

