// Package functions implements the FunctionsPipeline strategy object of
// spec §4.7: a generic adapter invoked at well-defined record lifecycle
// points, which wraps user-supplied callbacks and injects the
// store-mandated side effects on a record's metadata (pkg/record) that the
// store requires regardless of what the user's callbacks do.
//
// Functions is parameterized on the concrete user-functions type rather
// than expressed as a plain interface value, per spec Design Note §9
// ("model as a generic parameter to keep dispatch inlineable").
package functions

import "boulder/pkg/record"

// CommitPoint is the latest durable point a checkpoint completion callback
// reports, recorded on the owning session (spec §4.7).
type CommitPoint struct {
	SeqNum uint64
}

// Functions is the user-supplied callback set invoked at record lifecycle
// points. K and V are the store's key and value types.
type Functions[K comparable, V any] interface {
	SingleReader(key K, value V, dst *V) bool
	ConcurrentReader(key K, value V, dst *V) bool

	SingleWriter(key K, src V, dst *V) bool
	PostSingleWriter(key K, value V)
	ConcurrentWriter(key K, src V, dst *V) bool

	InitialUpdater(key K, input V, value *V) bool
	PostInitialUpdater(key K, value V)
	InPlaceUpdater(key K, input V, value *V) bool
	CopyUpdater(key K, input V, oldValue V, newValue *V) bool
	PostCopyUpdater(key K, value V)

	SingleDeleter(key K, value *V) bool
	ConcurrentDeleter(key K, value *V) bool

	DisposeSingleWriter(key K, value *V)
	DisposeCopyUpdater(key K, oldValue V, newValue *V)

	ReadCompletionCallback(key K, input V, output V, err error)
	RMWCompletionCallback(key K, input V, err error)
	CheckpointCompletionCallback(token string, point CommitPoint)
}

// CommitRecorder receives the latest commit point observed by a
// CheckpointCompletionCallback. pkg/session implements this so the adapter
// can record it without a direct import cycle back to pkg/session.
type CommitRecorder interface {
	RecordCommit(point CommitPoint)
}

// LockAssertion checks, for debug-assertion purposes only, whether lockCode
// is currently held in the required mode. It backs the ephemeral
// acquire/release no-ops below (spec §4.7: "Ephemeral (transient) locking
// is disabled in lockable mode — acquire/release functions simply assert
// the key is already held in the required mode and return success").
type LockAssertion func(lockCode uint64, exclusive bool) bool

// Adapter wraps a user Functions implementation and injects the
// store-mandated RecordInfo side effects described in spec §4.7.
type Adapter[K comparable, V any, F Functions[K, V]] struct {
	Inner    F
	Recorder CommitRecorder
	Assert   LockAssertion
}

// New constructs an Adapter around inner, optionally recording checkpoint
// commit points on recorder (nil is fine; no-op) and optionally asserting
// ephemeral lock holds via assert (nil is fine; always succeeds).
func New[K comparable, V any, F Functions[K, V]](inner F, recorder CommitRecorder, assert LockAssertion) *Adapter[K, V, F] {
	return &Adapter[K, V, F]{Inner: inner, Recorder: recorder, Assert: assert}
}

// ConcurrentReader refuses (returns false) if the record is sealed or
// invalid, before ever invoking the user's callback (spec §4.7).
func (a *Adapter[K, V, F]) ConcurrentReader(key K, value V, dst *V, info *record.Info) bool {
	if !info.ReadableByConcurrentReader() {
		return false
	}
	return a.Inner.ConcurrentReader(key, value, dst)
}

// SingleReader has no RecordInfo side effect; it runs under exclusive
// access to a record a reader is populating from disk, not a live record.
func (a *Adapter[K, V, F]) SingleReader(key K, value V, dst *V) bool {
	return a.Inner.SingleReader(key, value, dst)
}

// SingleWriter has no RecordInfo side effect of its own; PostSingleWriter
// carries the store-mandated dirty+modified set.
func (a *Adapter[K, V, F]) SingleWriter(key K, src V, dst *V) bool {
	return a.Inner.SingleWriter(key, src, dst)
}

// PostSingleWriter sets dirty+modified after the user's hook runs (spec
// §4.7).
func (a *Adapter[K, V, F]) PostSingleWriter(key K, value V, info *record.Info) {
	a.Inner.PostSingleWriter(key, value)
	info.SetDirtyAndModified()
}

// ConcurrentWriter sets dirty+modified only if the user's writer succeeds
// (spec §4.7: "After ... successful ConcurrentWriter").
func (a *Adapter[K, V, F]) ConcurrentWriter(key K, src V, dst *V, info *record.Info) bool {
	ok := a.Inner.ConcurrentWriter(key, src, dst)
	if ok {
		info.SetDirtyAndModified()
	}
	return ok
}

// InitialUpdater has no RecordInfo side effect of its own; PostInitialUpdater
// carries it.
func (a *Adapter[K, V, F]) InitialUpdater(key K, input V, value *V) bool {
	return a.Inner.InitialUpdater(key, input, value)
}

// PostInitialUpdater sets dirty+modified (spec §4.7).
func (a *Adapter[K, V, F]) PostInitialUpdater(key K, value V, info *record.Info) {
	a.Inner.PostInitialUpdater(key, value)
	info.SetDirtyAndModified()
}

// InPlaceUpdater sets dirty+modified only on success (spec §4.7).
func (a *Adapter[K, V, F]) InPlaceUpdater(key K, input V, value *V, info *record.Info) bool {
	ok := a.Inner.InPlaceUpdater(key, input, value)
	if ok {
		info.SetDirtyAndModified()
	}
	return ok
}

// CopyUpdater has no RecordInfo side effect of its own; PostCopyUpdater
// carries it.
func (a *Adapter[K, V, F]) CopyUpdater(key K, input V, oldValue V, newValue *V) bool {
	return a.Inner.CopyUpdater(key, input, oldValue, newValue)
}

// PostCopyUpdater sets dirty+modified (spec §4.7).
func (a *Adapter[K, V, F]) PostCopyUpdater(key K, value V, info *record.Info) {
	a.Inner.PostCopyUpdater(key, value)
	info.SetDirtyAndModified()
}

// SingleDeleter has no RecordInfo side effect of its own in this adapter;
// the caller (the store's internal delete routine) is responsible for
// marking the slot invalid, which is outside this spec's scope.
func (a *Adapter[K, V, F]) SingleDeleter(key K, value *V) bool {
	return a.Inner.SingleDeleter(key, value)
}

// ConcurrentDeleter sets tombstone (which implies dirty+modified) only on
// success (spec §4.7, §3 invariant).
func (a *Adapter[K, V, F]) ConcurrentDeleter(key K, value *V, info *record.Info) bool {
	ok := a.Inner.ConcurrentDeleter(key, value)
	if ok {
		info.SetTombstone()
	}
	return ok
}

func (a *Adapter[K, V, F]) DisposeSingleWriter(key K, value *V) {
	a.Inner.DisposeSingleWriter(key, value)
}

func (a *Adapter[K, V, F]) DisposeCopyUpdater(key K, oldValue V, newValue *V) {
	a.Inner.DisposeCopyUpdater(key, oldValue, newValue)
}

func (a *Adapter[K, V, F]) ReadCompletionCallback(key K, input V, output V, err error) {
	a.Inner.ReadCompletionCallback(key, input, output, err)
}

func (a *Adapter[K, V, F]) RMWCompletionCallback(key K, input V, err error) {
	a.Inner.RMWCompletionCallback(key, input, err)
}

// CheckpointCompletionCallback additionally records the latest commit
// point on the owning session (spec §4.7).
func (a *Adapter[K, V, F]) CheckpointCompletionCallback(token string, point CommitPoint) {
	a.Inner.CheckpointCompletionCallback(token, point)
	if a.Recorder != nil {
		a.Recorder.RecordCommit(point)
	}
}

// TryLockEphemeral asserts (in a debug build, via Assert) that lockCode is
// already held in the required mode, and always succeeds: ephemeral
// (transient) locking is disabled in lockable mode because the session's
// two-phase Lock/Unlock already holds the bucket for the whole operation
// (spec §4.7).
func (a *Adapter[K, V, F]) TryLockEphemeral(lockCode uint64, exclusive bool) bool {
	if a.Assert != nil {
		assertEphemeralHeld(a.Assert(lockCode, exclusive))
	}
	return true
}

// UnlockEphemeral is a no-op for the same reason as TryLockEphemeral.
func (a *Adapter[K, V, F]) UnlockEphemeral(uint64, bool) {}
