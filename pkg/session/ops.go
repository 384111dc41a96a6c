package session

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// Read looks up key and, if present and not sealed/invalid, copies its
// value into dst via the functions pipeline's ConcurrentReader (spec §4.6,
// §4.7).
func (s *Session[K, V, F]) Read(key K, dst *V) error {
	guard, err := s.token.ResumeThread()
	if err != nil {
		return err
	}
	defer guard.SuspendThread()

	entry, ok := s.store.Lookup(key)
	if !ok {
		return ErrNotFound
	}

	if !s.fns.ConcurrentReader(key, entry.Value, dst, entry.Info) {
		var zero V
		s.fns.ReadCompletionCallback(key, zero, *dst, ErrRecordUnavailable)
		return ErrRecordUnavailable
	}
	s.fns.ReadCompletionCallback(key, entry.Value, *dst, nil)
	return nil
}

// Address identifies a record by its log position rather than by key. The
// hash index's tagged pointers that would make this a true O(1) addressed
// read are an explicit Non-goal (spec §1); ReadAtAddress here is a
// documented simplification that reads by key, for callers that already
// know which key an address corresponds to (e.g. replaying from a pending
// I/O context).
type Address uint64

// ReadAtAddress reads key's current value the same way Read does. See
// Address's doc comment for the simplification this makes relative to
// spec §4.6's addressed-read operation.
func (s *Session[K, V, F]) ReadAtAddress(_ Address, key K, dst *V) error {
	return s.Read(key, dst)
}

// Upsert inserts or overwrites key's value, routing through SingleWriter
// (fresh record) or ConcurrentWriter (existing record) per spec §4.6/§4.7.
func (s *Session[K, V, F]) Upsert(key K, value V) error {
	guard, err := s.token.ResumeThread()
	if err != nil {
		return err
	}
	defer guard.SuspendThread()

	entry, created := s.store.GetOrCreate(key)
	if created {
		if !s.fns.SingleWriter(key, value, &entry.Value) {
			return ErrRecordUnavailable
		}
		s.fns.PostSingleWriter(key, entry.Value, entry.Info)
		return nil
	}

	if !s.fns.ConcurrentWriter(key, value, &entry.Value, entry.Info) {
		return ErrRecordUnavailable
	}
	return nil
}

// RMW applies a read-modify-write against key: InitialUpdater for a fresh
// record, else InPlaceUpdater, falling back to CopyUpdater if the in-place
// attempt declines (spec §4.6/§4.7).
func (s *Session[K, V, F]) RMW(key K, input V) error {
	guard, err := s.token.ResumeThread()
	if err != nil {
		return err
	}
	defer guard.SuspendThread()

	entry, created := s.store.GetOrCreate(key)
	if created {
		if !s.fns.InitialUpdater(key, input, &entry.Value) {
			s.fns.RMWCompletionCallback(key, input, ErrRecordUnavailable)
			return ErrRecordUnavailable
		}
		s.fns.PostInitialUpdater(key, entry.Value, entry.Info)
		s.fns.RMWCompletionCallback(key, input, nil)
		return nil
	}

	if s.fns.InPlaceUpdater(key, input, &entry.Value, entry.Info) {
		s.fns.RMWCompletionCallback(key, input, nil)
		return nil
	}

	var updated V
	if !s.fns.CopyUpdater(key, input, entry.Value, &updated) {
		s.fns.RMWCompletionCallback(key, input, ErrRecordUnavailable)
		return ErrRecordUnavailable
	}
	entry.Value = updated
	s.fns.PostCopyUpdater(key, entry.Value, entry.Info)
	s.fns.RMWCompletionCallback(key, input, nil)
	return nil
}

// Delete marks key tombstoned via ConcurrentDeleter (spec §4.6/§4.7).
func (s *Session[K, V, F]) Delete(key K) error {
	guard, err := s.token.ResumeThread()
	if err != nil {
		return err
	}
	defer guard.SuspendThread()

	entry, ok := s.store.Lookup(key)
	if !ok {
		return ErrNotFound
	}
	if !s.fns.ConcurrentDeleter(key, &entry.Value, entry.Info) {
		return ErrRecordUnavailable
	}
	return nil
}

// future is a single-use result rendezvous backing the async point-op
// variants: the goroutine running the operation calls complete exactly
// once, and CompletePending collects the result later.
type future struct {
	done chan struct{}
	err  error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

func (f *future) complete(err error) {
	f.err = err
	close(f.done)
}

func (f *future) wait() error {
	<-f.done
	return f.err
}

// withCancellation races op against ctx, per spec §5 Cancellation: on
// cancellation it surfaces ErrCancelled without aborting op — op keeps
// running to completion in its own goroutine and its result is recorded
// for a later CompletePending to collect, matching "the inner task
// completes into the void."
//
// Async point operations do not wrap themselves in their own EpochGuard
// (spec §4.6: "Async variants do not wrap in the scoped guard because the
// store itself participates in epoch management across suspension
// points") — op (the synchronous operation it wraps) still acquires one
// internally, just on whichever goroutine ends up running it.
func (s *Session[K, V, F]) withCancellation(ctx context.Context, op func() error) error {
	f := newFuture()

	s.pendingMu.Lock()
	s.futures = append(s.futures, f)
	s.pendingMu.Unlock()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		f.complete(op())
	}()

	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ErrCancelled
	}
}

// ReadAsync is the cancellable async form of Read.
func (s *Session[K, V, F]) ReadAsync(ctx context.Context, key K, dst *V) error {
	return s.withCancellation(ctx, func() error { return s.Read(key, dst) })
}

// UpsertAsync is the cancellable async form of Upsert.
func (s *Session[K, V, F]) UpsertAsync(ctx context.Context, key K, value V) error {
	return s.withCancellation(ctx, func() error { return s.Upsert(key, value) })
}

// RMWAsync is the cancellable async form of RMW.
func (s *Session[K, V, F]) RMWAsync(ctx context.Context, key K, input V) error {
	return s.withCancellation(ctx, func() error { return s.RMW(key, input) })
}

// DeleteAsync is the cancellable async form of Delete.
func (s *Session[K, V, F]) DeleteAsync(ctx context.Context, key K) error {
	return s.withCancellation(ctx, func() error { return s.Delete(key) })
}

// CompletePending blocks until every outstanding async point operation
// issued so far has completed, returning their aggregated failures (if
// any) via a single go-multierror.Error.
func (s *Session[K, V, F]) CompletePending() error {
	s.pendingMu.Lock()
	futures := s.futures
	s.futures = nil
	s.pendingMu.Unlock()

	var result *multierror.Error
	for _, f := range futures {
		if err := f.wait(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// CompletePendingAsync is CompletePending's cancellable async form: if ctx
// is cancelled before every pending future resolves, it returns
// ErrCancelled while the drain continues in the background.
func (s *Session[K, V, F]) CompletePendingAsync(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- s.CompletePending() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ErrCancelled
	}
}
