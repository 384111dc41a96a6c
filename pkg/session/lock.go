package session

import (
	"boulder/internal/locktable"
)

// Lock acquires every distinct bucket referenced by keys, per spec §4.6's
// lock algorithm. keys need not be presorted: Lock sorts them in place by
// the total order of spec §4.4 (lock_code ascending, Exclusive before
// Shared for equal lock_code) before walking left to right.
//
// For each index i, a real acquisition happens only if i is the first
// index or keys[i]'s bucket differs from keys[i-1]'s bucket — this
// deduplicates lock codes that collide in the same bucket, and because
// Exclusive sorts first for any given code, a code that needs any
// Exclusive hold is acquired Exclusive on its first occurrence, with every
// later Shared duplicate skipped as a no-op. Scenario S4 pins this for
// keys [(7,X),(7,S),(7,S),(8,S)].
//
// Lock wraps the whole walk in an EpochGuard acquired here, not by the
// caller (spec §4.6: "the entire lock/unlock operation is wrapped in an
// EpochGuard acquired inside the session").
func (s *Session[K, V, F]) Lock(keys []locktable.Key) error {
	s.mu.Lock()
	if s.state != stateAcquired {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.mu.Unlock()

	guard, err := s.token.ResumeThread()
	if err != nil {
		return err
	}
	defer guard.SuspendThread()

	locktable.SortKeys(keys)
	buckets := s.bucketsOf(keys)

	for i, k := range keys {
		if i != 0 && buckets[i] == buckets[i-1] {
			continue
		}
		s.retryAcquire(k, locktable.Acquire)
		s.bumpCount(k.LockType, 1)
	}
	return nil
}

// Unlock releases every distinct bucket referenced by keys, walking the
// array right to left but selecting the same representative per group as
// Lock does: the leftmost element (i == 0, or keys[i]'s bucket differs from
// keys[i-1]'s). That representative is always the key Lock actually
// acquired — the Exclusive key when a code needs one, since Exclusive sorts
// first — so Unlock must release that same key, not the rightmost, or the
// acquired hold is never released (spec §4.6, property 4). keys are sorted
// in place, exactly as Lock does.
func (s *Session[K, V, F]) Unlock(keys []locktable.Key) error {
	s.mu.Lock()
	if s.state != stateAcquired {
		s.mu.Unlock()
		return ErrInvalidState
	}
	s.mu.Unlock()

	guard, err := s.token.ResumeThread()
	if err != nil {
		return err
	}
	defer guard.SuspendThread()

	locktable.SortKeys(keys)
	buckets := s.bucketsOf(keys)

	for i := len(keys) - 1; i >= 0; i-- {
		if i != 0 && buckets[i] == buckets[i-1] {
			continue
		}
		s.retryAcquire(keys[i], locktable.Release)
		s.bumpCount(keys[i].LockType, -1)
	}
	return nil
}

func (s *Session[K, V, F]) bucketsOf(keys []locktable.Key) []uint64 {
	buckets := make([]uint64, len(keys))
	for i, k := range keys {
		buckets[i] = s.table.BucketIndex(k.LockCode)
	}
	return buckets
}

// retryAcquire loops InternalLock until it reports Success, per spec §4.4:
// "Internal" retry signals (RETRY_NOW) are never surfaced to the caller.
func (s *Session[K, V, F]) retryAcquire(key locktable.Key, op locktable.Op) {
	for s.table.InternalLock(key, op) != locktable.Success {
	}
}

func (s *Session[K, V, F]) bumpCount(lt locktable.LockType, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lt == locktable.Exclusive {
		s.exclusiveLockCount = uint64(int64(s.exclusiveLockCount) + delta)
	} else {
		s.sharedLockCount = uint64(int64(s.sharedLockCount) + delta)
	}
}
