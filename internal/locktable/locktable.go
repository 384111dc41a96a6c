// Package locktable implements the contract boundary of spec §4.4: a table
// that locks buckets (not keys) identified by a 64-bit lock_code, plus a
// minimal in-memory reference implementation so pkg/session has a real
// collaborator to drive. The hash index's own bucket structure (spec §3,
// Non-goals) is not implemented here — only the lock table's buckets,
// which are an explicitly in-scope part of this spec.
package locktable

import (
	"sort"
	"sync"

	"boulder/internal/hashutil"
)

// LockType distinguishes exclusive from shared holds on a bucket.
type LockType int

const (
	Shared LockType = iota
	Exclusive
)

// Status is the outcome of a single internal_lock attempt.
type Status int

const (
	// Success indicates the lock (or unlock) was applied.
	Success Status = iota
	// RetryNow indicates a transient contention signal; the caller loops
	// until Success (spec §4.4, §7: "Internal" retry signals are never
	// surfaced to session callers).
	RetryNow
)

// Op distinguishes a lock acquisition from a release.
type Op int

const (
	Acquire Op = iota
	Release
)

// DefaultBucketCount is the number of buckets the reference table hashes
// lock codes into. It has no bearing on correctness, only on contention.
const DefaultBucketCount = 1 << 14

// Key carries the lock code and the type of hold requested, per spec §3
// LockableKey.
type Key struct {
	LockCode uint64
	LockType LockType
}

// Less orders two keys by (lock_code, lock_type) such that for equal
// lock_code, Exclusive sorts before Shared (spec §4.4 Ordering rule). This
// total order is what makes cross-session lock acquisition deadlock-free:
// every session that needs any exclusive hold on a code acquires it
// exclusively on that code's first occurrence, before any shared duplicate.
func Less(a, b Key) bool {
	if a.LockCode != b.LockCode {
		return a.LockCode < b.LockCode
	}
	return a.LockType == Exclusive && b.LockType == Shared
}

// SortKeys sorts keys in place by the total order Less defines. Callers
// must sort before calling Table.BucketIndex-based deduplication in
// pkg/session; InternalLock itself assumes nothing about ordering.
func SortKeys(keys []Key) {
	sort.SliceStable(keys, func(i, j int) bool {
		return Less(keys[i], keys[j])
	})
}

type bucket struct {
	mu        sync.Mutex
	exclusive bool
	shared    int
}

// Table is the reference LockTable adapter: bucket_index derivation plus
// exclusive/shared acquire and release, and the debug-assertion predicates
// spec §4.4 requires.
type Table struct {
	buckets []bucket
}

// New constructs a table with the given bucket count (DefaultBucketCount if
// n is zero or negative).
func New(n int) *Table {
	if n <= 0 {
		n = DefaultBucketCount
	}
	return &Table{buckets: make([]bucket, n)}
}

// BucketIndex maps a lock code to its bucket via the stable hash of
// internal/hashutil, per spec §3: bucket_index = hash(lock_code) mod
// bucket_count.
func (t *Table) BucketIndex(lockCode uint64) uint64 {
	return hashutil.HashI64(lockCode) % uint64(len(t.buckets))
}

// InternalLock applies a single acquire or release against the bucket
// selected by key.LockCode, per spec §4.4. It returns RetryNow on
// contention that the caller is expected to loop on, and never blocks.
func (t *Table) InternalLock(key Key, op Op) Status {
	b := &t.buckets[t.BucketIndex(key.LockCode)]

	switch op {
	case Acquire:
		return t.acquire(b, key.LockType)
	case Release:
		return t.release(b, key.LockType)
	default:
		return Success
	}
}

func (t *Table) acquire(b *bucket, lt LockType) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch lt {
	case Exclusive:
		if b.exclusive || b.shared > 0 {
			return RetryNow
		}
		b.exclusive = true
		return Success
	case Shared:
		if b.exclusive {
			return RetryNow
		}
		b.shared++
		return Success
	default:
		return Success
	}
}

func (t *Table) release(b *bucket, lt LockType) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch lt {
	case Exclusive:
		b.exclusive = false
	case Shared:
		if b.shared > 0 {
			b.shared--
		}
	}
	return Success
}

// IsLockedExclusive reports whether the bucket holding lockCode is
// currently held exclusively. Intended for debug assertions only.
func (t *Table) IsLockedExclusive(lockCode uint64) bool {
	b := &t.buckets[t.BucketIndex(lockCode)]
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exclusive
}

// IsLockedShared reports whether the bucket holding lockCode currently has
// at least one shared holder. Intended for debug assertions only.
func (t *Table) IsLockedShared(lockCode uint64) bool {
	b := &t.buckets[t.BucketIndex(lockCode)]
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shared > 0
}

// IsLocked reports whether the bucket holding lockCode is held in any mode.
// Intended for debug assertions only.
func (t *Table) IsLocked(lockCode uint64) bool {
	b := &t.buckets[t.BucketIndex(lockCode)]
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exclusive || b.shared > 0
}
