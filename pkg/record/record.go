// Package record implements per-record metadata flags: validity, seal,
// tombstone, and the dirty/modified pair the store maintains regardless of
// user code. The bit-packing style follows a single integer carrying
// several small fields, generalized to five independent flags.
package record

import "sync/atomic"

// Flag is a single bit of per-record metadata.
type Flag uint32

const (
	FlagValid Flag = 1 << iota
	FlagSealed
	FlagTombstone
	FlagDirty
	FlagModified
)

// Info holds a record's metadata flags, mutated under the store's
// per-record lock. Lock-free reads are allowed but must treat the state as
// potentially stale unless shared-locked. The flags are nonetheless stored
// atomically so that lock-free reads never observe a torn update.
type Info struct {
	bits atomic.Uint32
}

// New returns an Info with only FlagValid set, the state of a freshly
// inserted record.
func New() *Info {
	i := &Info{}
	i.bits.Store(uint32(FlagValid))
	return i
}

func (i *Info) has(f Flag) bool {
	return Flag(i.bits.Load())&f != 0
}

func (i *Info) set(f Flag) {
	for {
		cur := i.bits.Load()
		next := cur | uint32(f)
		if next == cur || i.bits.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (i *Info) clear(f Flag) {
	for {
		cur := i.bits.Load()
		next := cur &^ uint32(f)
		if next == cur || i.bits.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Valid reports whether the record is live (not yet invalidated by a
// reclaim or a failed in-place transition).
func (i *Info) Valid() bool { return i.has(FlagValid) }

// Sealed reports whether the record is temporarily unreadable by
// concurrent readers during an in-place transition.
func (i *Info) Sealed() bool { return i.has(FlagSealed) }

// Tombstone reports whether the record marks a logically deleted entry.
func (i *Info) Tombstone() bool { return i.has(FlagTombstone) }

// Dirty reports whether the record has unflushed modifications.
func (i *Info) Dirty() bool { return i.has(FlagDirty) }

// Modified reports whether the record has ever been modified since
// insertion.
func (i *Info) Modified() bool { return i.has(FlagModified) }

// SetInvalid clears FlagValid. Sealed or invalid records are skipped by
// concurrent readers (spec §3 invariant).
func (i *Info) SetInvalid() { i.clear(FlagValid) }

// Seal sets FlagSealed.
func (i *Info) Seal() { i.set(FlagSealed) }

// Unseal clears FlagSealed.
func (i *Info) Unseal() { i.clear(FlagSealed) }

// SetDirtyAndModified sets FlagDirty and FlagModified together. This is the
// store-mandated side effect applied after PostSingleWriter,
// PostInitialUpdater, PostCopyUpdater, and after a successful
// ConcurrentWriter, InPlaceUpdater, or ConcurrentDeleter (spec §4.7).
func (i *Info) SetDirtyAndModified() { i.set(FlagDirty | FlagModified) }

// SetTombstone sets FlagTombstone in addition to dirty+modified, the
// store-mandated side effect after a successful ConcurrentDeleter (spec
// §4.7). A deleted record has tombstone set and is also dirty+modified
// (spec §3 invariant).
func (i *Info) SetTombstone() {
	i.set(FlagTombstone | FlagDirty | FlagModified)
}

// ReadableByConcurrentReader reports whether a concurrent reader may
// observe this record: it must refuse sealed or invalid records (spec
// §4.7: "ConcurrentReader refuses (returns false) if the record is sealed
// or invalid").
func (i *Info) ReadableByConcurrentReader() bool {
	return i.Valid() && !i.Sealed()
}

// Bits returns the raw flag bitmask, for tests and diagnostics.
func (i *Info) Bits() Flag {
	return Flag(i.bits.Load())
}
