// Package faster is the top-level façade wiring internal/device,
// pkg/store, and pkg/session into a single openable handle, the way the
// teacher's pkg/boulder.go wires internal/db behind Open/Close. It is a
// supplemented feature (spec.md §1 scopes the public façade's "hundreds of
// overload shapes" out as peripheral, but a module built from this spec
// still needs one usable entry point end to end).
package faster

import (
	"path/filepath"

	"boulder/internal/device"
	"boulder/internal/locktable"
	"boulder/pkg/functions"
	"boulder/pkg/session"
	"boulder/pkg/store"
)

// logBaseName is the segment filename stem under the opened directory;
// segments land at "<directory>/log.<segment_id>" (spec §6).
const logBaseName = "log"

// Faster is an open store: a SegmentedDevice backing the log, a Store
// stand-in for the hash index (spec Non-goals), and a shared LockTable new
// sessions bind against. K and V are the store's key and value types; F is
// the concrete user Functions implementation each session is parameterized
// on (spec Design Note §9).
type Faster[K comparable, V any, F functions.Functions[K, V]] struct {
	device *device.Device
	table  *locktable.Table
	store  *store.Store[K, V]
}

// Open opens (creating if absent) a store rooted at directory: its log
// segments live under directory/log.<segment_id>.
func Open[K comparable, V any, F functions.Functions[K, V]](directory string, opts ...Option) (*Faster[K, V, F], error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	dev, err := device.New(filepath.Join(directory, logBaseName), cfg.deviceOpts...)
	if err != nil {
		return nil, err
	}

	bucketCount := cfg.lockBuckets
	return &Faster[K, V, F]{
		device: dev,
		table:  locktable.New(bucketCount),
		store:  store.New[K, V](),
	}, nil
}

// NewSession opens a LockableSession bound to this store's shared lock
// table and record store, driven by the caller's Functions implementation.
func (fa *Faster[K, V, F]) NewSession(fns F) *session.Session[K, V, F] {
	return session.New[K, V, F](fns,
		session.WithLockTable[K, V, F](fa.table),
		session.WithStore[K, V, F](fa.store),
	)
}

// Device exposes the underlying SegmentedDevice for callers (e.g. a log
// layer built atop this module) that need to issue raw segment I/O
// directly rather than through a session's point operations.
func (fa *Faster[K, V, F]) Device() *device.Device {
	return fa.device
}

// Close disposes the underlying device, closing every pooled handle and
// freeing the buffer pool (spec §4.3 Dispose).
func (fa *Faster[K, V, F]) Close() error {
	return fa.device.Dispose()
}
