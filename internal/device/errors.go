package device

import "errors"

var (
	// ErrDisposed is returned by operations attempted against a Device (or
	// its SegmentTable) after Dispose has run. Spec Design Note §9 Open
	// Question (b): the source's GetOrAddHandle path mixes teardown with
	// construction by disposing every pool in the table upon observing
	// disposed and then still returning the just-created pair; this
	// implementation resolves that racily-specified behavior by atomically
	// rejecting insertion after dispose and returning this error instead.
	ErrDisposed = errors.New("device: disposed")

	// ErrSegmentNotFound is returned by GetFileSize and RemoveSegment for a
	// segment_id the device has no record of.
	ErrSegmentNotFound = errors.New("device: segment not found")
)

// errU32Max is the callback ABI's "other failure" sentinel (spec §4.3 step
// 8 / §6): 0 on success, low 16 bits of the OS error on I/O failure,
// 0xFFFFFFFF for everything else (pool exhaustion, disposal, panics).
const errU32Max uint32 = 0xFFFFFFFF
