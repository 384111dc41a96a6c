// Package device implements the Segmented Direct-I/O Device of spec §4.3:
// a log-structured storage device that multiplexes large append-only logs
// across numbered segments, serving concurrent asynchronous positioned
// reads and writes against pooled file handles opened (on POSIX) with
// direct I/O.
package device

import (
	"context"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"boulder/internal/arch"
	"boulder/internal/handlepool"
	"boulder/internal/posio"
)

// Callback is the device's completion ABI (spec §6): invoked exactly once
// per issued I/O, from a worker goroutine. errorCode is 0 on success, the
// low 16 bits of the OS error on an I/O failure, or 0xFFFFFFFF for any
// other failure (pool exhaustion, disposal, panic).
type Callback func(errorCode uint32, bytesTransferred uint32, userCtx any)

// Device is the SegmentedDevice of spec §4.3.
type Device struct {
	baseFilename string

	sectorSize      int
	segmentSize     int64
	capacity        int
	preallocateFile bool
	osReadBuffering bool
	deleteOnClose   bool
	recoverDevice   bool
	workers         int

	table   *segmentTable
	buffers *bufferPool
	pool    *workerPool

	inFlight arch.AtomicInt

	startSegment int64
	endSegment   int64

	disposed atomic.Bool
}

// SectorSize is assumed 512 on POSIX (spec §3 DeviceState, §6).
const SectorSize = 512

// New constructs a SegmentedDevice rooted at baseFilename (segments are
// named "<baseFilename>.<segment_id>"); the base's directory is created if
// absent. If WithRecoverDevice is set, existing segment files are
// enumerated to recompute start_segment/end_segment before New returns.
func New(baseFilename string, opts ...Option) (*Device, error) {
	if err := ensureDir(baseFilename); err != nil {
		return nil, err
	}

	d := &Device{
		baseFilename: baseFilename,
		sectorSize:   SectorSize,
		capacity:     handlepool.DefaultCapacity,
		endSegment:   -1,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.table = newSegmentTable()
	chunkSize := int(d.segmentSize)
	if chunkSize <= 0 || chunkSize > 1<<20 {
		chunkSize = 1 << 20 // 1 MiB staging chunks when segments are unbounded or huge
	}
	d.buffers = newBufferPool(chunkSize, 2*d.capacity)
	d.pool = newWorkerPool(d.workers)

	if d.recoverDevice {
		if err := d.recover(); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// StartSegment returns the lowest segment_id in the contiguous run ending
// at EndSegment, as computed by recovery (spec §3 DeviceState).
func (d *Device) StartSegment() int64 { return d.startSegment }

// EndSegment returns the highest known segment_id, or -1 if none.
func (d *Device) EndSegment() int64 { return d.endSegment }

// InFlightCount returns the number of I/O operations currently issued but
// not yet completed.
func (d *Device) InFlightCount() int64 { return int64(d.inFlight.Load()) }

func (d *Device) buildPools(segmentID int64) (*pools, error) {
	readPool := handlepool.New(d.capacity,
		func() (*Handle, error) { return d.newReadHandle(segmentID) },
		closeHandle)
	writePool := handlepool.New(d.capacity,
		func() (*Handle, error) { return d.newWriteHandle(segmentID) },
		closeHandle)
	return &pools{read: readPool, write: writePool}, nil
}

func (d *Device) getPools(segmentID int64) (*pools, error) {
	return d.table.getOrAdd(segmentID, func() (*pools, error) {
		return d.buildPools(segmentID)
	})
}

// ReadAsync issues a positioned read of length bytes from segmentID at
// srcOffset into dst, invoking callback exactly once on completion (spec
// §4.3). It returns immediately; the read runs on the device's worker
// pool.
func (d *Device) ReadAsync(segmentID int64, srcOffset int64, dst []byte, length int, callback Callback, userCtx any) {
	d.inFlight.Add(arch.IntToArchSize(1))

	p, err := d.getPools(segmentID)
	if err != nil {
		d.inFlight.Add(arch.IntToArchSize(-1))
		callback(errU32Max, 0, userCtx)
		return
	}

	if h, ok := p.read.TryGet(); ok {
		d.pool.submit(func() { d.doRead(p.read, h, srcOffset, dst, length, callback, userCtx) })
		return
	}

	d.pool.submit(func() {
		h, err := p.read.GetAsync(context.Background())
		if err != nil {
			d.inFlight.Add(arch.IntToArchSize(-1))
			callback(errU32Max, 0, userCtx)
			return
		}
		d.doRead(p.read, h, srcOffset, dst, length, callback, userCtx)
	})
}

func (d *Device) doRead(pool *handlepool.Pool[*Handle], h *Handle, offset int64, dst []byte, length int, callback Callback, userCtx any) {
	defer func() {
		pool.Return(h)
		d.inFlight.Add(arch.IntToArchSize(-1))
	}()

	buf := d.buffers.get(length)
	defer d.buffers.put(buf)

	n, err := posio.Pread(h.file, buf, offset)
	if err != nil {
		callback(posio.OSErrorCode(err), 0, userCtx)
		return
	}
	copy(dst[:length], buf[:n])
	callback(0, uint32(n), userCtx)
}

// WriteAsync issues a positioned write of length bytes from src to
// segmentID at dstOffset, invoking callback exactly once on completion
// (spec §4.3). The handle is flushed (fsync) before it is returned to its
// pool, so durability on callback matches the log's invariants.
func (d *Device) WriteAsync(src []byte, segmentID int64, dstOffset int64, length int, callback Callback, userCtx any) {
	d.inFlight.Add(arch.IntToArchSize(1))

	p, err := d.getPools(segmentID)
	if err != nil {
		d.inFlight.Add(arch.IntToArchSize(-1))
		callback(errU32Max, 0, userCtx)
		return
	}

	if h, ok := p.write.TryGet(); ok {
		d.pool.submit(func() { d.doWrite(p.write, h, src, dstOffset, length, callback, userCtx) })
		return
	}

	d.pool.submit(func() {
		h, err := p.write.GetAsync(context.Background())
		if err != nil {
			d.inFlight.Add(arch.IntToArchSize(-1))
			callback(errU32Max, 0, userCtx)
			return
		}
		d.doWrite(p.write, h, src, dstOffset, length, callback, userCtx)
	})
}

func (d *Device) doWrite(pool *handlepool.Pool[*Handle], h *Handle, src []byte, offset int64, length int, callback Callback, userCtx any) {
	defer func() {
		pool.Return(h)
		d.inFlight.Add(arch.IntToArchSize(-1))
	}()

	buf := d.buffers.get(length)
	defer d.buffers.put(buf)
	copy(buf, src[:length])

	n, err := posio.Pwrite(h.file, buf, offset)
	if err != nil {
		callback(posio.OSErrorCode(err), 0, userCtx)
		return
	}
	if err := h.file.Sync(); err != nil {
		callback(posio.OSErrorCode(err), uint32(n), userCtx)
		return
	}
	callback(0, uint32(n), userCtx)
}

// GetFileSize returns segmentID's logical length in bytes: the fixed
// segment_size if one is configured, or the live file length otherwise
// (borrowing and returning a read handle without leaking it).
func (d *Device) GetFileSize(segmentID int64) (int64, error) {
	if d.segmentSize > 0 {
		return d.segmentSize, nil
	}

	p, err := d.getPools(segmentID)
	if err != nil {
		return 0, err
	}

	h, err := p.read.GetAsync(context.Background())
	if err != nil {
		return 0, err
	}
	defer p.read.Return(h)

	info, err := h.file.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// RemoveSegment disposes segmentID's pools and deletes its backing file.
// Removal is synchronous; RemoveSegmentAsync wraps the same work with a
// post-callback per spec §4.3's "(synchronous semantics + post-callback)".
func (d *Device) RemoveSegment(segmentID int64) error {
	if err := d.table.remove(segmentID); err != nil {
		return err
	}
	return removeSegmentFile(d.baseFilename, segmentID)
}

// RemoveSegmentAsync runs RemoveSegment on the worker pool and invokes
// callback with its result once complete.
func (d *Device) RemoveSegmentAsync(segmentID int64, callback func(error)) {
	d.pool.submit(func() { callback(d.RemoveSegment(segmentID)) })
}

// Reset drops every segment's pools (and deletes every segment file, if
// delete_on_close is configured), without closing the device itself.
func (d *Device) Reset() error {
	ids := d.table.ids()

	var result *multierror.Error
	if err := d.table.disposeAll(); err != nil {
		result = multierror.Append(result, err)
	}
	d.table = newSegmentTable()

	if d.deleteOnClose {
		for _, id := range ids {
			if err := removeSegmentFile(d.baseFilename, id); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}

// Dispose closes every pool and frees the buffer pool; deletes every
// segment file first if delete_on_close is configured. Dispose is
// idempotent.
func (d *Device) Dispose() error {
	if !d.disposed.CompareAndSwap(false, true) {
		return nil
	}

	ids := d.table.ids()

	var result *multierror.Error
	if err := d.table.disposeAll(); err != nil {
		result = multierror.Append(result, err)
	}

	if d.deleteOnClose {
		for _, id := range ids {
			if err := removeSegmentFile(d.baseFilename, id); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	d.pool.close()
	if err := d.buffers.close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
