package device

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"boulder/internal/posio"
)

// Handle wraps a single open file handle belonging to one segment's read or
// write pool. It carries no state beyond the *os.File itself; positioned
// I/O (internal/posio) means many concurrent operations can share one
// handle without seek races, so the handle pool's only job is to bound how
// many are open at once (spec §4.1 Rationale).
type Handle struct {
	file *os.File
}

func (h *Handle) Close() error {
	return h.file.Close()
}

// segmentPath formats "<base>.<segment_id>" using the decimal,
// non-zero-padded id, per spec §6.
func segmentPath(base string, segmentID int64) string {
	return base + "." + strconv.FormatInt(segmentID, 10)
}

// newReadHandle opens a segment's backing file for read, per spec §4.3
// "Handle construction": shared read/write access, direct I/O enabled
// post-open unless the device was configured with os_read_buffering.
func (d *Device) newReadHandle(segmentID int64) (*Handle, error) {
	path := segmentPath(d.baseFilename, segmentID)
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("device: open read handle for segment %d: %w", segmentID, err)
	}
	if !d.osReadBuffering {
		d.enableDirect(f)
	}
	return &Handle{file: f}, nil
}

// newWriteHandle opens a segment's backing file for write. If
// preallocate_file is set and a fixed segment size is configured, the file
// is resized to that size immediately (spec §4.3).
func (d *Device) newWriteHandle(segmentID int64) (*Handle, error) {
	path := segmentPath(d.baseFilename, segmentID)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("device: open write handle for segment %d: %w", segmentID, err)
	}
	d.enableDirect(f)

	if d.preallocateFile && d.segmentSize > 0 {
		if err := f.Truncate(d.segmentSize); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("device: preallocate segment %d: %w", segmentID, err)
		}
	}
	return &Handle{file: f}, nil
}

// enableDirect best-efforts posio.EnableDirect; a failure is not fatal, per
// spec §4.1 ("Returns whether the operation succeeded") — the caller keeps
// operating on the buffered handle.
func (d *Device) enableDirect(f *os.File) {
	posio.EnableDirect(f)
}

func closeHandle(h *Handle) error {
	return h.Close()
}

// removeSegmentFile deletes a segment's backing file. A missing file is
// not an error: RemoveSegment's contract is "this segment no longer
// exists," which is already true if the file was never created.
func removeSegmentFile(base string, segmentID int64) error {
	err := os.Remove(segmentPath(base, segmentID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ensureDir creates base's parent directory if absent, per spec §6
// ("The base name's directory is created if absent").
func ensureDir(base string) error {
	dir := filepath.Dir(base)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
