package device

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

// TestRecoverySingleTrailingAfterGap covers scenario S1: files log.0,
// log.1, log.2, log.5 recover to start_segment=5, end_segment=5.
func TestRecoverySingleTrailingAfterGap(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")
	for _, id := range []int{0, 1, 2, 5} {
		touch(t, segmentPath(base, int64(id)))
	}

	d, err := New(base, WithRecoverDevice(true))
	require.NoError(t, err)
	defer d.Dispose()

	require.Equal(t, int64(5), d.StartSegment())
	require.Equal(t, int64(5), d.EndSegment())
}

// TestRecoveryContiguousRun covers the non-gapped case: ids 0..3 recover
// to start_segment=0, end_segment=3.
func TestRecoveryContiguousRun(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")
	for _, id := range []int{0, 1, 2, 3} {
		touch(t, segmentPath(base, int64(id)))
	}

	d, err := New(base, WithRecoverDevice(true))
	require.NoError(t, err)
	defer d.Dispose()

	require.Equal(t, int64(0), d.StartSegment())
	require.Equal(t, int64(3), d.EndSegment())
}

// TestRecoveryNoSegments covers a fresh directory: no files, end_segment
// stays at -1 (the "no segments" sentinel).
func TestRecoveryNoSegments(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")

	d, err := New(base, WithRecoverDevice(true))
	require.NoError(t, err)
	defer d.Dispose()

	require.Equal(t, int64(-1), d.EndSegment())
}

// TestParallelReads covers scenario S2: 32 concurrent read_async calls
// against a pre-written 128 KiB segment all complete with error=0,
// bytes=4096, and in_flight_count returns to 0.
func TestParallelReads(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")

	d, err := New(base, WithCapacity(8))
	require.NoError(t, err)
	defer d.Dispose()

	const segSize = 128 * 1024
	const chunk = 4096
	payload := make([]byte, segSize)
	for i := range payload {
		payload[i] = byte(i)
	}

	writeDone := make(chan struct{}, segSize/chunk)
	for i := 0; i < segSize/chunk; i++ {
		off := int64(i * chunk)
		src := payload[off : off+chunk]
		d.WriteAsync(src, 0, off, chunk, func(errorCode uint32, n uint32, _ any) {
			require.Equal(t, uint32(0), errorCode)
			require.Equal(t, uint32(chunk), n)
			writeDone <- struct{}{}
		}, nil)
	}
	for i := 0; i < segSize/chunk; i++ {
		<-writeDone
	}

	const readers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []uint32
	var byteCounts []uint32

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			dst := make([]byte, chunk)
			d.ReadAsync(0, int64(i*chunk), dst, chunk, func(errorCode uint32, n uint32, _ any) {
				mu.Lock()
				errs = append(errs, errorCode)
				byteCounts = append(byteCounts, n)
				mu.Unlock()
				wg.Done()
			}, nil)
		}(i)
	}
	wg.Wait()

	require.Len(t, errs, readers)
	for _, e := range errs {
		require.Equal(t, uint32(0), e)
	}
	for _, n := range byteCounts {
		require.Equal(t, uint32(chunk), n)
	}

	require.Eventually(t, func() bool { return d.InFlightCount() == 0 }, time.Second, time.Millisecond)
}

// TestWriteThenReadRoundTrip exercises property 5 through the device's
// public API rather than internal/posio directly.
func TestWriteThenReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")

	d, err := New(base, WithCapacity(2))
	require.NoError(t, err)
	defer d.Dispose()

	data := make([]byte, 512)
	for i := range data {
		data[i] = byte(i)
	}

	done := make(chan uint32, 1)
	d.WriteAsync(data, 0, 0, len(data), func(errorCode, n uint32, _ any) {
		done <- errorCode
	}, nil)
	require.Equal(t, uint32(0), <-done)

	buf := make([]byte, 512)
	d.ReadAsync(0, 0, buf, len(buf), func(errorCode, n uint32, _ any) {
		done <- errorCode
	}, nil)
	require.Equal(t, uint32(0), <-done)
	require.Equal(t, data, buf)
}

// TestCallbackExactlyOnceOnMissingSegmentFailure covers property 6 for a
// disposed device: the callback must still fire exactly once, carrying the
// "other failure" sentinel.
func TestCallbackExactlyOnceAfterDispose(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")

	d, err := New(base, WithCapacity(1))
	require.NoError(t, err)
	require.NoError(t, d.Dispose())

	var calls int
	var mu sync.Mutex
	done := make(chan struct{})
	d.ReadAsync(0, 0, make([]byte, 64), 64, func(errorCode, n uint32, _ any) {
		mu.Lock()
		calls++
		mu.Unlock()
		require.Equal(t, errU32Max, errorCode)
		close(done)
	}, nil)

	<-done
	mu.Lock()
	require.Equal(t, 1, calls)
	mu.Unlock()
}

// TestGetFileSizeFixedSegmentSize covers the fixed-size branch of
// GetFileSize (spec §4.3): it must not touch the filesystem.
func TestGetFileSizeFixedSegmentSize(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")

	d, err := New(base, WithSegmentSize(4096))
	require.NoError(t, err)
	defer d.Dispose()

	size, err := d.GetFileSize(0)
	require.NoError(t, err)
	require.Equal(t, int64(4096), size)
}

// TestRemoveSegmentDeletesFile covers the segment-removal contract of
// spec §4.3: both pools are disposed before the file disappears.
func TestRemoveSegmentDeletesFile(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log")

	d, err := New(base, WithCapacity(1))
	require.NoError(t, err)
	defer d.Dispose()

	data := make([]byte, 512)
	copy(data, []byte("hello world, this is a sector of data"))

	done := make(chan uint32, 1)
	d.WriteAsync(data, 0, 0, len(data), func(errorCode, n uint32, _ any) {
		done <- errorCode
	}, nil)
	require.Equal(t, uint32(0), <-done)

	require.NoError(t, d.RemoveSegment(0))
	_, err = os.Stat(segmentPath(base, 0))
	require.True(t, os.IsNotExist(err))
}

// TestGetOrAddRejectsAfterDispose resolves Design Note §9 Open Question
// (b): a getOrAdd issued after disposal is rejected outright rather than
// racing a fresh construction against teardown.
func TestGetOrAddRejectsAfterDispose(t *testing.T) {
	tbl := newSegmentTable()
	require.NoError(t, tbl.disposeAll())

	_, err := tbl.getOrAdd(0, func() (*pools, error) {
		t.Fatal("build must not run once the table is disposed")
		return nil, nil
	})
	require.ErrorIs(t, err, ErrDisposed)
}
