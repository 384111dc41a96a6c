package posio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPwritePreadIdempotence covers property 5: pwrite then pread at the
// same offset and length returns exactly what was written, for
// sector-aligned offset, length, and buffer (property 5 does not require
// direct I/O to be enabled, only alignment).
func TestPwritePreadIdempotence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.0")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	defer f.Close()

	const sector = 512
	data := make([]byte, sector)
	for i := range data {
		data[i] = byte(i)
	}

	n, err := Pwrite(f, data, 0)
	require.NoError(t, err)
	require.Equal(t, sector, n)

	buf := make([]byte, sector)
	n, err = Pread(f, buf, 0)
	require.NoError(t, err)
	require.Equal(t, sector, n)
	require.Equal(t, data, buf)
}

// TestPwriteDoesNotDisturbSeekPointer verifies positioned writes leave the
// file's own seek offset untouched, the property that lets many concurrent
// operations share a single handle.
func TestPwriteDoesNotDisturbSeekPointer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segment.0")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	defer f.Close()

	before, err := f.Seek(0, os.SEEK_CUR)
	require.NoError(t, err)

	_, err = Pwrite(f, make([]byte, 512), 4096)
	require.NoError(t, err)

	after, err := f.Seek(0, os.SEEK_CUR)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

// TestOSErrorCode exercises the callback ABI's error-code extraction: a
// missing file read surfaces a non-zero, non-MaxUint32 OS errno.
func TestOSErrorCode(t *testing.T) {
	require.Equal(t, uint32(0), OSErrorCode(nil))

	f, err := os.Open(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.Nil(t, f)

	code := OSErrorCode(err)
	require.NotEqual(t, uint32(0), code)
}
