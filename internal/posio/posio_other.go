//go:build !unix

package posio

import "os"

// Pread falls back to os.File.ReadAt on platforms without a raw pread(2).
func Pread(f *os.File, buf []byte, offset int64) (int, error) {
	n, err := f.ReadAt(buf, offset)
	if err != nil {
		return n, &Error{Op: "pread", Err: err}
	}
	return n, nil
}

// Pwrite falls back to os.File.WriteAt on platforms without a raw pwrite(2).
func Pwrite(f *os.File, data []byte, offset int64) (int, error) {
	n, err := f.WriteAt(data, offset)
	if err != nil {
		return n, &Error{Op: "pwrite", Err: err}
	}
	return n, nil
}

// EnableDirect is a no-op on platforms with no unbuffered-I/O flag exposed
// through this package; Windows' FILE_FLAG_NO_BUFFERING equivalent would be
// set at handle-creation time rather than toggled after the fact, and is out
// of scope (spec §6: "Windows handles" is noted but not implemented here).
func EnableDirect(*os.File) bool {
	return false
}
