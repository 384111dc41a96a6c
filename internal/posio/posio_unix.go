//go:build unix

package posio

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Pread performs a single positioned read at an absolute byte offset
// without altering the file's seek pointer. A short read is returned as-is
// and is not retried; the caller decides whether to loop.
func Pread(f *os.File, buf []byte, offset int64) (int, error) {
	n, err := syscall.Pread(int(f.Fd()), buf, offset)
	if err != nil {
		return n, &Error{Op: "pread", Err: err}
	}
	return n, nil
}

// Pwrite performs a single positioned write at an absolute byte offset
// without altering the file's seek pointer.
func Pwrite(f *os.File, data []byte, offset int64) (int, error) {
	n, err := syscall.Pwrite(int(f.Fd()), data, offset)
	if err != nil {
		return n, &Error{Op: "pwrite", Err: err}
	}
	return n, nil
}

// EnableDirect ORs O_DIRECT into the file's current status flags, matching
// spec §6: read the flags with F_GETFL, OR in O_DIRECT, write them back with
// F_SETFL. Returns whether the toggle succeeded; a failure is not fatal to
// the caller, which may continue operating on the buffered handle.
func EnableDirect(f *os.File) bool {
	fd := int(f.Fd())

	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return false
	}

	_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags|unix.O_DIRECT)
	return err == nil
}
