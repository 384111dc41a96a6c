package device

// Option configures a Device at construction time, in the functional
// options shape the teacher uses throughout (pkg/db/option.go,
// pkg/options.go).
type Option func(*Device)

// WithCapacity overrides the per-segment, per-direction handle pool
// capacity (spec §3 HandlePool, default 120).
func WithCapacity(n int) Option {
	return func(d *Device) { d.capacity = n }
}

// WithSegmentSize fixes the segment size in bytes. A fixed size enables
// GetFileSize to answer without touching the filesystem and enables
// WithPreallocateFile. Zero means unbounded (spec §3 DeviceState).
func WithSegmentSize(n int64) Option {
	return func(d *Device) { d.segmentSize = n }
}

// WithPreallocateFile resizes a segment's write handle to the fixed
// segment size immediately upon creation (spec §4.3 "Handle construction").
func WithPreallocateFile(v bool) Option {
	return func(d *Device) { d.preallocateFile = v }
}

// WithOSReadBuffering disables direct I/O on read handles, leaving them on
// the OS page cache (spec §4.3: "enable direct-I/O post-open unless
// os_read_buffering is requested").
func WithOSReadBuffering(v bool) Option {
	return func(d *Device) { d.osReadBuffering = v }
}

// WithDeleteOnClose deletes every segment file on Reset/Dispose (spec §4.3).
func WithDeleteOnClose(v bool) Option {
	return func(d *Device) { d.deleteOnClose = v }
}

// WithRecoverDevice enables startup enumeration of existing segment files
// to recompute start_segment/end_segment (spec §4.3 "Startup recovery").
func WithRecoverDevice(v bool) Option {
	return func(d *Device) { d.recoverDevice = v }
}

// WithWorkers overrides the fixed worker pool's goroutine count (default
// DefaultWorkers).
func WithWorkers(n int) Option {
	return func(d *Device) { d.workers = n }
}
