package faster

import "boulder/internal/device"

// config collects Open's functional options before the device and lock
// table are constructed, the way the teacher's pkg/options.go accumulates
// db options before Open builds the concrete db.DB.
type config struct {
	deviceOpts  []device.Option
	lockBuckets int
}

func newConfig() *config {
	return &config{}
}

// Option configures Open at construction time.
type Option func(*config)

// WithLockBuckets overrides the shared lock table's bucket count (0 keeps
// locktable.DefaultBucketCount).
func WithLockBuckets(n int) Option {
	return func(c *config) { c.lockBuckets = n }
}

// WithSegmentCapacity forwards to device.WithCapacity for the underlying
// log's per-segment handle pools.
func WithSegmentCapacity(n int) Option {
	return func(c *config) { c.deviceOpts = append(c.deviceOpts, device.WithCapacity(n)) }
}

// WithSegmentSize forwards to device.WithSegmentSize.
func WithSegmentSize(n int64) Option {
	return func(c *config) { c.deviceOpts = append(c.deviceOpts, device.WithSegmentSize(n)) }
}

// WithPreallocateFile forwards to device.WithPreallocateFile.
func WithPreallocateFile(v bool) Option {
	return func(c *config) { c.deviceOpts = append(c.deviceOpts, device.WithPreallocateFile(v)) }
}

// WithOSReadBuffering forwards to device.WithOSReadBuffering.
func WithOSReadBuffering(v bool) Option {
	return func(c *config) { c.deviceOpts = append(c.deviceOpts, device.WithOSReadBuffering(v)) }
}

// WithDeleteOnClose forwards to device.WithDeleteOnClose.
func WithDeleteOnClose(v bool) Option {
	return func(c *config) { c.deviceOpts = append(c.deviceOpts, device.WithDeleteOnClose(v)) }
}

// WithRecoverDevice forwards to device.WithRecoverDevice.
func WithRecoverDevice(v bool) Option {
	return func(c *config) { c.deviceOpts = append(c.deviceOpts, device.WithRecoverDevice(v)) }
}

// WithWorkers forwards to device.WithWorkers.
func WithWorkers(n int) Option {
	return func(c *config) { c.deviceOpts = append(c.deviceOpts, device.WithWorkers(n)) }
}
