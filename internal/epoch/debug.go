//go:build faster_debug

package epoch

// assertProtocol panics on protocol violations in a debug build, matching
// spec §7's "Fatal in debug (assertion)" policy.
func assertProtocol(err error) {
	panic(err)
}
