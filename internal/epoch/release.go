//go:build !faster_debug

package epoch

// assertProtocol is a no-op in a release build; the caller surfaces err as
// a normal returned error instead (spec §7's "in release, returns
// InvalidState" policy, applied symmetrically to epoch protocol errors).
func assertProtocol(error) {}
