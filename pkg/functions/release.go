//go:build !faster_debug

package functions

// assertEphemeralHeld is a no-op in a release build (spec §7: LockProtocol
// violations are fatal only in debug builds).
func assertEphemeralHeld(bool) {}
