//go:build faster_debug

package functions

// assertEphemeralHeld panics in a debug build if the ephemeral
// acquire/release no-op is invoked for a key the session does not already
// hold in the required mode — a LockProtocol violation (spec §7).
func assertEphemeralHeld(held bool) {
	if !held {
		panic("functions: ephemeral lock assertion failed: key not held in required mode")
	}
}
