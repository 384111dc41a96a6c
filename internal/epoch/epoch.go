// Package epoch implements scoped epoch protection: a thread (in Go terms,
// a logical owner — typically a single session) registers itself as
// "active" for the duration of any operation that touches the log or the
// lock table, per spec §4.5. Protection is obtained by ResumeThread and
// released by SuspendThread; the returned Guard is meant to be used the way
// the teacher uses its RAII-ish io.Closer wrapper in pkg/close.go.
package epoch

import (
	"errors"
	"sync/atomic"
)

// ErrAlreadyProtected is returned (and, in a debug build, also panicked
// with) when ResumeThread is called on a Token that is already protected.
// Spec §4.5's assertion floor exists precisely to prevent this: no
// operation against the log or lock table may run nested inside another
// epoch-protected region on the same logical thread.
var ErrAlreadyProtected = errors.New("epoch: thread already protected")

// Token tracks whether its owner is currently epoch-protected. A session
// owns exactly one Token for its lifetime (spec §5: "each session is owned
// by one logical task at a time").
type Token struct {
	protected atomic.Bool
}

// NewToken returns an unprotected Token.
func NewToken() *Token {
	return &Token{}
}

// Protected reports whether this token currently holds epoch protection.
func (t *Token) Protected() bool {
	return t.protected.Load()
}

// Guard is the scoped acquisition returned by ResumeThread. Its zero value
// is not valid; obtain one only via ResumeThread.
type Guard struct {
	token *Token
}

// ResumeThread registers the token's owner as epoch-active. It fails with
// ErrAlreadyProtected (and, in a debug build, panics) if the token is
// already protected — nested protection on the same logical thread is
// never legal (spec §4.5, §7 "EpochProtocol ... Fatal assertion").
func (t *Token) ResumeThread() (*Guard, error) {
	if !t.protected.CompareAndSwap(false, true) {
		assertProtocol(ErrAlreadyProtected)
		return nil, ErrAlreadyProtected
	}
	return &Guard{token: t}, nil
}

// SuspendThread releases epoch protection. It is safe to call on a nil
// Guard (a no-op), so callers can defer it unconditionally after a
// ResumeThread that may have failed.
func (g *Guard) SuspendThread() {
	if g == nil {
		return
	}
	g.token.protected.Store(false)
}

// Close implements io.Closer so a Guard can be deferred with defer
// guard.Close(), matching the teacher's pkg/close.go Close-func idiom.
func (g *Guard) Close() error {
	g.SuspendThread()
	return nil
}
