// Package handlepool implements the bounded, asynchronously awaitable pool
// of open file handles described in spec §4.2: one pool serves a single
// segment in a single direction (read or write), throttling the number of
// simultaneously open handles to a fixed capacity and serving waiters in
// FIFO order.
package handlepool

import (
	"context"
	"errors"
	"sync"
)

// DefaultCapacity is the per-segment, per-direction throttle limit used
// when a pool is constructed without an explicit capacity (spec §3
// HandlePool, §4.3 "Throttling").
const DefaultCapacity = 120

// ErrDisposed is returned by GetAsync and by any waiter observing disposal
// while suspended.
var ErrDisposed = errors.New("handlepool: pool disposed")

// Factory creates a new handle. It is called at most capacity times over
// the lifetime of a pool.
type Factory[H any] func() (H, error)

// Closer disposes of a single handle. Supplied alongside Factory so the
// pool can close idle handles on Dispose without the caller threading a
// type assertion through every call site.
type Closer[H any] func(H) error

// waiter is a single-use rendezvous: the pool sends exactly one handle (or
// closes done to signal disposal) to a registered waiter, and never more
// than once.
type waiter[H any] struct {
	ch   chan H
	done chan struct{}
}

// Pool is a bounded multiset of open handles for one segment in one
// direction. At most capacity handles exist simultaneously; a returned
// handle becomes available to exactly one waiter, and waiters are served
// FIFO.
type Pool[H any] struct {
	mu        sync.Mutex
	factory   Factory[H]
	closer    Closer[H]
	capacity  int
	open      int
	available []H
	waiters   []*waiter[H]
	disposed  bool
}

// New constructs a pool with the given capacity (DefaultCapacity if cap is
// zero), factory, and closer.
func New[H any](capacity int, factory Factory[H], closer Closer[H]) *Pool[H] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool[H]{
		capacity: capacity,
		factory:  factory,
		closer:   closer,
	}
}

// TryGet performs a non-blocking claim: it returns an available handle if
// one exists, without constructing a new one, else ok is false.
func (p *Pool[H]) TryGet() (h H, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed || len(p.available) == 0 {
		return h, false
	}

	h = p.available[len(p.available)-1]
	p.available = p.available[:len(p.available)-1]
	return h, true
}

// GetAsync returns an idle handle if one is available, constructs a new one
// if the pool is below capacity, or suspends the caller until a handle is
// returned by another user. Cancelling ctx before a handle is reserved for
// this caller cancels the wait cleanly; once a handle has been assigned to
// the waiter, cancellation no longer applies and GetAsync returns it rather
// than leak it.
func (p *Pool[H]) GetAsync(ctx context.Context) (h H, err error) {
	p.mu.Lock()

	if p.disposed {
		p.mu.Unlock()
		return h, ErrDisposed
	}

	if len(p.available) > 0 {
		h = p.available[len(p.available)-1]
		p.available = p.available[:len(p.available)-1]
		p.mu.Unlock()
		return h, nil
	}

	if p.open < p.capacity {
		p.open++
		p.mu.Unlock()

		h, err = p.factory()
		if err != nil {
			p.mu.Lock()
			p.open--
			p.mu.Unlock()
			return h, err
		}
		return h, nil
	}

	w := &waiter[H]{ch: make(chan H, 1), done: make(chan struct{})}
	p.waiters = append(p.waiters, w)
	p.mu.Unlock()

	select {
	case h = <-w.ch:
		return h, nil
	case <-w.done:
		return h, ErrDisposed
	case <-ctx.Done():
		// Race against a concurrent Return/Dispose: remove ourselves from
		// the waiter queue if we still can. If we lose the race, a handle
		// (or the disposed signal) is already in flight to us and must not
		// be leaked; drain it and hand the handle straight back.
		p.mu.Lock()
		for i, cur := range p.waiters {
			if cur == w {
				p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
				p.mu.Unlock()
				return h, ctx.Err()
			}
		}
		p.mu.Unlock()

		select {
		case drained := <-w.ch:
			p.Return(drained)
		case <-w.done:
		}
		var zero H
		return zero, ctx.Err()
	}
}

// Return gives a handle back to the pool, waking one FIFO waiter if any are
// registered. If the pool has been disposed, the handle is closed instead
// of re-pooled.
func (p *Pool[H]) Return(h H) {
	p.mu.Lock()

	if p.disposed {
		p.mu.Unlock()
		if p.closer != nil {
			_ = p.closer(h)
		}
		return
	}

	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		p.mu.Unlock()
		w.ch <- h
		return
	}

	p.available = append(p.available, h)
	p.mu.Unlock()
}

// Dispose closes every idle handle, rejects all registered waiters, and
// marks the pool so that subsequent Returns close rather than re-pool their
// handle. Handles already claimed by in-flight users drain normally; they
// are simply closed when returned.
func (p *Pool[H]) Dispose() error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return nil
	}
	p.disposed = true

	idle := p.available
	p.available = nil
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	for _, w := range waiters {
		close(w.done)
	}

	var errs []error
	if p.closer != nil {
		for _, h := range idle {
			if err := p.closer(h); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// OpenHandles returns the number of handles currently constructed
// (available + claimed), used to test property 1 (pool capacity).
func (p *Pool[H]) OpenHandles() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Disposed reports whether Dispose has already run.
func (p *Pool[H]) Disposed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disposed
}
