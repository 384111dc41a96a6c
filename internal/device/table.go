package device

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	"boulder/internal/handlepool"
)

// pools is the (ReadPool, WritePool) pair spec §3 SegmentTable maps each
// segment_id to.
type pools struct {
	read  *handlepool.Pool[*Handle]
	write *handlepool.Pool[*Handle]
}

func (p *pools) disposeAll() error {
	var result *multierror.Error
	if err := p.read.Dispose(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := p.write.Dispose(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// segmentTable implements spec §3 SegmentTable: a concurrent
// segment_id -> (ReadPool, WritePool) map. Concurrent get_or_add yields
// exactly one pool pair per id — the loser of a race discards its builder,
// so the pools it half-built are disposed immediately rather than leaked.
//
// This resolves spec Design Note §9 Open Question (b): the source's
// GetOrAddHandle, on observing the table disposed, disposes every pool in
// the table and then still returns the just-created pair — teardown and
// construction races into the same call. Here, disposal is a one-way latch
// checked under the same lock as insertion, so a get_or_add issued after
// Dispose is rejected outright with ErrDisposed instead of racing a
// construction against a teardown.
type segmentTable struct {
	mu       sync.Mutex
	segments map[int64]*pools
	disposed bool
}

func newSegmentTable() *segmentTable {
	return &segmentTable{segments: make(map[int64]*pools)}
}

// getOrAdd returns the existing pool pair for id, or builds and inserts a
// fresh one via build. If two callers race to build the same id, the loser
// discards (disposes) its freshly built pair and returns the winner's.
func (t *segmentTable) getOrAdd(id int64, build func() (*pools, error)) (*pools, error) {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return nil, ErrDisposed
	}
	if p, ok := t.segments[id]; ok {
		t.mu.Unlock()
		return p, nil
	}
	t.mu.Unlock()

	built, err := build()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		_ = built.disposeAll()
		return nil, ErrDisposed
	}
	if existing, ok := t.segments[id]; ok {
		t.mu.Unlock()
		_ = built.disposeAll()
		return existing, nil
	}
	t.segments[id] = built
	t.mu.Unlock()
	return built, nil
}

// lookup returns the pool pair for id without building one.
func (t *segmentTable) lookup(id int64) (*pools, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.segments[id]
	return p, ok
}

// remove disposes and deletes id's pool pair, per spec §3 invariant: "a
// removed segment has both pools disposed before removal is observable".
func (t *segmentTable) remove(id int64) error {
	t.mu.Lock()
	p, ok := t.segments[id]
	if ok {
		delete(t.segments, id)
	}
	t.mu.Unlock()

	if !ok {
		return ErrSegmentNotFound
	}
	return p.disposeAll()
}

// ids returns every known segment id, ascending.
func (t *segmentTable) ids() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]int64, 0, len(t.segments))
	for id := range t.segments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// disposeAll marks the table disposed (rejecting future getOrAdd calls)
// and disposes every pool pair currently present.
func (t *segmentTable) disposeAll() error {
	t.mu.Lock()
	t.disposed = true
	segments := t.segments
	t.segments = make(map[int64]*pools)
	t.mu.Unlock()

	var result *multierror.Error
	for _, p := range segments {
		if err := p.disposeAll(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// parseSegmentID extracts the numeric suffix from a "<base>.<segment_id>"
// filename, per spec §6. base is the bare filename (no directory) the
// device was opened with.
func parseSegmentID(filename, base string) (int64, bool) {
	prefix := base + "."
	if !strings.HasPrefix(filename, prefix) {
		return 0, false
	}
	suffix := filename[len(prefix):]
	if suffix == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
