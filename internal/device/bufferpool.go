package device

import (
	"sync"
	"unsafe"

	"github.com/ncw/directio"

	"boulder/internal/mmap"
)

// bufferPool is the shared staging-buffer pool spec §4.3 step 4 requires:
// "a sector-aligned staging buffer is obtained from a shared buffer pool"
// whenever a caller's own buffer cannot be used in place for direct I/O
// (this implementation always stages, since Go cannot guarantee an
// arbitrary caller-supplied []byte satisfies O_DIRECT's alignment
// requirements — see DESIGN.md). It is an adaptation of
// internal/mmap.New/Free fused with directio's block-alignment helpers,
// carved into fixed-size chunks the way internal/arena.Arena carves a
// single mmap'd slab into sub-allocations, repurposed here from backing an
// LSM arena to backing direct-I/O staging buffers.
type bufferPool struct {
	mu        sync.Mutex
	slab      []byte
	mmapped   bool
	chunkSize int
	free      [][]byte

	start uintptr
	end   uintptr
}

// newBufferPool preallocates count chunks of at least minChunkSize bytes,
// rounded up to the directio block size so every chunk is sector-aligned.
func newBufferPool(minChunkSize, count int) *bufferPool {
	chunkSize := alignUp(minChunkSize, directio.BlockSize)
	total := chunkSize * count

	slab, err := mmap.New(total)
	mmapped := err == nil
	if !mmapped {
		// mmap is unavailable (e.g. sandboxed environment); fall back to a
		// directio-aligned heap block. Individual chunks remain aligned
		// even though the whole slab is no longer a single mapping.
		slab = directio.AlignedBlock(total)
	}

	p := &bufferPool{
		slab:      slab,
		mmapped:   mmapped,
		chunkSize: chunkSize,
	}
	if len(slab) > 0 {
		p.start = uintptr(unsafe.Pointer(&slab[0]))
		p.end = p.start + uintptr(len(slab))
	}
	for i := 0; i < count; i++ {
		p.free = append(p.free, slab[i*chunkSize:(i+1)*chunkSize:(i+1)*chunkSize])
	}
	return p
}

// get returns a chunk of at least size bytes. If the pool's free list is
// exhausted it falls back to a freshly allocated aligned block rather than
// blocking — the handle pool, not the buffer pool, is the I/O throttle
// (spec §4.3 "Throttling": "the pool capacity ... is the only throttle").
func (p *bufferPool) get(size int) []byte {
	p.mu.Lock()
	if size <= p.chunkSize && len(p.free) > 0 {
		b := p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		p.mu.Unlock()
		return b[:size]
	}
	p.mu.Unlock()
	return directio.AlignedBlock(alignUp(size, directio.BlockSize))[:size]
}

// put returns b to the free list if it originated from this pool's slab,
// otherwise it is simply dropped (it was an overflow allocation).
func (p *bufferPool) put(b []byte) {
	if len(b) == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(&b[0]))
	if addr < p.start || addr >= p.end {
		return
	}

	p.mu.Lock()
	p.free = append(p.free, b[:p.chunkSize:p.chunkSize])
	p.mu.Unlock()
}

// close releases the backing mmap, if one was used.
func (p *bufferPool) close() error {
	if !p.mmapped {
		return nil
	}
	return mmap.Free(p.slab)
}

func alignUp(n, align int) int {
	if align <= 0 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
