package theap

import "unsafe"

// Heap ties a Pool together with its ArenaCount arenas and the selector
// that spreads requests across them. The zero value is not usable; build
// one with NewHeap.
type Heap struct {
	pool   *Pool
	arenas [ArenaCount]Arena
	sel    selector
}

// NewHeap returns a Heap whose arenas draw their slabs from a Pool backed
// by src.
func NewHeap(src PageSource) *Heap {
	h := &Heap{pool: NewPool(src)}
	h.sel.arenas = &h.arenas

	for i := range h.arenas {
		h.arenas[i].pool = h.pool
		h.arenas[i].idx = i
	}

	return h
}

// largeThreshold is the largest payload size a slab's root block can hold
// together with its header. A request above it bypasses the arenas and goes
// straight to the pool as its own region.
const largeThreshold = slabTreeBytes - headerSize

// Allocate returns size bytes of writable memory. Blocks and regions reused
// after a Free are not cleared, so the contents are only zero when the
// memory is freshly mapped. Requests small
// enough to fit a slab's buddy tree are served by whichever arena the
// calling goroutine is currently pinned to; larger requests go straight to
// the pool as their own mmap'd region.
//
// Allocate never returns an error: a request the allocator cannot satisfy
// terminates the process instead, the same way an out-of-memory condition
// inside the Go runtime's own allocator would.
func (h *Heap) Allocate(size int) unsafe.Pointer {
	if size < 0 {
		fatalUnrepresentableSize(size)
	}

	if size > largeThreshold {
		return h.allocateLarge(size)
	}

	class := treeClass(size)

	a, _ := h.sel.acquire()
	hdr := a.get(class)
	a.mu.Unlock()

	return payloadOf(hdr)
}

// allocateLarge services a request too big for any arena's buddy tree by
// asking the pool directly for a dedicated region.
func (h *Heap) allocateLarge(size int) unsafe.Pointer {
	pages := pagesFor(size + headerSize)

	r := h.pool.requestLarge(pages)

	hdr := largeHeaderAt(r, pages, int32(h.sel.peek()))

	return payloadOf(hdr)
}

// Free releases a block previously returned by Allocate. p must not be
// freed twice, and must not be used afterward. Calling Free with a nil
// pointer aborts the process rather than silently succeeding, since nothing
// upstream should ever be constructing a nil payload pointer.
func (h *Heap) Free(p unsafe.Pointer) {
	if p == nil {
		fatalNullFree()
	}

	hdr := headerBefore(p)

	if hdr.bsize < 0 {
		h.pool.returnRegion(unsafe.Pointer(hdr), int(-hdr.bsize))
		return
	}

	if hdr.bucket < 0 || int(hdr.bucket) >= ArenaCount {
		fatalInvariant("block header names out-of-range bucket %d", hdr.bucket)
	}

	a := &h.arenas[hdr.bucket]

	a.mu.Lock()
	a.put(hdr)
	a.mu.Unlock()
}

// Stats returns a snapshot of the underlying pool's bookkeeping counters.
func (h *Heap) Stats() Stats {
	return h.pool.Stats()
}

// defaultHeap is what the package-level Allocate and Free use.
var defaultHeap = NewHeap(defaultPageSource)

// Allocate returns size bytes of memory from the default process-wide Heap.
func Allocate(size int) unsafe.Pointer {
	return defaultHeap.Allocate(size)
}

// Free releases a block previously returned by Allocate, on the default
// process-wide Heap.
func Free(p unsafe.Pointer) {
	defaultHeap.Free(p)
}
