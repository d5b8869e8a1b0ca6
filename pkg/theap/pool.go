package theap

import (
	"sync"
	"unsafe"

	"github.com/flier/theap/internal/debug"
	"github.com/flier/theap/pkg/xunsafe"
)

// freeRegion is what a slab or large region turns into once it is handed
// back to the pool: its first bytes are reinterpreted as this header and it
// is threaded into the pool's doubly linked free list.
type freeRegion struct {
	next, prev *freeRegion
	pages      int32
}

// Pool is the single process-wide free list of released multi-page
// regions. It manufactures fresh slabs for arenas and services large-block
// requests that bypass the arenas entirely. One mutex protects it; the
// lock-ordering discipline forbids acquiring an arena's lock while this one
// is held.
type Pool struct {
	_ xunsafe.NoCopy

	mu     sync.Mutex
	head   *freeRegion
	sorted bool

	src PageSource

	allocated      int64
	largeAllocated int64
	freed          int64
}

// NewPool returns a Pool backed by src.
func NewPool(src PageSource) *Pool {
	return &Pool{src: src}
}

// Stats is a point-in-time snapshot of the pool's bookkeeping counters. It
// exists for diagnostics only and has no effect on allocation behavior.
type Stats struct {
	Allocated      int64
	LargeAllocated int64
	Freed          int64
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{p.allocated, p.largeAllocated, p.freed}
}

// requestSlab returns a fresh SlabPages-page region with its root block
// header initialized to the full slab size class, unused, and left. The
// arena that calls this still has to stamp its own index into the root's
// bucket field.
func (p *Pool) requestSlab() *slabLink {
	p.mu.Lock()
	var region *freeRegion
	if p.head != nil {
		debug.Assert(int(p.head.pages) >= SlabPages, "pool head below slab size")

		if int(p.head.pages) > SlabPages {
			region = p.shave(p.head, SlabPages)
		} else {
			region = p.head
			p.unlink(region)
		}
	} else {
		region = p.mapFresh(SlabPages)
	}
	p.allocated++
	p.mu.Unlock()

	s := xunsafe.Cast[slabLink](region)
	s.prev, s.next = nil, nil

	root := s.root()
	root.bsize = rootClass
	root.used = false
	root.left = true

	return s
}

// requestLarge returns a contiguous region of exactly pages pages, backed
// by its own freeRegion header recording that count.
func (p *Pool) requestLarge(pages int) *freeRegion {
	if pages <= 0 || pages > maxPages {
		fatalUnrepresentableSize(pages)
	}

	p.mu.Lock()
	region := p.takeFittingHead(pages)
	if region == nil {
		region = p.searchFreeList(pages)
	}
	if region == nil {
		region = p.mapFresh(pages)
	}
	p.largeAllocated++
	p.mu.Unlock()

	region.pages = int32(pages)

	return region
}

// returnRegion pushes a region of pages pages, starting at addr, onto the
// head of the free list.
func (p *Pool) returnRegion(addr unsafe.Pointer, pages int) {
	r := (*freeRegion)(addr)

	p.mu.Lock()
	r.pages = int32(pages)
	r.prev = nil
	r.next = p.head
	if p.head != nil {
		p.head.prev = r
	}
	p.head = r
	p.sorted = false
	p.freed++
	p.mu.Unlock()
}

// returnSlab hands a whole slab back to the pool. Callers must have already
// unlinked s from its arena's slab list.
func (p *Pool) returnSlab(s *slabLink) {
	p.returnRegion(unsafe.Pointer(s), SlabPages)
}

// takeFittingHead takes the head off the free list if it has at least pages
// pages, shaving off any excess. Caller holds p.mu.
func (p *Pool) takeFittingHead(pages int) *freeRegion {
	if p.head == nil || int(p.head.pages) < pages {
		return nil
	}

	if int(p.head.pages) > pages {
		return p.shave(p.head, pages)
	}

	r := p.head
	p.unlink(r)
	return r
}

// searchFreeList performs first-fit over the (unordered) free list, shaving
// the match if it is larger than needed. Caller holds p.mu.
//
// The sorted flag exists so a best-fit or size-class-bucketed search could
// be swapped in later without changing callers; first-fit with a mmap
// fallback in requestLarge is what this does today.
func (p *Pool) searchFreeList(pages int) *freeRegion {
	for r := p.head; r != nil; r = r.next {
		if int(r.pages) < pages {
			continue
		}

		if int(r.pages) > pages {
			return p.shave(r, pages)
		}

		p.unlink(r)
		return r
	}

	return nil
}

// shave splits the leading pages pages off r, leaving the remainder as a
// new freeRegion occupying r's former slot in the list, and returns r
// itself (now unlinked, shrunk to exactly pages pages). Caller holds p.mu.
func (p *Pool) shave(r *freeRegion, pages int) *freeRegion {
	rest := xunsafe.ByteAdd[freeRegion](r, pages*PageSize)
	rest.next = r.next
	rest.prev = r.prev
	rest.pages = r.pages - int32(pages)

	if rest.next != nil {
		rest.next.prev = rest
	}
	if rest.prev != nil {
		rest.prev.next = rest
	} else {
		p.head = rest
	}

	r.pages = int32(pages)
	r.next = nil
	r.prev = nil

	return r
}

// unlink removes r from wherever it sits in the free list. Caller holds
// p.mu.
func (p *Pool) unlink(r *freeRegion) {
	if r.prev != nil {
		r.prev.next = r.next
	} else {
		p.head = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	}
	r.next, r.prev = nil, nil
}

// mapFresh asks the page source for pages new pages. Caller holds p.mu: the
// region only becomes exclusively the caller's once the lock is released,
// so header initialization happens after unlock, but the mmap call itself
// happens while still holding the lock.
func (p *Pool) mapFresh(pages int) *freeRegion {
	mem, err := p.src.Map(pages)
	if err != nil {
		fatalOutOfAddressSpace(pages, err)
	}

	return (*freeRegion)(mem)
}
