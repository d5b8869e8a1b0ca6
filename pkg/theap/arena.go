package theap

import (
	"sync"
	"unsafe"

	"github.com/flier/theap/internal/debug"
	"github.com/flier/theap/pkg/xunsafe"
)

// slabLink is the doubly linked list header every slab starts with,
// immediately followed by the root blockHeader of its buddy tree.
type slabLink struct {
	prev, next *slabLink
}

// slabLinkSize is how many bytes slabLink itself occupies; the buddy tree's
// root header starts right after it.
const slabLinkSize = int(unsafe.Sizeof(slabLink{}))

func (s *slabLink) root() *blockHeader {
	return xunsafe.ByteAdd[blockHeader](s, slabLinkSize)
}

// Arena is one of ArenaCount independent allocation domains: a mutex and a
// list of slabs, each slab carved by its own buddy tree.
type Arena struct {
	_ xunsafe.NoCopy

	mu   sync.Mutex
	head *slabLink

	pool *Pool
	idx  int
}

// get locates or creates a free block of exactly class, splitting a larger
// free block down to size if that's what's available, and marks it used.
// Caller holds a.mu.
func (a *Arena) get(class int32) *blockHeader {
	if a.head == nil {
		a.head = a.newSlab()
	}

	size := 1 << class

	for s := a.head; ; {
		cur := s.rootAddr()
		end := cur.Add(slabTreeBytes - size)

		for cur <= end {
			h := headerAt(cur)

			switch {
			case h.bsize < class:
				cur = cur.Add(size)
			case h.used:
				cur = cur.Add(1 << h.bsize)
			default:
				split(h, int(h.bsize-class))
				debug.Assert(h.bsize == class, "split left bsize %d, wanted %d", h.bsize, class)
				h.used = true
				return h
			}
		}

		if s.next == nil {
			s.next = a.newSlab()
			s.next.prev = s
		}
		s = s.next
	}
}

// put marks a block free and coalesces it with its buddy as far upward as
// possible, returning the slab to the pool if coalescing reaches the whole
// slab. Caller holds a.mu.
func (a *Arena) put(h *blockHeader) {
	h.used = false
	a.coalesce(h)
}

func (a *Arena) coalesce(h *blockHeader) {
	if h.bsize >= rootClass {
		s := slabFromRoot(h)
		a.unlink(s)
		a.pool.returnSlab(s)
		return
	}

	if h.left {
		buddy := headerAt(addrOf(h).Add(1 << h.bsize))
		if !buddy.used && buddy.bsize == h.bsize {
			h.bsize++
			a.coalesce(h)
		}
		return
	}

	buddy := headerAt(addrOf(h).Add(-(1 << h.bsize)))
	if buddy.bsize == h.bsize {
		buddy.bsize++
		if !buddy.used {
			a.coalesce(buddy)
		}
	}
}

// newSlab requests a fresh slab from the pool and stamps this arena's index
// into its root block.
func (a *Arena) newSlab() *slabLink {
	s := a.pool.requestSlab()
	s.root().bucket = int32(a.idx)
	return s
}

// unlink removes s from this arena's slab list.
func (a *Arena) unlink(s *slabLink) {
	if s.prev != nil {
		s.prev.next = s.next
	} else {
		a.head = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	}
}

func (s *slabLink) rootAddr() xunsafe.Addr[byte] {
	return xunsafe.AddrOf(xunsafe.Cast[byte](s)).Add(slabLinkSize)
}

// slabFromRoot recovers a slab's link header from its root block, the
// inverse of (*slabLink).root.
func slabFromRoot(h *blockHeader) *slabLink {
	return xunsafe.ByteAdd[slabLink](h, -slabLinkSize)
}

// split halves h repeatedly until it has shrunk by the given number of
// classes, writing a used=false right-sibling header at each level.
func split(h *blockHeader, levels int) {
	for ; levels > 0; levels-- {
		h.bsize--
		h.left = true

		right := headerAt(addrOf(h).Add(1 << h.bsize))
		right.bsize = h.bsize
		right.bucket = h.bucket
		right.used = false
		right.left = false
	}
}
