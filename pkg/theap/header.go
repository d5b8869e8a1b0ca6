package theap

import (
	"math/bits"
	"unsafe"

	"github.com/flier/theap/pkg/xunsafe"
)

// blockHeader is prepended to every live allocation and to every node of a
// slab's buddy tree. It lives in place, at the head of the memory it
// describes; there is no side table mapping addresses to metadata.
type blockHeader struct {
	// bsize is the block's size class for a buddy block: its total size,
	// header included, is 1<<bsize bytes. A large block bypassing the
	// arenas stores the negation of its page count here instead, so
	// bsize < 0 is how the two kinds are told apart.
	bsize int32

	// bucket names the arena that owns this block. Large blocks record the
	// allocating goroutine's arena here too, for symmetry, but Free never
	// reads it for them.
	bucket int32

	used bool
	left bool

	_ [6]byte // pad to two machine words, so payloads stay pointer-aligned
}

// headerSize is the number of bytes a blockHeader occupies, including its
// padding.
const headerSize = int(unsafe.Sizeof(blockHeader{}))

func init() {
	if headerSize != 2*int(unsafe.Sizeof(uintptr(0))) {
		panic("theap: blockHeader is not two machine words")
	}
}

// headerAt reinterprets the bytes at a as a blockHeader.
func headerAt(a xunsafe.Addr[byte]) *blockHeader {
	return xunsafe.Cast[blockHeader](a.AssertValid())
}

// addrOf returns the address of h's own first byte.
func addrOf(h *blockHeader) xunsafe.Addr[byte] {
	return xunsafe.AddrOf(xunsafe.Cast[byte](h))
}

// payloadOf returns the pointer Allocate hands to callers: the first byte
// past h.
func payloadOf(h *blockHeader) unsafe.Pointer {
	return unsafe.Pointer(addrOf(h).Add(headerSize).AssertValid())
}

// headerBefore recovers the header Free was handed a payload pointer for.
func headerBefore(p unsafe.Pointer) *blockHeader {
	return headerAt(xunsafe.AddrOf((*byte)(p)).Add(-headerSize))
}

// treeClass computes ceil(log2(size + headerSize)), the smallest size class
// whose block can hold size bytes of payload plus its own header. A size of
// 0 still yields a valid, minimal class, matching ordinary malloc(0)
// semantics.
func treeClass(size int) int32 {
	need := size + headerSize
	if need <= 1 {
		return 0
	}

	return int32(bits.Len(uint(need - 1)))
}

// pagesFor returns ceil(bytes / PageSize), the number of pages a large
// region needs to hold bytes.
func pagesFor(bytes int) int {
	return (bytes + PageSize - 1) / PageSize
}

// largeHeaderAt reinterprets a region the pool just handed back for a
// large-block request as a blockHeader, overwriting whatever freeRegion
// bookkeeping lived there. bsize is stored as -pages, the marker Free uses
// to tell a large block apart from an ordinary buddy block.
func largeHeaderAt(region *freeRegion, pages int, bucket int32) *blockHeader {
	h := xunsafe.Cast[blockHeader](region)
	h.bsize = -int32(pages)
	h.bucket = bucket
	h.used = true
	h.left = false

	return h
}
