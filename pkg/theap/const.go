package theap

// PageSize is the unit the page source maps in and the pool counts regions
// in. rootClass below is a fixed literal that is not computed from PageSize
// or SlabPages; changing either of them leaves rootClass at 14.
const PageSize = 4096

// SlabPages is how many pages make up one slab, one arena's buddy tree.
const SlabPages = 5

// ArenaCount is the number of independent allocation domains. Each has its
// own mutex and its own slab list.
const ArenaCount = 64

// ProbeDepth is how many arenas the selector TryLocks, starting at the
// calling goroutine's preferred arena, before giving up and blocking.
const ProbeDepth = 3

// rootClass is the size class of a whole slab's buddy tree: 2^rootClass
// bytes, header included, is the largest block a slab can produce. With
// 4KiB pages and 5-page slabs this is 14 (16KiB): 4 pages of payload plus
// one page covering the slack the slab-link header and rounding leave
// behind.
const rootClass = 14

// slabTreeBytes is the size in bytes of a whole slab's buddy tree, i.e. the
// span a slab's root block covers: 1<<rootClass.
const slabTreeBytes = 1 << rootClass

// maxPages bounds how many pages a single large-block region may span. It
// is the range of a signed 8-bit page count; blockHeader.bsize itself is an
// int32 and is wider than this bound.
const maxPages = 1<<7 - 1
