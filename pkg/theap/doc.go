// Package theap is a general-purpose concurrent heap allocator with two
// operations, Allocate and Free, built to keep threads off of a single
// global lock.
//
// # Design
//
// Small requests are served out of one of 64 independent Arenas, each a
// buddy allocator over a handful of 5-page slabs; large requests bypass the
// arenas and go straight to a process-wide Pool of multi-page regions
// backed by anonymous mmap. A goroutine sticks to whichever arena it last
// used successfully (the Arena Selector), probing a few neighbors with
// TryLock before falling back to a blocking lock, so contention is spread
// across arenas without unbounded scanning.
//
// All metadata (block headers, slab links, free-region headers) is
// overlaid in place on the memory it describes; there is no separate
// bookkeeping table. This is the one part of the package that reaches for
// package unsafe (by way of pkg/xunsafe), and it does so at the seams only:
// everything above Allocate/Free is an ordinary safe Go API.
//
// # What this is not
//
// There is no realloc, no alignment beyond what a block's size class
// implies, no NUMA awareness, no debug poisoning, and pages are never
// unmapped once they enter the pool. Allocation never fails on contention;
// it aborts the process if the OS itself refuses to hand back pages, if a
// size is negative or needs more pages than a large region may span, if a
// caller passes a nil pointer to Free, or if Free finds a block header
// naming an arena that does not exist.
package theap
