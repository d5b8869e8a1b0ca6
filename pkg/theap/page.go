package theap

import "unsafe"

// PageSource is the black-box primitive the pool builds everything else
// from: given a page count, it returns a fresh region of that many
// contiguous, zeroed, writable, page-aligned bytes. The pool is its only
// caller.
type PageSource interface {
	Map(pages int) (unsafe.Pointer, error)
}
