//go:build go1.23

package xunsafe

import "unsafe"

// Cast reinterprets a pointer to one type as a pointer to another, the way
// the allocator reinterprets raw bytes handed back by the page source as a
// blockHeader, a slabLink, or a freeRegion depending on who currently owns
// them.
func Cast[To, From any](p *From) *To {
	return (*To)(unsafe.Pointer(p))
}
