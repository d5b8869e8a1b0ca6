//go:build go1.23

package xunsafe

import (
	"unsafe"

	"github.com/flier/theap/pkg/xunsafe/layout"
)

// ByteAdd adds the given byte offset to p, without scaling by sizeof(E),
// casting the result to *T in the same step.
func ByteAdd[T any, P ~*E, E any, I layout.Int](p P, n I) *T {
	return (*T)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) + uintptr(n)))
}
