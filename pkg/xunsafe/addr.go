//go:build go1.23

package xunsafe

import (
	"unsafe"

	"github.com/flier/theap/internal/debug"
	"github.com/flier/theap/pkg/xunsafe/layout"
)

// Addr is a typed address: a uintptr that remembers the size of the pointee
// it was derived from, so arithmetic on it is automatically scaled by
// sizeof(T) the way pointer arithmetic in C is scaled by the pointee type.
//
// The zero Addr is invalid and must not be passed to AssertValid.
type Addr[T any] uintptr

// AddrOf returns the address of the value pointed to by p.
func AddrOf[T any](p *T) Addr[T] {
	return Addr[T](uintptr(unsafe.Pointer(p)))
}

// Add offsets a by n elements of T, which may be negative.
func (a Addr[T]) Add(n int) Addr[T] {
	return a + Addr[T](layout.Size[T]()*n)
}

// Valid reports whether a is non-zero.
func (a Addr[T]) Valid() bool {
	return a != 0
}

// AssertValid converts a back into a pointer, aborting (via debug.Assert,
// a no-op outside of debug builds) if a is the zero Addr.
func (a Addr[T]) AssertValid() *T {
	debug.Assert(a != 0, "dereferenced a nil Addr[%T]", *new(T))

	return (*T)(unsafe.Pointer(uintptr(a)))
}
