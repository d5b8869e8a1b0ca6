package xunsafe

import "unsafe"

// Bytes views the n bytes starting at p as a slice, without copying.
func Bytes[P ~*E, E any](p P, n int) []byte {
	return unsafe.Slice(Cast[byte](p), n)
}
