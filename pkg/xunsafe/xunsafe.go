// Package xunsafe provides a more convenient interface for performing
// unsafe operations than Go's built-in package unsafe.
package xunsafe

import "sync"

// NoCopy is a type that go vet's copylocks check will complain about having
// been moved, by virtue of containing a sync.Mutex. Arena and Pool embed it
// (Heap contains it through its arenas) so that accidentally copying one
// (instead of passing a pointer) is caught at vet time rather than at a
// corrupted-list runtime failure.
type NoCopy [0]sync.Mutex
