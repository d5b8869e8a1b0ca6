package theap

import (
	"fmt"
	"os"

	"github.com/flier/theap/internal/debug"
)

// fatal prints msg and a stack trace to stderr and terminates the process.
// Nothing in this package returns an error to its caller: a request the
// allocator cannot satisfy is treated the same way a failed malloc inside
// the Go runtime itself would be, not as a recoverable condition.
func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "theap:", msg)
	fmt.Fprint(os.Stderr, debug.Stack(2))
	os.Exit(2)
}

// fatalOutOfAddressSpace reports that the page source refused to hand back
// pages pages, and aborts.
func fatalOutOfAddressSpace(pages int, err error) {
	fatal(fmt.Sprintf("out of address space: mapping %d pages: %v", pages, err))
}

// fatalUnrepresentableSize reports that a request can't be expressed in the
// allocator's metadata (too large, or negative), and aborts. n is whatever
// unit the caller was counting in: bytes for a raw size check, pages once
// a request has been converted to a page count.
func fatalUnrepresentableSize(n int) {
	fatal(fmt.Sprintf("unrepresentable size: %d", n))
}

// fatalNullFree reports that Free was called with a nil pointer, and aborts.
func fatalNullFree() {
	fatal("Free called with a nil pointer")
}

// fatalInvariant reports that an internal invariant was violated, and
// aborts. format/args follow fmt.Sprintf conventions.
func fatalInvariant(format string, args ...any) {
	fatal("invariant violated: " + fmt.Sprintf(format, args...))
}
