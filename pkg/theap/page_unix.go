//go:build linux || darwin || freebsd

package theap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// osPageSource backs Map with anonymous, private mmap regions. The kernel
// hands back zeroed pages on first fault, satisfying PageSource's contract
// for free.
type osPageSource struct{}

func (osPageSource) Map(pages int) (unsafe.Pointer, error) {
	b, err := unix.Mmap(-1, 0, pages*PageSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}

	return unsafe.Pointer(&b[0]), nil
}

// defaultPageSource is what the package-level Heap uses.
var defaultPageSource PageSource = osPageSource{}
