package theap

import (
	"testing"
	"unsafe"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestArena() *Arena {
	return &Arena{pool: NewPool(&fakePageSource{}), idx: 0}
}

func TestArena(t *testing.T) {
	Convey("Arena", t, func() {
		a := newTestArena()

		Convey("get returns a block of exactly the requested class", func() {
			h := a.get(6)

			So(h.bsize, ShouldEqual, int32(6))
			So(h.used, ShouldBeTrue)
			So(h.bucket, ShouldEqual, int32(0))
		})

		Convey("two consecutive requests never return overlapping blocks", func() {
			h1 := a.get(6)
			h2 := a.get(6)

			p1 := unsafe.Pointer(h1)
			p2 := unsafe.Pointer(h2)

			So(p1, ShouldNotEqual, p2)
		})

		Convey("put frees a block and coalesces it with its buddy all the way back to a whole slab", func() {
			h1 := a.get(6)
			h2 := a.get(6)

			a.put(h1)
			a.put(h2)

			So(a.head, ShouldBeNil)
			So(a.pool.Stats().Freed, ShouldEqual, 1)
		})

		Convey("a fully coalesced slab is returned to the pool and unlinked", func() {
			h := a.get(int32(rootClass))

			So(a.head, ShouldNotBeNil)

			a.put(h)

			So(a.head, ShouldBeNil)
		})

		Convey("repeated small allocations eventually span more than one slab", func() {
			var headers []*blockHeader
			for range 20 {
				headers = append(headers, a.get(10))
			}

			So(a.head, ShouldNotBeNil)
			So(a.head.next, ShouldNotBeNil)

			seen := map[unsafe.Pointer]bool{}
			for _, h := range headers {
				p := unsafe.Pointer(h)
				So(seen[p], ShouldBeFalse)
				seen[p] = true
			}
		})
	})
}
