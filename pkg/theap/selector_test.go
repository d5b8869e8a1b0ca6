package theap

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestSelector() *selector {
	arenas := new([ArenaCount]Arena)
	pool := NewPool(&fakePageSource{})

	for i := range arenas {
		arenas[i].pool = pool
		arenas[i].idx = i
	}

	return &selector{arenas: arenas}
}

func TestSelector(t *testing.T) {
	Convey("selector", t, func() {
		s := newTestSelector()

		Convey("acquire returns an arena already locked", func() {
			a, idx := s.acquire()

			So(idx, ShouldBeBetween, -1, ArenaCount)
			So(a.mu.TryLock(), ShouldBeFalse)

			a.mu.Unlock()
		})

		Convey("peek reports the same arena acquire would pick when uncontended", func() {
			idx := s.peek()

			a, got := s.acquire()
			a.mu.Unlock()

			So(got, ShouldEqual, idx)
		})

		Convey("a goroutine sticks to its preferred arena across calls", func() {
			_, first := s.acquire()
			s.arenas[first].mu.Unlock()

			_, second := s.acquire()
			s.arenas[second].mu.Unlock()

			So(second, ShouldEqual, first)
		})

		Convey("it skips a busy preferred arena and locks the next free neighbor", func() {
			start := s.peek()
			neighbor := (start + 1) % ArenaCount

			s.arenas[start].mu.Lock()

			a, idx := s.acquire()

			So(idx, ShouldEqual, neighbor)

			a.mu.Unlock()
			s.arenas[start].mu.Unlock()
		})

		Convey("it migrates past the whole probe window when every candidate is busy", func() {
			start := s.peek()

			for i := 0; i < ProbeDepth; i++ {
				s.arenas[(start+i)%ArenaCount].mu.Lock()
			}

			a, idx := s.acquire()

			So(idx, ShouldEqual, (start+ProbeDepth)%ArenaCount)

			a.mu.Unlock()
			for i := 0; i < ProbeDepth; i++ {
				s.arenas[(start+i)%ArenaCount].mu.Unlock()
			}
		})
	})
}
