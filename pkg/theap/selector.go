package theap

import (
	"math/rand/v2"

	"github.com/timandy/routine"
)

// preferred is the per-goroutine sticky arena index. A goroutine keeps
// coming back to the same arena across calls, so contention on any one
// arena's mutex stays limited to however many goroutines happened to land
// on it rather than growing with the whole process.
var preferred = routine.NewThreadLocalWithInitial[*int](func() *int {
	i := rand.IntN(ArenaCount)
	return &i
})

// selector picks which arena a request should try, probing a handful of
// candidates with TryLock before committing to a blocking wait. A failed
// TryLock never actually acquires the mutex, so this never holds more than
// one arena's lock at a time.
type selector struct {
	arenas *[ArenaCount]Arena
}

// acquire returns an arena locked for the caller, and the index of that
// arena so the caller can remember it in a block's bucket field.
//
// It starts at the calling goroutine's preferred arena and TryLocks it and
// the next ProbeDepth-1 arenas walking forward. If one succeeds, that arena
// becomes the new preference. If all of them are contended, it advances the
// preference by ProbeDepth arenas (circularly) and blocks on that one
// instead, so a goroutine that keeps finding its neighborhood busy migrates
// away from it rather than piling up on the same few arenas.
func (s *selector) acquire() (*Arena, int) {
	seed := preferred.Get()
	start := *seed

	for i := range ProbeDepth {
		idx := (start + i) % ArenaCount
		a := &s.arenas[idx]

		if a.mu.TryLock() {
			*seed = idx
			return a, idx
		}
	}

	idx := (start + ProbeDepth) % ArenaCount
	a := &s.arenas[idx]
	a.mu.Lock()
	*seed = idx

	return a, idx
}

// peek returns the calling goroutine's current preferred arena index,
// without locking anything. Large-block requests bypass the arenas but
// still record a bucket for diagnostics, and use this to pick one.
func (s *selector) peek() int {
	return *preferred.Get()
}
