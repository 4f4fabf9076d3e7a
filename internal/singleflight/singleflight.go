package singleflight

import (
	"sync"

	"github.com/IvanBrykalov/cmapcache/font"
)

// Group coalesces concurrent resolutions of the same face so the
// application's Resolver runs at most once per identifier at a time.
// Opening a font file is the slowest operation anywhere near the cache;
// without coalescing, a cold start with many goroutines asking for the
// same face would parse the same file N times.
//
// Concurrency notes:
//   - The first caller for a given id becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing (face, err) happens-before
//     close(c.done), so reads after <-done observe the final values.
//   - Resolution is not cancelable (font parsing is a synchronous,
//     opaque call), so Do takes no context; followers block until the
//     leader finishes.
type Group struct {
	mu sync.Mutex
	m  map[font.FaceID]*call
}

type call struct {
	done chan struct{} // closed when face/err are published
	face font.Face
	err  error
}

// Do runs fn once for the given face identifier. Concurrent calls with the
// same id wait for the shared result. Errors are not cached: once the
// in-flight marker is removed, the next caller starts a fresh resolution.
func (g *Group) Do(id font.FaceID, fn func() (font.Face, error)) (font.Face, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[font.FaceID]*call)
	}
	if c, ok := g.m[id]; ok {
		done := c.done
		g.mu.Unlock()
		<-done
		return c.face, c.err
	}

	// We are the leader for this id.
	c := &call{done: make(chan struct{})}
	g.m[id] = c
	g.mu.Unlock()

	// Execute fn outside the lock.
	f, err := fn()

	// Publish result and wake followers.
	c.face, c.err = f, err
	close(c.done)

	// Remove the in-flight marker.
	g.mu.Lock()
	delete(g.m, id)
	g.mu.Unlock()

	return f, err
}
