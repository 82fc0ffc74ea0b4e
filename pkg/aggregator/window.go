// Package aggregator coalesces bursts of related inbound items into a single dispatch.
package aggregator

import (
	"sync"
	"time"
)

const DefaultQuietPeriod = 2 * time.Second

type group[T any] struct {
	items      []T
	timer      *time.Timer
	generation uint64
}

// Window buffers items per group id and dispatches each group once no new item has
// arrived for the quiet period. Every Add restarts the group's timer.
type Window[T any] struct {
	quiet time.Duration

	mu      sync.Mutex
	groups  map[string]*group[T]
	stopped bool
}

func New[T any](quiet time.Duration) *Window[T] {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Window[T]{
		quiet:  quiet,
		groups: make(map[string]*group[T]),
	}
}

// Add appends item to the group and reschedules its dispatch. dispatch runs on its own
// goroutine with the full arrival-ordered item list, exactly once per group.
// It reports false if the window has been stopped.
func (w *Window[T]) Add(groupID string, item T, dispatch func(items []T)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return false
	}

	g, ok := w.groups[groupID]
	if !ok {
		g = &group[T]{}
		w.groups[groupID] = g
	}
	g.items = append(g.items, item)

	if g.timer != nil {
		g.timer.Stop()
	}
	g.generation++
	generation := g.generation
	g.timer = time.AfterFunc(w.quiet, func() {
		if items, ok := w.take(groupID, generation); ok {
			dispatch(items)
		}
	})

	return true
}

// take removes the group if the firing timer is still the current one for it.
// A timer that was superseded but could not be stopped in time finds a newer
// generation (or no group at all) and does nothing.
func (w *Window[T]) take(groupID string, generation uint64) ([]T, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	g, ok := w.groups[groupID]
	if !ok || g.generation != generation {
		return nil, false
	}
	delete(w.groups, groupID)

	return g.items, true
}

// Pending returns the number of groups waiting for their quiet period to elapse.
func (w *Window[T]) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.groups)
}

// Stop cancels all pending dispatches and rejects further items.
// It returns the number of groups that were dropped.
func (w *Window[T]) Stop() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopped = true
	dropped := len(w.groups)
	for id, g := range w.groups {
		g.timer.Stop()
		delete(w.groups, id)
	}
	return dropped
}
